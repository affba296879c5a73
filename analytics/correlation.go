package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

// SkipReason explains why a pair produced no stored correlation. These are
// expected, common outcomes in a sparse consumption dataset — they are reported
// as counts, never raised as failures.
type SkipReason string

const (
	SkipNone              SkipReason = ""
	SkipInsufficientData  SkipReason = "INSUFFICIENT_DATA"
	SkipUndefinedVariance SkipReason = "UNDEFINED_VARIANCE"
)

// PairStats is the immutable result of one correlation pass over two items'
// aligned consumption series.
type PairStats struct {
	Coefficient        float64
	CorrelationType    models.CorrelationType
	ConfidenceLevel    models.ConfidenceLevel
	DataPoints         int
	CoConsumptionCount int
	AverageGapDays     float64
}

// ComputeCorrelation runs Pearson over the aligned series. It returns a skip
// reason instead of a result when the sample is too small or either series has
// zero variance (an undefined coefficient is not a zero coefficient and must
// not be stored as one).
func ComputeCorrelation(series AlignedSeries, gapDays float64, cfg config.AnalyticsConfig) (*PairStats, SkipReason) {
	if series.Len() < cfg.MinCorrelationPoints {
		return nil, SkipInsufficientData
	}

	r, ok := pearson(series.A, series.B)
	if !ok {
		return nil, SkipUndefinedVariance
	}

	return &PairStats{
		Coefficient:        r,
		CorrelationType:    ClassifyCorrelation(r, cfg),
		ConfidenceLevel:    classifyConfidence(series.Len()),
		DataPoints:         series.Len(),
		CoConsumptionCount: CoConsumptionCount(series),
		AverageGapDays:     gapDays,
	}, SkipNone
}

// pearson computes the correlation coefficient of two equal-length series.
// ok is false when either series is constant (zero variance).
func pearson(xs, ys []float64) (r float64, ok bool) {
	n := float64(len(xs))
	if n == 0 || len(xs) != len(ys) {
		return 0, false
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}

	r = cov / math.Sqrt(varX*varY)
	// numeric noise can push |r| a hair past 1
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// ClassifyCorrelation buckets a coefficient by absolute value, with the sign
// selecting the positive/negative variant.
func ClassifyCorrelation(r float64, cfg config.AnalyticsConfig) models.CorrelationType {
	abs := math.Abs(r)
	negative := r < 0
	switch {
	case abs >= cfg.StrongMin:
		if negative {
			return models.CorrelationStrongNegative
		}
		return models.CorrelationStrongPositive
	case abs >= cfg.ModerateMin:
		if negative {
			return models.CorrelationModerateNegative
		}
		return models.CorrelationModeratePositive
	case abs >= cfg.WeakMin:
		if negative {
			return models.CorrelationWeakNegative
		}
		return models.CorrelationWeakPositive
	default:
		return models.CorrelationNone
	}
}

func classifyConfidence(dataPoints int) models.ConfidenceLevel {
	switch {
	case dataPoints >= 20:
		return models.ConfidenceHigh
	case dataPoints >= 10:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// RefreshCorrelation recomputes the pair and upserts the stored row under the
// canonical pair key. A skip outcome writes nothing and is not an error; an
// unknown item id is.
func RefreshCorrelation(ctx context.Context, itemA, itemB int, windowDays int) (*models.ItemCorrelation, SkipReason, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, SkipNone, errors.New("business id is required")
	}
	if itemA == itemB {
		return nil, SkipNone, errors.New("correlation requires two distinct items")
	}

	if err := utils.ValidateResourceId[models.Item](ctx, businessId, itemA); err != nil {
		return nil, SkipNone, err
	}
	if err := utils.ValidateResourceId[models.Item](ctx, businessId, itemB); err != nil {
		return nil, SkipNone, err
	}

	cfg := config.GetAnalyticsConfig()
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}

	today, err := utils.ConvertToDate(time.Now().UTC(), "UTC")
	if err != nil {
		return nil, SkipNone, err
	}
	start := today.AddDate(0, 0, -windowDays)

	recordsA, err := models.FetchConsumptionRecords(ctx, businessId, itemA, start, today)
	if err != nil {
		return nil, SkipNone, err
	}
	recordsB, err := models.FetchConsumptionRecords(ctx, businessId, itemB, start, today)
	if err != nil {
		return nil, SkipNone, err
	}

	series := AlignSeries(recordsA, recordsB)
	gapDays := AverageNearestGapDays(ConsumptionDates(recordsA), ConsumptionDates(recordsB))

	stats, skip := ComputeCorrelation(series, gapDays, cfg)
	if skip != SkipNone {
		return nil, skip, nil
	}

	id1, id2 := models.CanonicalPair(itemA, itemB)
	corr := models.ItemCorrelation{
		BusinessId:         businessId,
		Item1Id:            id1,
		Item2Id:            id2,
		Coefficient:        decimal.NewFromFloat(stats.Coefficient).Round(6),
		CorrelationType:    stats.CorrelationType,
		ConfidenceLevel:    stats.ConfidenceLevel,
		DataPoints:         stats.DataPoints,
		CoConsumptionCount: stats.CoConsumptionCount,
		AverageGapDays:     decimal.NewFromFloat(stats.AverageGapDays).Round(4),
		LastCalculated:     time.Now().UTC(),
		IsActive:           utils.NewTrue(),
	}
	if err := models.UpsertCorrelation(ctx, &corr); err != nil {
		return nil, SkipNone, err
	}

	invalidateRecommendationCache(businessId, itemA, itemB)

	return &corr, SkipNone, nil
}

func invalidateRecommendationCache(businessId string, itemIds ...int) {
	keys := make([]string, 0, len(itemIds))
	for _, id := range itemIds {
		keys = append(keys, recommendationCacheKey(businessId, id))
	}
	if err := config.RemoveRedisKey(keys...); err != nil {
		config.LogError(config.GetLogger(), "analytics", "invalidateRecommendationCache",
			"Failed to drop recommendation cache", fmt.Sprint(itemIds), err)
	}
}
