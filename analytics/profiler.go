package analytics

import (
	"context"
	"errors"
	"math"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

// Profile is the immutable result of one statistical pass over an item's
// consumption history. Nil fields mean "undefined" — insufficient history or a
// zero denominator — which is a distinct state from zero.
type Profile struct {
	AverageDailyConsumption *decimal.Decimal
	StdDeviation            *decimal.Decimal
	Cv                      *decimal.Decimal
	VolatilityClass         *models.VolatilityClass
	IsHighlyVolatile        *bool
	CoverageDays            *int
	ExpectedStockoutDate    *time.Time
	DataPoints              int
}

// HasStatistics reports whether the profile carries defined statistical fields.
func (p Profile) HasStatistics() bool {
	return p.AverageDailyConsumption != nil
}

// ComputeProfile derives the statistical profile from an item's consumption
// records within the lookback window. Fewer than 2 records yields a profile
// with every statistical field undefined.
func ComputeProfile(records []*models.ConsumptionRecord, currentQty decimal.Decimal, today time.Time, cfg config.AnalyticsConfig) Profile {
	profile := Profile{DataPoints: len(records)}
	if len(records) < 2 {
		return profile
	}

	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.ConsumedQty)
	}
	n := int64(len(records))
	mean := sum.Div(decimal.NewFromInt(n))
	profile.AverageDailyConsumption = &mean

	meanF := mean.InexactFloat64()
	var sumSq float64
	for _, r := range records {
		diff := r.ConsumedQty.InexactFloat64() - meanF
		sumSq += diff * diff
	}
	// sample standard deviation
	stddevF := math.Sqrt(sumSq / float64(n-1))
	stddev := decimal.NewFromFloat(stddevF)
	profile.StdDeviation = &stddev

	var cvF *float64
	if mean.IsPositive() {
		v := stddevF / meanF
		cvF = &v
		cv := decimal.NewFromFloat(v)
		profile.Cv = &cv
	}

	class := ClassifyVolatility(cvF, cfg)
	profile.VolatilityClass = &class
	highlyVolatile := class.IsHighlyVolatile()
	profile.IsHighlyVolatile = &highlyVolatile

	if mean.IsPositive() {
		coverage := int(currentQty.Div(mean).IntPart())
		if coverage < 0 {
			coverage = 0
		}
		profile.CoverageDays = &coverage
		stockout := today.AddDate(0, 0, coverage)
		profile.ExpectedStockoutDate = &stockout
	}

	return profile
}

// ClassifyVolatility buckets a coefficient of variation. An undefined CV (zero
// mean) maps to the configured fallback class rather than staying unclassified,
// so downstream stock alerting always has a class to act on.
func ClassifyVolatility(cv *float64, cfg config.AnalyticsConfig) models.VolatilityClass {
	if cv == nil {
		return models.VolatilityClass(cfg.VolatilityFallback)
	}
	switch {
	case *cv < cfg.CvLowMax:
		return models.VolatilityLow
	case *cv < cfg.CvMediumMax:
		return models.VolatilityMedium
	case *cv < cfg.CvHighMax:
		return models.VolatilityHigh
	default:
		return models.VolatilityVeryHigh
	}
}

// ClassifyAbnormality marks a single day's consumption as a spike or drop
// relative to the item's mean. A zero mean classifies nothing.
func ClassifyAbnormality(consumed, mean decimal.Decimal, cfg config.AnalyticsConfig) models.AbnormalityKind {
	if !mean.IsPositive() {
		return models.AbnormalityNone
	}
	ratio := consumed.Div(mean).InexactFloat64()
	if ratio >= cfg.SpikeRatio {
		return models.AbnormalitySpike
	}
	if ratio <= cfg.DropRatio {
		return models.AbnormalityDrop
	}
	return models.AbnormalityNone
}

// RefreshProfile recomputes and persists the item's statistical profile.
// Missing history is not an error; an unknown item id is.
func RefreshProfile(ctx context.Context, itemId int, windowDays int) (*Profile, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	cfg := config.GetAnalyticsConfig()
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}

	item, err := utils.FetchModel[models.Item](ctx, businessId, itemId)
	if err != nil {
		return nil, err
	}

	today, err := utils.ConvertToDate(time.Now().UTC(), "UTC")
	if err != nil {
		return nil, err
	}
	start := today.AddDate(0, 0, -windowDays)

	records, err := models.FetchConsumptionRecords(ctx, businessId, itemId, start, today)
	if err != nil {
		return nil, err
	}

	profile := ComputeProfile(records, item.CurrentQty, today, cfg)

	update := models.ItemProfileUpdate{
		AverageDailyConsumption: profile.AverageDailyConsumption,
		ConsumptionStdDeviation: profile.StdDeviation,
		ConsumptionCv:           profile.Cv,
		VolatilityClass:         profile.VolatilityClass,
		IsHighlyVolatile:        profile.IsHighlyVolatile,
		CoverageDays:            profile.CoverageDays,
		ExpectedStockoutDate:    profile.ExpectedStockoutDate,
		LastStatisticsUpdate:    time.Now().UTC(),
	}
	if err := models.UpdateItemProfile(ctx, businessId, itemId, &update); err != nil {
		return nil, err
	}

	return &profile, nil
}

// AbnormalDay is one consumption record flagged against the window mean.
type AbnormalDay struct {
	Date        time.Time              `json:"date"`
	ConsumedQty decimal.Decimal        `json:"consumed_qty"`
	Ratio       decimal.Decimal        `json:"ratio"`
	Kind        models.AbnormalityKind `json:"kind"`
}

// DetectAbnormalDays scans the item's window for spike/drop days. With a zero
// or undefined mean nothing is flagged.
func DetectAbnormalDays(ctx context.Context, itemId int, windowDays int) ([]*AbnormalDay, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	cfg := config.GetAnalyticsConfig()
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}

	if err := utils.ValidateResourceId[models.Item](ctx, businessId, itemId); err != nil {
		return nil, err
	}

	today, err := utils.ConvertToDate(time.Now().UTC(), "UTC")
	if err != nil {
		return nil, err
	}
	start := today.AddDate(0, 0, -windowDays)

	records, err := models.FetchConsumptionRecords(ctx, businessId, itemId, start, today)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.ConsumedQty)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(records))))
	if !mean.IsPositive() {
		return nil, nil
	}

	var abnormal []*AbnormalDay
	for _, r := range records {
		kind := ClassifyAbnormality(r.ConsumedQty, mean, cfg)
		if kind == models.AbnormalityNone {
			continue
		}
		abnormal = append(abnormal, &AbnormalDay{
			Date:        r.RecordDate,
			ConsumedQty: r.ConsumedQty,
			Ratio:       r.ConsumedQty.Div(mean).Round(4),
			Kind:        kind,
		})
	}
	return abnormal, nil
}
