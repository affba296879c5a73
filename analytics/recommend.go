package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
	"github.com/shopspring/decimal"
)

const recommendationCacheTTL = 15 * time.Minute

// Recommendation is one "also consumed with" suggestion for an item.
type Recommendation struct {
	ItemId          int                    `json:"item_id"`
	ItemName        string                 `json:"item_name"`
	Sku             string                 `json:"sku"`
	Coefficient     decimal.Decimal        `json:"coefficient"`
	CorrelationType models.CorrelationType `json:"correlation_type"`
	ConfidenceLevel models.ConfidenceLevel `json:"confidence_level"`
	DataPoints      int                    `json:"data_points"`
}

func recommendationCacheKey(businessId string, itemId int) string {
	return fmt.Sprintf("recommendations:%s:%d", businessId, itemId)
}

// RankCorrelations filters the item's correlations to those at or above the
// significance threshold and orders them by absolute coefficient descending,
// most recently calculated first on ties. limit <= 0 means no limit.
func RankCorrelations(corrs []*models.ItemCorrelation, threshold float64, limit int) []*models.ItemCorrelation {
	ranked := make([]*models.ItemCorrelation, 0, len(corrs))
	for _, c := range corrs {
		if c.Coefficient.Abs().InexactFloat64() >= threshold {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ai := ranked[i].Coefficient.Abs()
		aj := ranked[j].Coefficient.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return ranked[i].LastCalculated.After(ranked[j].LastCalculated)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// GetRecommendations returns the top correlated counterparts for an item.
// Results are cached in Redis; writes on either endpoint drop the key.
func GetRecommendations(ctx context.Context, itemId int, limit int) ([]*Recommendation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[models.Item](ctx, businessId, itemId); err != nil {
		return nil, err
	}

	cacheKey := recommendationCacheKey(businessId, itemId)
	if limit <= 0 {
		var cached []*Recommendation
		if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	corrs, err := models.ListActiveCorrelations(ctx, businessId, itemId)
	if err != nil {
		return nil, err
	}

	cfg := config.GetAnalyticsConfig()
	ranked := RankCorrelations(corrs, cfg.SignificanceThreshold, limit)

	recommendations := make([]*Recommendation, 0, len(ranked))
	for _, corr := range ranked {
		counterpartId := corr.Item1Id
		if counterpartId == itemId {
			counterpartId = corr.Item2Id
		}
		counterpart, err := utils.FetchModel[models.Item](ctx, businessId, counterpartId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				// endpoint deleted after the row was written; skip it
				continue
			}
			return nil, err
		}
		recommendations = append(recommendations, &Recommendation{
			ItemId:          counterpartId,
			ItemName:        counterpart.Name,
			Sku:             counterpart.Sku,
			Coefficient:     corr.Coefficient,
			CorrelationType: corr.CorrelationType,
			ConfidenceLevel: corr.ConfidenceLevel,
			DataPoints:      corr.DataPoints,
		})
	}

	if limit <= 0 {
		if err := config.SetRedisObject(cacheKey, recommendations, recommendationCacheTTL); err != nil {
			config.LogError(config.GetLogger(), "analytics", "GetRecommendations",
				"Failed to cache recommendations", itemId, err)
		}
	}

	return recommendations, nil
}
