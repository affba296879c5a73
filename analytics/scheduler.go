package analytics

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"bitbucket.org/mmdatafocus/inventory_backend/utils"
)

// RefreshScope selects which items a recompute pass touches.
type RefreshScope string

const (
	ScopeAll       RefreshScope = "ALL"
	ScopeCategory  RefreshScope = "CATEGORY"
	ScopeStaleOnly RefreshScope = "STALE_ONLY"
)

// RefreshRequest describes one recompute pass.
type RefreshRequest struct {
	Scope      RefreshScope `json:"scope" binding:"required,oneof=ALL CATEGORY STALE_ONLY"`
	CategoryId int          `json:"category_id"`
	WindowDays int          `json:"window_days"`
}

// RefreshSummary reports what a pass did. Skips are normal outcomes of sparse
// data and are counted, not failed.
type RefreshSummary struct {
	Scope                RefreshScope `json:"scope"`
	ProfilesRefreshed    int          `json:"profiles_refreshed"`
	ProfilesSkipped      int          `json:"profiles_skipped"`
	CorrelationsUpserted int          `json:"correlations_upserted"`
	PairsInsufficient    int          `json:"pairs_insufficient_data"`
	PairsZeroVariance    int          `json:"pairs_undefined_variance"`
	Errors               int          `json:"errors"`
	StartedAt            time.Time    `json:"started_at"`
	FinishedAt           time.Time    `json:"finished_at"`
}

// IsProfileStale reports whether an item's statistics need recomputation:
// never computed, marked dirty since the last pass, or older than the cutoff.
func IsProfileStale(item *models.Item, now time.Time, cutoff time.Duration) bool {
	if item.LastStatisticsUpdate == nil {
		return true
	}
	if item.ConsumptionDirtyAt != nil && item.ConsumptionDirtyAt.After(*item.LastStatisticsUpdate) {
		return true
	}
	return now.Sub(*item.LastStatisticsUpdate) > cutoff
}

// IsCorrelationStale reports whether a stored pair needs recomputation.
// dirtyAt carries the pre-refresh dirty marks of both endpoints (nil = clean).
func IsCorrelationStale(corr *models.ItemCorrelation, dirtyAt map[int]*time.Time, now time.Time, cutoff time.Duration) bool {
	if now.Sub(corr.LastCalculated) > cutoff {
		return true
	}
	for _, id := range []int{corr.Item1Id, corr.Item2Id} {
		if at, ok := dirtyAt[id]; ok && at != nil && at.After(corr.LastCalculated) {
			return true
		}
	}
	return false
}

// RefreshAll runs one recompute pass for the business in the context. It holds
// the per-business lock for the duration so overlapping passes (cron plus a
// manual trigger) serialize instead of racing on the same rows.
//
// Per-item and per-pair failures are counted and logged but do not abort the
// pass; a cancelled context does.
func RefreshAll(ctx context.Context, req RefreshRequest) (*RefreshSummary, error) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if req.Scope == ScopeCategory && req.CategoryId <= 0 {
		return nil, errors.New("category id is required for category scope")
	}

	release, err := utils.BusinessLock(ctx, businessId, "analyticsRefresh", "analytics", "RefreshAll")
	if err != nil {
		return nil, err
	}
	defer release()

	cfg := config.GetAnalyticsConfig()
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}
	now := time.Now().UTC()

	summary := RefreshSummary{Scope: req.Scope, StartedAt: now}

	items, err := selectItems(ctx, req, now, cfg)
	if err != nil {
		return nil, err
	}

	// Snapshot dirty marks before profiles clear them; correlation staleness
	// must see the pre-refresh state.
	dirtyAt := make(map[int]*time.Time, len(items))
	categoryOf := make(map[int]int, len(items))
	for _, item := range items {
		dirtyAt[item.ID] = item.ConsumptionDirtyAt
		categoryOf[item.ID] = item.CategoryId
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		profile, err := RefreshProfile(ctx, item.ID, windowDays)
		if err != nil {
			summary.Errors++
			config.LogError(logger, "analytics", "RefreshAll", "Profile refresh failed", item.ID, err)
			continue
		}
		if profile.HasStatistics() {
			summary.ProfilesRefreshed++
		} else {
			summary.ProfilesSkipped++
		}
	}

	pairs, err := enumeratePairs(ctx, businessId, items, req, dirtyAt, categoryOf, now, cfg)
	if err != nil {
		return nil, err
	}

	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, skip, err := RefreshCorrelation(ctx, p[0], p[1], windowDays)
		if err != nil {
			summary.Errors++
			config.LogError(logger, "analytics", "RefreshAll", "Correlation refresh failed", p, err)
			continue
		}
		switch skip {
		case SkipInsufficientData:
			summary.PairsInsufficient++
		case SkipUndefinedVariance:
			summary.PairsZeroVariance++
		default:
			summary.CorrelationsUpserted++
		}
	}

	summary.FinishedAt = time.Now().UTC()
	return &summary, nil
}

// selectItems resolves the scope to a concrete item set.
func selectItems(ctx context.Context, req RefreshRequest, now time.Time, cfg config.AnalyticsConfig) ([]*models.Item, error) {
	var categoryId *int
	if req.Scope == ScopeCategory {
		categoryId = &req.CategoryId
	}
	items, err := models.GetItems(ctx, nil, categoryId)
	if err != nil {
		return nil, err
	}

	selected := make([]*models.Item, 0, len(items))
	for _, item := range items {
		if item.IsActive == nil || !*item.IsActive {
			continue
		}
		if req.Scope == ScopeStaleOnly && !IsProfileStale(item, now, cfg.StalenessCutoff) {
			continue
		}
		selected = append(selected, item)
	}
	return selected, nil
}

// enumeratePairs builds the pair worklist: every stored active pair touching
// the selected items, plus all same-category pairs among items that actually
// consumed inside the window. Category bounds the quadratic blowup; items in
// different categories only ever pair through an already-stored row.
func enumeratePairs(ctx context.Context, businessId string, items []*models.Item, req RefreshRequest, dirtyAt map[int]*time.Time, categoryOf map[int]int, now time.Time, cfg config.AnalyticsConfig) ([][2]int, error) {
	selected := make(map[int]bool, len(items))
	for _, item := range items {
		selected[item.ID] = true
	}

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	add := func(a, b int) {
		id1, id2 := models.CanonicalPair(a, b)
		key := [2]int{id1, id2}
		if !seen[key] {
			seen[key] = true
			pairs = append(pairs, key)
		}
	}

	stored, err := models.ListAllActiveCorrelations(ctx, businessId)
	if err != nil {
		return nil, err
	}
	for _, corr := range stored {
		if !selected[corr.Item1Id] && !selected[corr.Item2Id] {
			continue
		}
		if req.Scope == ScopeStaleOnly && !IsCorrelationStale(corr, dirtyAt, now, cfg.StalenessCutoff) {
			continue
		}
		add(corr.Item1Id, corr.Item2Id)
	}

	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = cfg.WindowDays
	}
	start := now.AddDate(0, 0, -windowDays)
	consumingIds, err := models.GetConsumingItemIds(ctx, businessId, start, now)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[int][]int)
	for _, id := range consumingIds {
		if !selected[id] {
			continue
		}
		cat := categoryOf[id]
		byCategory[cat] = append(byCategory[cat], id)
	}
	for _, ids := range byCategory {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				add(ids[i], ids[j])
			}
		}
	}

	return pairs, nil
}

// RefreshStaleBusinesses runs a stale-only pass for every active business.
// This is the cron entry point; one business failing does not stop the rest.
func RefreshStaleBusinesses(ctx context.Context) {
	logger := config.GetLogger()

	businessIds, err := models.GetActiveBusinessIds(ctx)
	if err != nil {
		config.LogError(logger, "analytics", "RefreshStaleBusinesses", "Failed to list businesses", nil, err)
		return
	}

	for _, businessId := range businessIds {
		if ctx.Err() != nil {
			return
		}
		bizCtx := utils.SetBusinessIdInContext(ctx, businessId)
		summary, err := RefreshAll(bizCtx, RefreshRequest{Scope: ScopeStaleOnly})
		if err != nil {
			config.LogError(logger, "analytics", "RefreshStaleBusinesses", "Stale refresh failed", businessId, err)
			continue
		}
		logger.WithField("business_id", businessId).
			WithField("profiles_refreshed", summary.ProfilesRefreshed).
			WithField("correlations_upserted", summary.CorrelationsUpserted).
			Info("Stale analytics refresh completed")
	}
}
