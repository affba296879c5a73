package analytics

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
)

func TestIsProfileStale(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cutoff := 24 * time.Hour
	recent := now.Add(-1 * time.Hour)
	old := now.Add(-25 * time.Hour)
	dirtyAfter := now.Add(-30 * time.Minute)

	cases := []struct {
		name     string
		item     models.Item
		expected bool
	}{
		{"never computed", models.Item{}, true},
		{"fresh and clean", models.Item{LastStatisticsUpdate: &recent}, false},
		{"older than cutoff", models.Item{LastStatisticsUpdate: &old}, true},
		{"dirty since last pass", models.Item{LastStatisticsUpdate: &recent, ConsumptionDirtyAt: &dirtyAfter}, true},
		{"dirty before last pass", models.Item{LastStatisticsUpdate: &recent, ConsumptionDirtyAt: &old}, false},
	}
	for _, tc := range cases {
		if got := IsProfileStale(&tc.item, now, cutoff); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestIsCorrelationStale(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cutoff := 24 * time.Hour
	recent := now.Add(-1 * time.Hour)
	dirtyAfter := now.Add(-30 * time.Minute)
	dirtyBefore := now.Add(-2 * time.Hour)

	corr := func(calculated time.Time) *models.ItemCorrelation {
		return &models.ItemCorrelation{Item1Id: 1, Item2Id: 2, LastCalculated: calculated}
	}

	if !IsCorrelationStale(corr(now.Add(-25*time.Hour)), nil, now, cutoff) {
		t.Fatal("correlation older than cutoff must be stale")
	}
	if IsCorrelationStale(corr(recent), nil, now, cutoff) {
		t.Fatal("fresh correlation with clean endpoints must not be stale")
	}
	if !IsCorrelationStale(corr(recent), map[int]*time.Time{2: &dirtyAfter}, now, cutoff) {
		t.Fatal("either endpoint dirty after the last calculation makes the pair stale")
	}
	if IsCorrelationStale(corr(recent), map[int]*time.Time{1: &dirtyBefore, 2: nil}, now, cutoff) {
		t.Fatal("dirty marks older than the calculation must not trigger staleness")
	}
}

func TestRefreshRequest_CategoryScopeValidation(t *testing.T) {
	// Scope binding values must round-trip through their string form; the
	// handler layer relies on these exact names.
	for _, scope := range []RefreshScope{ScopeAll, ScopeCategory, ScopeStaleOnly} {
		switch scope {
		case "ALL", "CATEGORY", "STALE_ONLY":
		default:
			t.Fatalf("unexpected scope value %q", scope)
		}
	}
}
