package analytics

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"github.com/shopspring/decimal"
)

func corrWith(coefficient float64, calculated time.Time) *models.ItemCorrelation {
	return &models.ItemCorrelation{
		Item1Id:        1,
		Item2Id:        2,
		Coefficient:    decimal.NewFromFloat(coefficient),
		LastCalculated: calculated,
	}
}

func TestRankCorrelations_ThresholdAndLimit(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	corrs := []*models.ItemCorrelation{
		corrWith(0.3, now),
		corrWith(0.8, now),
		corrWith(0.1, now),
		corrWith(0.5, now),
	}

	ranked := RankCorrelations(corrs, 0.4, 2)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].Coefficient.InexactFloat64() != 0.8 {
		t.Fatalf("expected 0.8 first, got %v", ranked[0].Coefficient)
	}
	if ranked[1].Coefficient.InexactFloat64() != 0.5 {
		t.Fatalf("expected 0.5 second, got %v", ranked[1].Coefficient)
	}
}

func TestRankCorrelations_AbsoluteValueOrdering(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	corrs := []*models.ItemCorrelation{
		corrWith(0.5, now),
		corrWith(-0.9, now),
		corrWith(0.6, now),
	}

	ranked := RankCorrelations(corrs, 0.4, 0)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 results, got %d", len(ranked))
	}
	// strong negatives outrank weaker positives
	if ranked[0].Coefficient.InexactFloat64() != -0.9 {
		t.Fatalf("expected -0.9 first, got %v", ranked[0].Coefficient)
	}
	if ranked[1].Coefficient.InexactFloat64() != 0.6 {
		t.Fatalf("expected 0.6 second, got %v", ranked[1].Coefficient)
	}
}

func TestRankCorrelations_TieBreakByRecency(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 0, 10)
	corrs := []*models.ItemCorrelation{
		corrWith(0.6, older),
		corrWith(0.6, newer),
	}

	ranked := RankCorrelations(corrs, 0.4, 0)
	if !ranked[0].LastCalculated.Equal(newer) {
		t.Fatal("equal coefficients must order by most recent calculation first")
	}
}

func TestRankCorrelations_EmptyBelowThreshold(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	corrs := []*models.ItemCorrelation{corrWith(0.1, now), corrWith(-0.2, now)}

	ranked := RankCorrelations(corrs, 0.4, 5)
	if len(ranked) != 0 {
		t.Fatalf("expected no results below threshold, got %d", len(ranked))
	}
}
