package analytics

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"github.com/shopspring/decimal"
)

func makeRecords(t *testing.T, consumed ...float64) []*models.ConsumptionRecord {
	t.Helper()
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := make([]*models.ConsumptionRecord, 0, len(consumed))
	for i, qty := range consumed {
		records = append(records, &models.ConsumptionRecord{
			ItemId:      1,
			RecordDate:  start.AddDate(0, 0, i),
			ConsumedQty: decimal.NewFromFloat(qty),
		})
	}
	return records
}

func TestComputeProfile_CoverageDays(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	records := makeRecords(t, 10, 12, 9, 11, 10, 13, 8)
	profile := ComputeProfile(records, decimal.NewFromInt(50), today, cfg)

	if !profile.HasStatistics() {
		t.Fatal("expected statistics to be defined")
	}
	// mean = 73/7 ≈ 10.43, so 50 on hand covers 4 whole days
	if profile.CoverageDays == nil || *profile.CoverageDays != 4 {
		t.Fatalf("expected coverage 4, got %v", profile.CoverageDays)
	}
	if profile.ExpectedStockoutDate == nil || !profile.ExpectedStockoutDate.Equal(today.AddDate(0, 0, 4)) {
		t.Fatalf("expected stockout %v, got %v", today.AddDate(0, 0, 4), profile.ExpectedStockoutDate)
	}
	if profile.DataPoints != 7 {
		t.Fatalf("expected 7 data points, got %d", profile.DataPoints)
	}
}

func TestComputeProfile_InsufficientHistory(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for _, records := range [][]*models.ConsumptionRecord{nil, makeRecords(t, 5)} {
		profile := ComputeProfile(records, decimal.NewFromInt(50), today, cfg)
		if profile.HasStatistics() {
			t.Fatalf("expected undefined statistics for %d records", len(records))
		}
		if profile.CoverageDays != nil || profile.VolatilityClass != nil {
			t.Fatal("expected all derived fields nil with insufficient history")
		}
	}
}

func TestComputeProfile_ZeroMean(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	profile := ComputeProfile(makeRecords(t, 0, 0, 0, 0, 0), decimal.NewFromInt(50), today, cfg)
	if profile.Cv != nil {
		t.Fatalf("expected undefined CV with zero mean, got %v", profile.Cv)
	}
	if profile.CoverageDays != nil {
		t.Fatalf("expected undefined coverage with zero mean, got %v", profile.CoverageDays)
	}
	// undefined CV maps to the configured fallback class, not to "unclassified"
	if profile.VolatilityClass == nil || *profile.VolatilityClass != models.VolatilityMedium {
		t.Fatalf("expected fallback MEDIUM, got %v", profile.VolatilityClass)
	}
}

func TestClassifyVolatility_Boundaries(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()

	cases := []struct {
		cv       float64
		expected models.VolatilityClass
	}{
		{0.0, models.VolatilityLow},
		{0.24, models.VolatilityLow},
		{0.25, models.VolatilityMedium}, // boundary lands in the upper band
		{0.49, models.VolatilityMedium},
		{0.5, models.VolatilityHigh},
		{0.99, models.VolatilityHigh},
		{1.0, models.VolatilityVeryHigh},
		{3.0, models.VolatilityVeryHigh},
	}
	for _, tc := range cases {
		cv := tc.cv
		if got := ClassifyVolatility(&cv, cfg); got != tc.expected {
			t.Fatalf("ClassifyVolatility(%v) expected %s, got %s", tc.cv, tc.expected, got)
		}
	}

	if got := ClassifyVolatility(nil, cfg); got != models.VolatilityMedium {
		t.Fatalf("expected fallback MEDIUM for nil CV, got %s", got)
	}
}

func TestClassifyVolatility_IsHighlyVolatile(t *testing.T) {
	if models.VolatilityMedium.IsHighlyVolatile() {
		t.Fatal("MEDIUM should not be highly volatile")
	}
	if !models.VolatilityHigh.IsHighlyVolatile() || !models.VolatilityVeryHigh.IsHighlyVolatile() {
		t.Fatal("HIGH and VERY_HIGH should be highly volatile")
	}
}

func TestClassifyAbnormality(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	mean := decimal.NewFromInt(10)

	cases := []struct {
		consumed float64
		expected models.AbnormalityKind
	}{
		{15, models.AbnormalitySpike}, // ratio 1.5 is a spike
		{20, models.AbnormalitySpike},
		{14.9, models.AbnormalityNone},
		{5, models.AbnormalityDrop}, // ratio 0.5 is a drop
		{2, models.AbnormalityDrop},
		{5.1, models.AbnormalityNone},
		{10, models.AbnormalityNone},
	}
	for _, tc := range cases {
		got := ClassifyAbnormality(decimal.NewFromFloat(tc.consumed), mean, cfg)
		if got != tc.expected {
			t.Fatalf("ClassifyAbnormality(%v) expected %q, got %q", tc.consumed, tc.expected, got)
		}
	}

	if got := ClassifyAbnormality(decimal.NewFromInt(5), decimal.Zero, cfg); got != models.AbnormalityNone {
		t.Fatalf("expected no classification with zero mean, got %q", got)
	}
}

func TestComputeProfile_ConstantSeriesHasZeroCv(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	profile := ComputeProfile(makeRecords(t, 10, 10, 10, 10, 10), decimal.NewFromInt(100), today, cfg)
	if profile.Cv == nil || !profile.Cv.IsZero() {
		t.Fatalf("expected CV 0 for constant series, got %v", profile.Cv)
	}
	if profile.VolatilityClass == nil || *profile.VolatilityClass != models.VolatilityLow {
		t.Fatalf("expected LOW volatility, got %v", profile.VolatilityClass)
	}
	if profile.IsHighlyVolatile == nil || *profile.IsHighlyVolatile {
		t.Fatal("constant series must not be highly volatile")
	}
	if profile.CoverageDays == nil || *profile.CoverageDays != 10 {
		t.Fatalf("expected coverage 10, got %v", profile.CoverageDays)
	}
}
