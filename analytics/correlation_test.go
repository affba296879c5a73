package analytics

import (
	"math"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/config"
	"bitbucket.org/mmdatafocus/inventory_backend/models"
)

func makeSeries(t *testing.T, a, b []float64) AlignedSeries {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("test series length mismatch: %d vs %d", len(a), len(b))
	}
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, len(a))
	for i := range a {
		dates[i] = start.AddDate(0, 0, i)
	}
	return AlignedSeries{Dates: dates, A: a, B: b}
}

func TestComputeCorrelation_IdenticalSeries(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	series := makeSeries(t, []float64{10, 12, 9, 11, 13}, []float64{10, 12, 9, 11, 13})

	stats, skip := ComputeCorrelation(series, 0, cfg)
	if skip != SkipNone {
		t.Fatalf("unexpected skip %q", skip)
	}
	if math.Abs(stats.Coefficient-1.0) > 1e-9 {
		t.Fatalf("expected coefficient 1.0, got %v", stats.Coefficient)
	}
	if stats.CorrelationType != models.CorrelationStrongPositive {
		t.Fatalf("expected STRONG_POSITIVE, got %s", stats.CorrelationType)
	}
	if stats.DataPoints != 5 {
		t.Fatalf("expected 5 data points, got %d", stats.DataPoints)
	}
}

func TestComputeCorrelation_InverseSeries(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	series := makeSeries(t, []float64{1, 2, 3, 4, 5}, []float64{5, 4, 3, 2, 1})

	stats, skip := ComputeCorrelation(series, 0, cfg)
	if skip != SkipNone {
		t.Fatalf("unexpected skip %q", skip)
	}
	if math.Abs(stats.Coefficient+1.0) > 1e-9 {
		t.Fatalf("expected coefficient -1.0, got %v", stats.Coefficient)
	}
	if stats.CorrelationType != models.CorrelationStrongNegative {
		t.Fatalf("expected STRONG_NEGATIVE, got %s", stats.CorrelationType)
	}
}

func TestComputeCorrelation_Symmetric(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	a := []float64{3, 7, 2, 9, 5, 6}
	b := []float64{4, 8, 1, 7, 6, 5}

	statsAB, skip := ComputeCorrelation(makeSeries(t, a, b), 0, cfg)
	if skip != SkipNone {
		t.Fatalf("unexpected skip %q", skip)
	}
	statsBA, skip := ComputeCorrelation(makeSeries(t, b, a), 0, cfg)
	if skip != SkipNone {
		t.Fatalf("unexpected skip %q", skip)
	}
	if math.Abs(statsAB.Coefficient-statsBA.Coefficient) > 1e-12 {
		t.Fatalf("coefficient must not depend on argument order: %v vs %v",
			statsAB.Coefficient, statsBA.Coefficient)
	}
}

func TestComputeCorrelation_InsufficientData(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	series := makeSeries(t, []float64{1, 2, 3, 4}, []float64{2, 3, 4, 5})

	stats, skip := ComputeCorrelation(series, 0, cfg)
	if skip != SkipInsufficientData {
		t.Fatalf("expected INSUFFICIENT_DATA for 4 points, got %q", skip)
	}
	if stats != nil {
		t.Fatal("no stats must be produced on skip")
	}
}

func TestComputeCorrelation_ZeroVariance(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	series := makeSeries(t, []float64{5, 5, 5, 5, 5}, []float64{1, 2, 3, 4, 5})

	stats, skip := ComputeCorrelation(series, 0, cfg)
	if skip != SkipUndefinedVariance {
		t.Fatalf("expected UNDEFINED_VARIANCE for constant series, got %q", skip)
	}
	if stats != nil {
		t.Fatal("an undefined coefficient must not be stored as zero")
	}
}

func TestClassifyCorrelation_Bands(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()

	cases := []struct {
		r        float64
		expected models.CorrelationType
	}{
		{1.0, models.CorrelationStrongPositive},
		{0.7, models.CorrelationStrongPositive},
		{0.69, models.CorrelationModeratePositive},
		{0.4, models.CorrelationModeratePositive},
		{0.39, models.CorrelationWeakPositive},
		{0.2, models.CorrelationWeakPositive},
		{0.19, models.CorrelationNone},
		{0.0, models.CorrelationNone},
		{-0.19, models.CorrelationNone},
		{-0.2, models.CorrelationWeakNegative},
		{-0.4, models.CorrelationModerateNegative},
		{-0.7, models.CorrelationStrongNegative},
		{-1.0, models.CorrelationStrongNegative},
	}
	for _, tc := range cases {
		if got := ClassifyCorrelation(tc.r, cfg); got != tc.expected {
			t.Fatalf("ClassifyCorrelation(%v) expected %s, got %s", tc.r, tc.expected, got)
		}
	}
}

func TestClassifyConfidence(t *testing.T) {
	cases := []struct {
		points   int
		expected models.ConfidenceLevel
	}{
		{5, models.ConfidenceLow},
		{9, models.ConfidenceLow},
		{10, models.ConfidenceMedium},
		{19, models.ConfidenceMedium},
		{20, models.ConfidenceHigh},
		{50, models.ConfidenceHigh},
	}
	for _, tc := range cases {
		if got := classifyConfidence(tc.points); got != tc.expected {
			t.Fatalf("classifyConfidence(%d) expected %s, got %s", tc.points, tc.expected, got)
		}
	}
}

func TestComputeCorrelation_CoConsumptionCount(t *testing.T) {
	cfg := config.DefaultAnalyticsConfig()
	series := makeSeries(t,
		[]float64{10, 0, 9, 11, 13},
		[]float64{10, 12, 0, 11, 13})

	stats, skip := ComputeCorrelation(series, 2.5, cfg)
	if skip != SkipNone {
		t.Fatalf("unexpected skip %q", skip)
	}
	if stats.CoConsumptionCount != 3 {
		t.Fatalf("expected 3 co-consumption days, got %d", stats.CoConsumptionCount)
	}
	if stats.AverageGapDays != 2.5 {
		t.Fatalf("expected gap 2.5 to pass through, got %v", stats.AverageGapDays)
	}
}
