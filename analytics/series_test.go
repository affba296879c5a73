package analytics

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
	"github.com/shopspring/decimal"
)

func record(itemId int, date time.Time, consumed float64) *models.ConsumptionRecord {
	return &models.ConsumptionRecord{
		ItemId:      itemId,
		RecordDate:  date,
		ConsumedQty: decimal.NewFromFloat(consumed),
	}
}

func TestAlignSeries_ZeroFillsMissingDates(t *testing.T) {
	d1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)

	recordsA := []*models.ConsumptionRecord{record(1, d1, 10), record(1, d2, 12)}
	recordsB := []*models.ConsumptionRecord{record(2, d2, 5), record(2, d3, 7)}

	series := AlignSeries(recordsA, recordsB)
	if series.Len() != 3 {
		t.Fatalf("expected union of 3 dates, got %d", series.Len())
	}
	wantA := []float64{10, 12, 0}
	wantB := []float64{0, 5, 7}
	for i := range wantA {
		if series.A[i] != wantA[i] || series.B[i] != wantB[i] {
			t.Fatalf("position %d: got A=%v B=%v, want A=%v B=%v",
				i, series.A[i], series.B[i], wantA[i], wantB[i])
		}
	}
}

func TestAlignSeries_NormalizesTimestampsToDates(t *testing.T) {
	morning := time.Date(2026, 8, 1, 8, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 1, 22, 0, 0, 0, time.UTC)

	series := AlignSeries(
		[]*models.ConsumptionRecord{record(1, morning, 3)},
		[]*models.ConsumptionRecord{record(2, evening, 4)},
	)
	if series.Len() != 1 {
		t.Fatalf("same calendar day must align to one entry, got %d", series.Len())
	}
	if series.A[0] != 3 || series.B[0] != 4 {
		t.Fatalf("got A=%v B=%v", series.A[0], series.B[0])
	}
}

func TestCoConsumptionCount(t *testing.T) {
	series := AlignedSeries{
		Dates: make([]time.Time, 4),
		A:     []float64{1, 0, 2, 3},
		B:     []float64{1, 1, 0, 3},
	}
	if got := CoConsumptionCount(series); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestConsumptionDates_SkipsZeroDays(t *testing.T) {
	d1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []*models.ConsumptionRecord{
		record(1, d1, 5),
		record(1, d1.AddDate(0, 0, 1), 0),
		record(1, d1.AddDate(0, 0, 2), 3),
	}
	dates := ConsumptionDates(records)
	if len(dates) != 2 {
		t.Fatalf("expected 2 consumption dates, got %d", len(dates))
	}
	if !dates[0].Equal(d1) || !dates[1].Equal(d1.AddDate(0, 0, 2)) {
		t.Fatalf("unexpected dates %v", dates)
	}
}

func TestAverageNearestGapDays(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return base.AddDate(0, 0, n) }

	cases := []struct {
		name     string
		a, b     []time.Time
		expected float64
	}{
		{"same days", []time.Time{day(0), day(2)}, []time.Time{day(0), day(2)}, 0},
		{"sparser side drives", []time.Time{day(1), day(5)}, []time.Time{day(2)}, 1},
		{"mean of nearest gaps", []time.Time{day(0), day(10)}, []time.Time{day(1), day(7)}, 2},
		{"empty side", nil, []time.Time{day(1)}, 0},
	}
	for _, tc := range cases {
		if got := AverageNearestGapDays(tc.a, tc.b); got != tc.expected {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}
