package analytics

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/inventory_backend/models"
)

// AlignedSeries holds two equal-length consumption series over the union of
// both items' record dates. A date where only one item has a record contributes
// an explicit zero for the other — skipping the date would silently shrink the
// sample and bias the coefficient.
type AlignedSeries struct {
	Dates []time.Time
	A     []float64
	B     []float64
}

func (s AlignedSeries) Len() int { return len(s.Dates) }

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AlignSeries builds the date-aligned consumption series for two record sets.
func AlignSeries(recordsA, recordsB []*models.ConsumptionRecord) AlignedSeries {
	qtyA := make(map[time.Time]float64, len(recordsA))
	qtyB := make(map[time.Time]float64, len(recordsB))
	dateSet := make(map[time.Time]bool, len(recordsA)+len(recordsB))

	for _, r := range recordsA {
		d := dateKey(r.RecordDate)
		qtyA[d] = r.ConsumedQty.InexactFloat64()
		dateSet[d] = true
	}
	for _, r := range recordsB {
		d := dateKey(r.RecordDate)
		qtyB[d] = r.ConsumedQty.InexactFloat64()
		dateSet[d] = true
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := AlignedSeries{
		Dates: dates,
		A:     make([]float64, len(dates)),
		B:     make([]float64, len(dates)),
	}
	for i, d := range dates {
		series.A[i] = qtyA[d] // zero when absent
		series.B[i] = qtyB[d]
	}
	return series
}

// CoConsumptionCount is the number of aligned days where both items show
// positive consumption.
func CoConsumptionCount(series AlignedSeries) int {
	count := 0
	for i := range series.Dates {
		if series.A[i] > 0 && series.B[i] > 0 {
			count++
		}
	}
	return count
}

// ConsumptionDates extracts the dates with positive consumption from a record set.
func ConsumptionDates(records []*models.ConsumptionRecord) []time.Time {
	var dates []time.Time
	for _, r := range records {
		if r.ConsumedQty.IsPositive() {
			dates = append(dates, dateKey(r.RecordDate))
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// AverageNearestGapDays pairs each consumption event of the sparser item with
// the nearest event of the other item and returns the mean absolute gap in days.
// Returns 0 when either item has no consumption events.
func AverageNearestGapDays(datesA, datesB []time.Time) float64 {
	if len(datesA) == 0 || len(datesB) == 0 {
		return 0
	}
	sparse, dense := datesA, datesB
	if len(datesB) < len(datesA) {
		sparse, dense = datesB, datesA
	}

	total := 0.0
	for _, d := range sparse {
		total += float64(nearestGapDays(d, dense))
	}
	return total / float64(len(sparse))
}

// nearestGapDays finds the smallest absolute day distance from d to any date in
// sorted.
func nearestGapDays(d time.Time, sorted []time.Time) int {
	idx := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Before(d) })
	best := -1
	if idx < len(sorted) {
		best = absDays(sorted[idx], d)
	}
	if idx > 0 {
		if gap := absDays(sorted[idx-1], d); best < 0 || gap < best {
			best = gap
		}
	}
	return best
}

func absDays(a, b time.Time) int {
	days := int(a.Sub(b).Hours() / 24)
	if days < 0 {
		return -days
	}
	return days
}
