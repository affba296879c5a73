package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestConsumptionRecord_BeforeSaveDerivesClosingQty(t *testing.T) {
	record := ConsumptionRecord{
		RecordDate:  time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		OpeningQty:  decimal.NewFromInt(100),
		ReceivedQty: decimal.NewFromInt(20),
		ConsumedQty: decimal.NewFromInt(35),
	}
	if err := record.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave error: %v", err)
	}
	if !record.ClosingQty.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("expected closing 85, got %s", record.ClosingQty)
	}
}

func TestConsumptionRecord_BeforeSaveNormalizesDate(t *testing.T) {
	record := ConsumptionRecord{
		RecordDate: time.Date(2026, 8, 15, 17, 45, 12, 0, time.UTC),
	}
	if err := record.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave error: %v", err)
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !record.RecordDate.Equal(want) {
		t.Fatalf("expected %v, got %v", want, record.RecordDate)
	}
}

func TestConsumptionRecord_PerCapitaOnlyWithEmployees(t *testing.T) {
	count := 50
	record := ConsumptionRecord{
		RecordDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		ConsumedQty:   decimal.NewFromInt(25),
		EmployeeCount: &count,
	}
	if err := record.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave error: %v", err)
	}
	if record.ConsumptionPerCapita == nil || !record.ConsumptionPerCapita.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("expected per-capita 0.5, got %v", record.ConsumptionPerCapita)
	}

	zero := 0
	cases := []*int{nil, &zero}
	for _, employeeCount := range cases {
		record := ConsumptionRecord{
			RecordDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			ConsumedQty:   decimal.NewFromInt(25),
			EmployeeCount: employeeCount,
		}
		if err := record.BeforeSave(nil); err != nil {
			t.Fatalf("BeforeSave error: %v", err)
		}
		if record.ConsumptionPerCapita != nil {
			t.Fatalf("per-capita must be undefined without a positive employee count, got %v",
				record.ConsumptionPerCapita)
		}
	}
}
