package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPopulateExcelRow(t *testing.T) {
	row := []string{"RICE-001", "2026-08-15", "100", "20", "35", "Kitchen A", "120"}

	parsed, err := populateExcelRow(row)
	if err != nil {
		t.Fatalf("populateExcelRow error: %v", err)
	}
	if parsed.Sku != "RICE-001" {
		t.Fatalf("expected sku RICE-001, got %s", parsed.Sku)
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !parsed.RecordDate.Equal(want) {
		t.Fatalf("expected date %v, got %v", want, parsed.RecordDate)
	}
	if !parsed.ConsumedQty.Equal(decimal.NewFromInt(35)) {
		t.Fatalf("expected consumed 35, got %s", parsed.ConsumedQty)
	}
	if parsed.CostCenter == nil || *parsed.CostCenter != "Kitchen A" {
		t.Fatalf("expected cost center Kitchen A, got %v", parsed.CostCenter)
	}
	if parsed.EmployeeCount == nil || *parsed.EmployeeCount != 120 {
		t.Fatalf("expected employee count 120, got %v", parsed.EmployeeCount)
	}
}

func TestPopulateExcelRow_OptionalColumns(t *testing.T) {
	parsed, err := populateExcelRow([]string{"OIL-001", "2026-08-15", "", "", "4.5"})
	if err != nil {
		t.Fatalf("populateExcelRow error: %v", err)
	}
	if !parsed.OpeningQty.IsZero() || !parsed.ReceivedQty.IsZero() {
		t.Fatal("blank quantity cells must parse as zero")
	}
	if parsed.CostCenter != nil || parsed.EmployeeCount != nil {
		t.Fatal("missing optional columns must stay nil")
	}
}

func TestPopulateExcelRow_Invalid(t *testing.T) {
	cases := []struct {
		name string
		row  []string
		want string
	}{
		{"too few columns", []string{"SKU", "2026-08-15"}, "too few columns"},
		{"empty sku", []string{" ", "2026-08-15", "1", "1", "1"}, "sku is empty"},
		{"bad date", []string{"SKU", "15/08/2026", "1", "1", "1"}, "could not parse date"},
		{"bad quantity", []string{"SKU", "2026-08-15", "abc", "1", "1"}, "could not parse opening"},
		{"negative consumed", []string{"SKU", "2026-08-15", "1", "1", "-5"}, "cannot be negative"},
		{"bad employee count", []string{"SKU", "2026-08-15", "1", "1", "1", "", "-3"}, "invalid employee count"},
	}
	for _, tc := range cases {
		_, err := populateExcelRow(tc.row)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %q", tc.name, tc.want, err.Error())
		}
	}
}
