package utils

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b     time.Time
		expected int
	}{
		{time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 8, 1, 23, 0, 0, 0, time.UTC), time.Date(2026, 8, 2, 1, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), -9},
	}
	for _, tc := range cases {
		if got := DaysBetween(tc.a, tc.b); got != tc.expected {
			t.Fatalf("DaysBetween(%v, %v) expected %d, got %d", tc.a, tc.b, tc.expected, got)
		}
	}
}

func TestConvertToDate(t *testing.T) {
	in := time.Date(2026, 8, 15, 17, 45, 12, 999, time.UTC)
	got, err := ConvertToDate(in, "")
	if err != nil {
		t.Fatalf("ConvertToDate error: %v", err)
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("  12.50 ")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	if d.String() != "12.5" {
		t.Fatalf("expected 12.5, got %s", d.String())
	}
	if _, err := ParseDecimal(""); err == nil {
		t.Fatal("expected error for empty string")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected error for non-numeric string")
	}
}

func TestNilIfEmpty(t *testing.T) {
	if NilIfEmpty("") != nil {
		t.Fatal("empty string must map to nil")
	}
	if p := NilIfEmpty("x"); p == nil || *p != "x" {
		t.Fatalf("expected pointer to x, got %v", p)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
