package models

import "testing"

func TestCanonicalPair(t *testing.T) {
	cases := []struct {
		a, b         int
		want1, want2 int
	}{
		{1, 2, 1, 2},
		{2, 1, 1, 2},
		{7, 7, 7, 7},
		{100, 3, 3, 100},
	}
	for _, tc := range cases {
		got1, got2 := CanonicalPair(tc.a, tc.b)
		if got1 != tc.want1 || got2 != tc.want2 {
			t.Fatalf("CanonicalPair(%d, %d) = (%d, %d), want (%d, %d)",
				tc.a, tc.b, got1, got2, tc.want1, tc.want2)
		}
	}
}

func TestItemCorrelation_BeforeSaveCanonicalizes(t *testing.T) {
	corr := ItemCorrelation{Item1Id: 9, Item2Id: 4}
	if err := corr.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave error: %v", err)
	}
	if corr.Item1Id != 4 || corr.Item2Id != 9 {
		t.Fatalf("expected canonical (4, 9), got (%d, %d)", corr.Item1Id, corr.Item2Id)
	}
	if corr.IsActive == nil || !*corr.IsActive {
		t.Fatal("expected IsActive to default to true")
	}
}
