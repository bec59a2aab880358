package stock

import "testing"

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		stock     int
		threshold int
		want      Level
	}{
		{stock: 10, threshold: 10, want: LevelLow},
		{stock: 11, threshold: 10, want: LevelMedium},
		{stock: 20, threshold: 10, want: LevelMedium},
		{stock: 21, threshold: 10, want: LevelHigh},
		{stock: 0, threshold: 10, want: LevelLow},
		{stock: -3, threshold: 10, want: LevelLow},
		{stock: 5, threshold: 10, want: LevelLow},
		{stock: 0, threshold: 0, want: LevelLow},
		{stock: 1, threshold: 0, want: LevelHigh},
	}

	for _, tt := range tests {
		if got := Classify(tt.stock, tt.threshold); got != tt.want {
			t.Errorf("Classify(%d, %d) = %s, want %s", tt.stock, tt.threshold, got, tt.want)
		}
	}
}

func TestClassify_MatchesDefinitionForRange(t *testing.T) {
	for threshold := 0; threshold <= 25; threshold++ {
		for s := -5; s <= 60; s++ {
			got := Classify(s, threshold)

			var want Level
			switch {
			case s <= threshold:
				want = LevelLow
			case s <= 2*threshold:
				want = LevelMedium
			default:
				want = LevelHigh
			}
			if got != want {
				t.Fatalf("Classify(%d, %d) = %s, want %s", s, threshold, got, want)
			}
			if IsLow(s, threshold) != (got == LevelLow) {
				t.Fatalf("IsLow(%d, %d) disagrees with Classify", s, threshold)
			}
		}
	}
}

func TestApplyDelta_SequentialEqualsSum(t *testing.T) {
	current := 50
	for _, delta := range []int{5, -3, 2} {
		current = ApplyDelta(current, delta).NewStock
	}

	single := ApplyDelta(50, 4).NewStock
	if current != single {
		t.Fatalf("sequential=%d, single=%d", current, single)
	}
	if current != 54 {
		t.Fatalf("expected 54, got %d", current)
	}
}

func TestApplyDelta_NegativeIsFlaggedNotClamped(t *testing.T) {
	change := ApplyDelta(3, -5)

	if change.NewStock != -2 {
		t.Fatalf("expected -2, got %d", change.NewStock)
	}
	if !change.Negative {
		t.Fatal("expected Negative flag")
	}
	if change.Previous != 3 || change.Delta != -5 {
		t.Fatalf("unexpected change: %+v", change)
	}

	if ApplyDelta(5, -5).Negative {
		t.Fatal("zero stock must not be flagged negative")
	}
}

func TestParseLevel(t *testing.T) {
	for _, v := range []string{"low", "medium", "high"} {
		if lvl, ok := ParseLevel(v); !ok || string(lvl) != v {
			t.Fatalf("ParseLevel(%q) = %q, %v", v, lvl, ok)
		}
	}
	for _, v := range []string{"", "all", "LOW"} {
		if _, ok := ParseLevel(v); ok {
			t.Fatalf("ParseLevel(%q) must fail", v)
		}
	}
}
