package testutil

import (
	"math"
	"testing"
)

func TestMaxAbsDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"one bin off", []float64{1, 2, 3}, []float64{1, 2.5, 3}, 0.5},
		{"identical", Ramp(0, 8), Ramp(0, 8), 0},
		{"sign", []float64{-1}, []float64{1}, 2},
	}
	for _, tt := range tests {
		d, err := MaxAbsDiff(tt.a, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if math.Abs(d-tt.want) > 1e-15 {
			t.Fatalf("%s: MaxAbsDiff=%v want %v", tt.name, d, tt.want)
		}
	}
}

func TestMaxAbsDiffLengthMismatch(t *testing.T) {
	if _, err := MaxAbsDiff([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestRequireNearlyEqualRelative(t *testing.T) {
	RequireNearlyEqual(t, 1e6+0.5, 1e6, 1e-6)
	RequireNearlyEqual(t, 1e-9, 0, 1e-8)
	RequireFinite(t, Ramp(-3, 5))
}
