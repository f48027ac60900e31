package colormap

import (
	"math"
	"testing"
)

// TestNewScaleSymmetric verifies that a symmetric scale spans -max|x| to
// max|x| regardless of the data's sign balance.
func TestNewScaleSymmetric(t *testing.T) {
	data := []float64{-3, -1, 0, 2}

	s := NewScale(data, ScaleOptions{Symmetric: true, Vmax: math.NaN(), Vmin: math.NaN()})

	if s.Vmax != 3 {
		t.Errorf("Expected vmax 3, got %f", s.Vmax)
	}
	if s.Vmin != -3 {
		t.Errorf("Expected vmin -3, got %f", s.Vmin)
	}
}

// TestNewScaleExplicitVmax verifies that an explicit vmax overrides the
// data-derived range, and forces vmin in the symmetric case.
func TestNewScaleExplicitVmax(t *testing.T) {
	data := []float64{-10, 10}

	s := NewScale(data, ScaleOptions{Symmetric: true, Vmax: 4, Vmin: math.NaN()})

	if s.Vmax != 4 || s.Vmin != -4 {
		t.Errorf("Expected range [-4, 4], got [%f, %f]", s.Vmin, s.Vmax)
	}
}

// TestNewScaleThresholdedVmin verifies that a positive-only scale with an
// active threshold starts its range at zero rather than the data minimum.
func TestNewScaleThresholdedVmin(t *testing.T) {
	data := []float64{2, 3, 9}

	s := NewScale(data, ScaleOptions{Vmax: math.NaN(), Vmin: math.NaN(), Threshold: 2.5})

	if s.Vmin != 0 {
		t.Errorf("Expected vmin 0 with an active threshold, got %f", s.Vmin)
	}
	if s.Vmax != 9 {
		t.Errorf("Expected vmax 9, got %f", s.Vmax)
	}
}

// TestNewScaleIgnoresNonFinite verifies that NaN and Inf values do not
// contribute to the derived range.
func TestNewScaleIgnoresNonFinite(t *testing.T) {
	data := []float64{math.NaN(), math.Inf(1), -1, 5}

	s := NewScale(data, ScaleOptions{Vmax: math.NaN(), Vmin: math.NaN()})

	if s.Vmin != -1 || s.Vmax != 5 {
		t.Errorf("Expected range [-1, 5], got [%f, %f]", s.Vmin, s.Vmax)
	}
}

// TestNormalize verifies clamping and linear mapping onto [0,1].
func TestNormalize(t *testing.T) {
	s := Scale{Vmin: -2, Vmax: 2}

	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{-2, 0},
		{0, 0.5},
		{2, 1},
		{9, 1},
	}

	for _, tc := range cases {
		got := s.Normalize(tc.in)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Normalize(%f): expected %f, got %f", tc.in, tc.want, got)
		}
	}

	// Degenerate range maps everything to 0
	degenerate := Scale{Vmin: 1, Vmax: 1}
	if got := degenerate.Normalize(1); got != 0 {
		t.Errorf("Expected degenerate range to normalize to 0, got %f", got)
	}
}
