package volume

import (
	"math"
	"testing"

	"brainsprite/internal/models"
)

// TestParseThreshold verifies numeric, percentile and disabled forms.
func TestParseThreshold(t *testing.T) {
	data := []float64{-4, -3, -2, -1, 0, 1, 2, 3, 4, 5}

	cases := []struct {
		spec string
		want float64
	}{
		{"", 0},
		{"none", 0},
		{"2.5", 2.5},
		{"100%", 5},
	}

	for _, tc := range cases {
		got, err := ParseThreshold(tc.spec, data)
		if err != nil {
			t.Errorf("ParseThreshold(%q) failed: %v", tc.spec, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("ParseThreshold(%q): expected %f, got %f", tc.spec, tc.want, got)
		}
	}

	// The 50th percentile of the absolute values must lie inside their range.
	mid, err := ParseThreshold("50%", data)
	if err != nil {
		t.Fatalf("ParseThreshold(50%%) failed: %v", err)
	}
	if mid < 0 || mid > 5 {
		t.Errorf("Expected 50%% threshold within [0, 5], got %f", mid)
	}

	for _, bad := range []string{"abc", "-1", "12x%", "150%"} {
		if _, err := ParseThreshold(bad, data); err == nil {
			t.Errorf("Expected error for threshold %q, got nil", bad)
		}
	}
}

// TestThreshold verifies that sub-threshold and non-finite voxels are
// zeroed and marked in the mask, and everything else is untouched.
func TestThreshold(t *testing.T) {
	v := models.NewVolume(2, 2, 1, nil)
	v.Data = []float64{3, -0.5, math.NaN(), -2}

	thresholded, mask := Threshold(v, 1)

	wantData := []float64{3, 0, 0, -2}
	wantMask := []float64{0, 1, 1, 0}
	for i := range wantData {
		if thresholded.Data[i] != wantData[i] {
			t.Errorf("Voxel %d: expected %f, got %f", i, wantData[i], thresholded.Data[i])
		}
		if mask.Data[i] != wantMask[i] {
			t.Errorf("Mask %d: expected %f, got %f", i, wantMask[i], mask.Data[i])
		}
	}

	// The input volume must not be modified
	if !math.IsNaN(v.Data[2]) {
		t.Error("Threshold modified its input volume")
	}
}

// TestSanitizeFinite verifies in-place NaN/Inf replacement.
func TestSanitizeFinite(t *testing.T) {
	v := models.NewVolume(2, 1, 1, nil)
	v.Data = []float64{math.Inf(-1), 7}

	SanitizeFinite(v)

	if v.Data[0] != 0 {
		t.Errorf("Expected Inf replaced by 0, got %f", v.Data[0])
	}
	if v.Data[1] != 7 {
		t.Errorf("Expected finite voxel untouched, got %f", v.Data[1])
	}
}
