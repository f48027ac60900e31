// Package volume implements the volume-level operations of the sprite
// pipeline: thresholding and masking of statistical maps, background
// normalization, resampling between voxel grids, and cut selection.
package volume

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"brainsprite/internal/models"
)

// ParseThreshold resolves a threshold specification against the map data.
// Accepted forms:
//   - "" or "none": no thresholding (returns 0)
//   - "NN%": the NN-th percentile of the absolute values in data
//   - a number: used directly as an absolute-value threshold
func ParseThreshold(spec string, data []float64) (float64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "none") {
		return 0, nil
	}

	if strings.HasSuffix(spec, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(spec, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentile threshold %q: %v", spec, err)
		}
		if pct < 0 || pct > 100 {
			return 0, fmt.Errorf("percentile threshold %q outside [0%%, 100%%]", spec)
		}
		return absPercentile(data, pct), nil
	}

	value, err := strconv.ParseFloat(spec, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %v", spec, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("threshold must be non-negative, got %s", spec)
	}
	return value, nil
}

// absPercentile returns the pct-th percentile of the absolute values of the
// finite entries of data.
func absPercentile(data []float64, pct float64) float64 {
	abs := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		abs = append(abs, math.Abs(v))
	}
	if len(abs) == 0 {
		return 0
	}
	sort.Float64s(abs)
	return stat.Quantile(pct/100, stat.Empirical, abs, nil)
}

// Threshold applies an absolute-value display threshold to a statistical
// map. It returns a copy of the map with sub-threshold voxels zeroed, and
// a mask volume holding 1 for every voxel that should be transparent
// (sub-threshold or non-finite).
func Threshold(v *models.Volume, value float64) (thresholded, mask *models.Volume) {
	thresholded = v.Clone()
	mask = models.NewVolume(v.Nx, v.Ny, v.Nz, v.Affine)

	for i, val := range thresholded.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			thresholded.Data[i] = 0
			mask.Data[i] = 1
			continue
		}
		if math.Abs(val) <= value {
			thresholded.Data[i] = 0
			mask.Data[i] = 1
		}
	}
	return thresholded, mask
}

// SanitizeFinite replaces NaN and Inf voxels with zero, in place.
func SanitizeFinite(v *models.Volume) {
	for i, val := range v.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			v.Data[i] = 0
		}
	}
}
