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

// BackgroundStats returns a robust display range for an anatomical
// background image: the 1st and 99th percentiles of its finite values.
// Clipping to this range hides scanner artifacts and hot voxels.
func BackgroundStats(v *models.Volume) (bgMin, bgMax float64) {
	vals := make([]float64, 0, len(v.Data))
	for _, val := range v.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		vals = append(vals, val)
	}
	if len(vals) == 0 {
		return 0, 0
	}
	sort.Float64s(vals)
	bgMin = stat.Quantile(0.01, stat.Empirical, vals, nil)
	bgMax = stat.Quantile(0.99, stat.Empirical, vals, nil)
	return bgMin, bgMax
}

// DetectBlackBackground guesses whether the image background is dark by
// looking at the border voxels of the volume, which are outside the head
// on any reasonable acquisition.
func DetectBlackBackground(v *models.Volume, bgMin, bgMax float64) bool {
	if bgMax <= bgMin {
		return true
	}
	border := make([]float64, 0, 2*(v.Nx*v.Ny+v.Ny*v.Nz+v.Nx*v.Nz))
	for z := 0; z < v.Nz; z++ {
		for y := 0; y < v.Ny; y++ {
			for x := 0; x < v.Nx; x++ {
				if x != 0 && x != v.Nx-1 && y != 0 && y != v.Ny-1 && z != 0 && z != v.Nz-1 {
					continue
				}
				val := v.At(x, y, z)
				if math.IsNaN(val) || math.IsInf(val, 0) {
					continue
				}
				border = append(border, val)
			}
		}
	}
	if len(border) == 0 {
		return true
	}
	sort.Float64s(border)
	median := stat.Quantile(0.5, stat.Empirical, border, nil)
	return (median-bgMin)/(bgMax-bgMin) < 0.5
}

// ResolveBlackBackground resolves the black_bg option: "auto" inspects the
// volume, "black"/"true" and "white"/"false" force the choice.
func ResolveBlackBackground(spec string, v *models.Volume, bgMin, bgMax float64) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(spec)) {
	case "", "auto":
		if v == nil {
			return true, nil
		}
		return DetectBlackBackground(v, bgMin, bgMax), nil
	case "black", "true":
		return true, nil
	case "white", "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid black background option %q (auto, black, white)", spec)
	}
}

// ResolveDim resolves the background dimming factor: "auto" picks a mild
// dimming for bright anatomy so the overlay stands out, and 0 for already
// dark images; a number in roughly [-2, 2] is used directly (positive
// dims, negative boosts contrast).
func ResolveDim(spec string, v *models.Volume, bgMin, bgMax float64) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" || s == "auto" {
		if v == nil || bgMax <= bgMin {
			return 0, nil
		}
		var sum float64
		var n int
		for _, val := range v.Data {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				continue
			}
			sum += (val - bgMin) / (bgMax - bgMin)
			n++
		}
		if n == 0 {
			return 0, nil
		}
		if sum/float64(n) > 0.5 {
			return 1, nil
		}
		return 0, nil
	}

	dim, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid dim factor %q: %v", spec, err)
	}
	return dim, nil
}
