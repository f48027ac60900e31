package colormap

import "math"

// ScaleOptions controls how the display range of a statistical map is
// derived from its data. Vmax and Vmin may be NaN to request automatic
// selection.
type ScaleOptions struct {
	// Symmetric makes the range symmetric around zero, from -Vmax to
	// Vmax, as appropriate for signed statistical maps.
	Symmetric bool

	// Vmax is the value mapped to the top of the colormap.
	// NaN selects max|x| when Symmetric, max(x) otherwise.
	Vmax float64

	// Vmin is the value mapped to the bottom of the colormap. Ignored
	// when Symmetric (always -Vmax). NaN selects min(x), or 0 when a
	// threshold is active.
	Vmin float64

	// Threshold is the absolute-value display threshold already resolved
	// to a number (0 disables thresholding).
	Threshold float64
}

// Scale maps statistical values onto the normalized [0,1] colormap domain.
type Scale struct {
	Vmin, Vmax float64
	Symmetric  bool
	Threshold  float64
}

// NewScale derives the display range for data under the given options.
// Non-finite values in data are ignored.
func NewScale(data []float64, opts ScaleOptions) Scale {
	var min, max, absMax float64
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		if a := math.Abs(v); a > absMax {
			absMax = a
		}
	}
	if min > max {
		min, max = 0, 0
	}

	s := Scale{Symmetric: opts.Symmetric, Threshold: opts.Threshold}
	if opts.Symmetric {
		s.Vmax = absMax
		if !math.IsNaN(opts.Vmax) {
			s.Vmax = opts.Vmax
		}
		s.Vmin = -s.Vmax
		return s
	}

	s.Vmax = max
	if !math.IsNaN(opts.Vmax) {
		s.Vmax = opts.Vmax
	}
	switch {
	case !math.IsNaN(opts.Vmin):
		s.Vmin = opts.Vmin
	case opts.Threshold > 0:
		s.Vmin = 0
	default:
		s.Vmin = min
	}
	return s
}

// Normalize maps v onto [0,1] within the scale's range, clamping values
// outside it. A degenerate range maps everything to 0.
func (s Scale) Normalize(v float64) float64 {
	if s.Vmax <= s.Vmin {
		return 0
	}
	t := (v - s.Vmin) / (s.Vmax - s.Vmin)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
