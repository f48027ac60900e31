package colormap

import (
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Named is a continuous colormap defined by a list of color stops spread
// evenly over [0,1]. Colors between stops are interpolated in Lab space,
// which keeps the gradient perceptually even.
type Named struct {
	name  string
	stops []Color
}

// NewNamed builds a continuous colormap from at least two stops.
func NewNamed(name string, stops []Color) (Named, error) {
	if len(stops) < 2 {
		return Named{}, fmt.Errorf("colormap %q needs at least 2 stops, got %d", name, len(stops))
	}
	return Named{name: name, stops: stops}, nil
}

// At evaluates the colormap at t, clamped to [0,1].
func (n Named) At(t float64) Color {
	if t <= 0 {
		return n.stops[0]
	}
	if t >= 1 {
		return n.stops[len(n.stops)-1]
	}
	pos := t * float64(len(n.stops)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(n.stops) {
		return n.stops[len(n.stops)-1]
	}
	frac := pos - float64(lo)
	return blendLab(n.stops[lo], n.stops[hi], frac)
}

// Sample evaluates the colormap at k evenly spaced points across [0,1].
func (n Named) Sample(k int) (Palette, error) {
	if k <= 0 {
		return nil, ErrInvalidSize
	}
	out := make(Palette, k)
	if k == 1 {
		out[0] = n.At(0)
		return out, nil
	}
	for i := 0; i < k; i++ {
		out[i] = n.At(float64(i) / float64(k-1))
	}
	return out, nil
}

// Size returns 0: a continuous colormap has no native slot count.
func (n Named) Size() int { return 0 }

func (n Named) String() string { return n.name }

// blendLab interpolates between two colors in Lab space, with the alpha
// channel interpolated linearly.
func blendLab(a, b Color, t float64) Color {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	mix := ca.BlendLab(cb, t).Clamped()
	return Color{
		R: mix.R,
		G: mix.G,
		B: mix.B,
		A: a.A + t*(b.A-a.A),
	}
}

// rgb is a shorthand for an opaque color stop with 8-bit components.
func rgb(r, g, b uint8) Color {
	return Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: 1,
	}
}

// registry holds the named colormaps available through Lookup.
// Stop tables follow the usual matplotlib/nilearn renditions.
var registry = map[string]Named{
	"cold_hot": {name: "cold_hot", stops: []Color{
		rgb(0, 255, 255), rgb(0, 0, 255), rgb(127, 127, 127),
		rgb(255, 0, 0), rgb(255, 255, 0),
	}},
	"gray": {name: "gray", stops: []Color{
		rgb(0, 0, 0), rgb(255, 255, 255),
	}},
	"hot": {name: "hot", stops: []Color{
		rgb(11, 0, 0), rgb(255, 0, 0), rgb(255, 255, 0), rgb(255, 255, 255),
	}},
	"cool": {name: "cool", stops: []Color{
		rgb(0, 255, 255), rgb(255, 0, 255),
	}},
	"black_red": {name: "black_red", stops: []Color{
		rgb(0, 0, 0), rgb(255, 0, 0),
	}},
	"black_blue": {name: "black_blue", stops: []Color{
		rgb(0, 0, 0), rgb(0, 0, 255),
	}},
	"viridis": {name: "viridis", stops: []Color{
		rgb(68, 1, 84), rgb(72, 35, 116), rgb(64, 67, 135),
		rgb(52, 94, 141), rgb(41, 120, 142), rgb(32, 144, 140),
		rgb(34, 167, 132), rgb(68, 190, 112), rgb(121, 209, 81),
		rgb(189, 222, 38), rgb(253, 231, 37),
	}},
	"plasma": {name: "plasma", stops: []Color{
		rgb(13, 8, 135), rgb(84, 2, 163), rgb(139, 10, 165),
		rgb(185, 50, 137), rgb(219, 92, 104), rgb(244, 136, 73),
		rgb(254, 188, 43), rgb(240, 249, 33),
	}},
}

// Lookup resolves a colormap name against the registry.
func Lookup(name string) (Colormap, error) {
	cm, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q (available: %v)", name, Names())
	}
	return cm, nil
}

// Names returns the sorted list of registered colormap names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
