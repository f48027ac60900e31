// Package colormap provides the color mapping machinery for the sprite
// viewer: named continuous colormaps, discrete custom palettes, display
// range scaling, and palette deduplication.
package colormap

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned when a requested palette size is non-positive
// or exceeds what a discrete colormap can provide.
var ErrInvalidSize = errors.New("colormap: invalid palette size")

// Color is a single color entry with normalized channel values in [0,1].
type Color struct {
	R, G, B, A float64
}

// Palette is an ordered, fixed-size sequence of color entries.
type Palette []Color

// Distinct reports whether all entries of the palette are pairwise
// distinct. Two entries are duplicates only when all four channel values
// are exactly equal.
func (p Palette) Distinct() bool {
	seen := make(map[Color]struct{}, len(p))
	for _, c := range p {
		if _, ok := seen[c]; ok {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}

// Colormap maps normalized scalar values to colors. Implementations are
// either continuous (Named) or fixed tables of entries (Discrete).
type Colormap interface {
	// Sample materializes k color entries from the colormap.
	Sample(k int) (Palette, error)

	// Size returns the number of native color slots, or 0 for a
	// continuous colormap.
	Size() int

	// String returns the colormap's display name.
	String() string
}

// Deduplicate materializes targetSize colors from src and checks them for
// duplicate entries. The returned palette always has exactly targetSize
// entries. The returned flag is the effective annotation setting: it equals
// allowAnnotation when every entry is unique, and is forced to false when
// any duplicates remain, since value annotation needs an unambiguous
// color-to-value mapping.
func Deduplicate(src Colormap, targetSize int, allowAnnotation bool) (Palette, bool, error) {
	palette, err := src.Sample(targetSize)
	if err != nil {
		return nil, false, fmt.Errorf("sampling %s at %d colors: %w", src, targetSize, err)
	}
	if !palette.Distinct() {
		return palette, false, nil
	}
	return palette, allowAnnotation, nil
}
