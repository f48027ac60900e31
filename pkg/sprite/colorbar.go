package sprite

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"brainsprite/pkg/colormap"
)

// DrawColormap renders a palette as a horizontal color strip of the given
// pixel dimensions, one band per palette entry. The strip is what the
// viewer samples to draw its colorbar, so bands are kept sharp by
// nearest-neighbour upscaling rather than smoothed.
func DrawColormap(pal colormap.Palette, width, height int) (*image.NRGBA, error) {
	if len(pal) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid colormap strip size %dx%d", width, height)
	}

	strip := image.NewNRGBA(image.Rect(0, 0, len(pal), 1))
	for i, c := range pal {
		strip.SetNRGBA(i, 0, toNRGBA(c))
	}
	return imaging.Resize(strip, width, height, imaging.NearestNeighbor), nil
}
