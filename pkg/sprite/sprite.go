// Package sprite rasterizes 3D volumes into the sprite-sheet PNG images
// consumed by the brainsprite JavaScript viewer: a mosaic of sagittal
// slices for the statistical map and the anatomical background, plus a
// colormap strip for the colorbar.
package sprite

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"

	"brainsprite/internal/models"
	"brainsprite/pkg/colormap"
)

// Layout describes how sagittal slices are arranged on a sprite sheet.
// The viewer reconstructs slice positions from the cell dimensions, so
// both sides need to agree on this arrangement.
type Layout struct {
	// Rows and Cols of the slice grid
	Rows, Cols int

	// CellWidth and CellHeight are the pixel dimensions of one slice
	// cell: the volume's Y and Z extents
	CellWidth, CellHeight int
}

// MosaicLayout computes the near-square grid used for a volume's sagittal
// slices: one cell per X index, row count ceil(sqrt(Nx)).
func MosaicLayout(v *models.Volume) Layout {
	rows := int(math.Ceil(math.Sqrt(float64(v.Nx))))
	cols := int(math.Ceil(float64(v.Nx) / float64(rows)))
	return Layout{
		Rows:       rows,
		Cols:       cols,
		CellWidth:  v.Ny,
		CellHeight: v.Nz,
	}
}

// cellOrigin returns the top-left pixel of slice i on the sheet.
func (l Layout) cellOrigin(i int) image.Point {
	return image.Pt((i%l.Cols)*l.CellWidth, (i/l.Cols)*l.CellHeight)
}

// drawSlice renders sagittal slice x of the volume through colorize, which
// maps a voxel value to a pixel. Cells are drawn with Y to the right and Z
// up, which is the orientation the viewer expects.
func drawSlice(v *models.Volume, x int, colorize func(x, y, z int) color.NRGBA) *image.NRGBA {
	cell := image.NewNRGBA(image.Rect(0, 0, v.Ny, v.Nz))
	for z := 0; z < v.Nz; z++ {
		for y := 0; y < v.Ny; y++ {
			cell.SetNRGBA(y, v.Nz-1-z, colorize(x, y, z))
		}
	}
	return cell
}

// sheet assembles all sagittal slices of v into a single sprite image.
func sheet(v *models.Volume, colorize func(x, y, z int) color.NRGBA) *image.NRGBA {
	layout := MosaicLayout(v)
	out := imaging.New(layout.Cols*layout.CellWidth, layout.Rows*layout.CellHeight,
		color.NRGBA{0, 0, 0, 0})
	for x := 0; x < v.Nx; x++ {
		out = imaging.Paste(out, drawSlice(v, x, colorize), layout.cellOrigin(x))
	}
	return out
}

// DrawStatMap renders the statistical map sprite. Voxel values are mapped
// through the scale onto the palette; voxels flagged in the mask are fully
// transparent. The opacity factor applies to every visible voxel.
func DrawStatMap(v, mask *models.Volume, scale colormap.Scale, pal colormap.Palette,
	opacity float64) (*image.NRGBA, error) {
	if len(pal) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if mask != nil && (mask.Nx != v.Nx || mask.Ny != v.Ny || mask.Nz != v.Nz) {
		return nil, fmt.Errorf("mask dimensions %dx%dx%d do not match map %dx%dx%d",
			mask.Nx, mask.Ny, mask.Nz, v.Nx, v.Ny, v.Nz)
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity %f outside [0,1]", opacity)
	}

	return sheet(v, func(x, y, z int) color.NRGBA {
		if mask != nil && mask.At(x, y, z) != 0 {
			return color.NRGBA{}
		}
		t := scale.Normalize(v.At(x, y, z))
		idx := int(t * float64(len(pal)))
		if idx >= len(pal) {
			idx = len(pal) - 1
		}
		c := pal[idx]
		return color.NRGBA{
			R: channelByte(c.R),
			G: channelByte(c.G),
			B: channelByte(c.B),
			A: channelByte(c.A * opacity),
		}
	}), nil
}

// DrawBackground renders the anatomical background sprite in grayscale,
// clipping values to the robust [bgMin, bgMax] range. A non-zero dim
// factor darkens (positive) or brightens (negative) the sheet.
func DrawBackground(v *models.Volume, bgMin, bgMax, dim float64) (*image.NRGBA, error) {
	if bgMax <= bgMin {
		return nil, fmt.Errorf("invalid background range [%f, %f]", bgMin, bgMax)
	}

	out := sheet(v, func(x, y, z int) color.NRGBA {
		val := v.At(x, y, z)
		if math.IsNaN(val) || math.IsInf(val, 0) {
			val = bgMin
		}
		t := (val - bgMin) / (bgMax - bgMin)
		g := channelByte(t)
		return color.NRGBA{R: g, G: g, B: g, A: 255}
	})

	if dim != 0 {
		change := -0.25 * dim
		if change > 1 {
			change = 1
		}
		if change < -1 {
			change = -1
		}
		out = imaging.Clone(adjust.Brightness(out, change))
	}
	return out, nil
}

// channelByte converts a normalized channel value to its 8-bit form,
// clamping to [0,1].
func channelByte(t float64) uint8 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 255
	}
	return uint8(t*255 + 0.5)
}
