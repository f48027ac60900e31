package volume

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"brainsprite/internal/models"
)

// Interpolation selects the resampling method.
type Interpolation int

const (
	// Continuous is trilinear interpolation between the eight
	// neighbouring voxels. It is the right choice for statistical maps.
	Continuous Interpolation = iota

	// Nearest takes the value of the closest voxel, preserving discrete
	// values such as masks and atlas labels.
	Nearest
)

// ParseInterpolation resolves an interpolation name. "linear" is accepted
// as an alias for "continuous".
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "continuous", "linear":
		return Continuous, nil
	case "nearest":
		return Nearest, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q (continuous, linear, nearest)", name)
	}
}

// Resample maps src onto the voxel grid of ref, going through world
// coordinates: for every ref voxel, the corresponding src voxel is found
// via the two affines and interpolated. Voxels falling outside src are 0.
func Resample(src, ref *models.Volume, interp Interpolation) (*models.Volume, error) {
	var srcInv mat.Dense
	if err := srcInv.Inverse(src.Affine); err != nil {
		return nil, fmt.Errorf("source affine is not invertible: %v", err)
	}

	// Composed ref-voxel to src-voxel transform.
	var m mat.Dense
	m.Mul(&srcInv, ref.Affine)

	out := models.NewVolume(ref.Nx, ref.Ny, ref.Nz, ref.Affine)
	for z := 0; z < ref.Nz; z++ {
		for y := 0; y < ref.Ny; y++ {
			for x := 0; x < ref.Nx; x++ {
				fx := float64(x)
				fy := float64(y)
				fz := float64(z)
				sx := m.At(0, 0)*fx + m.At(0, 1)*fy + m.At(0, 2)*fz + m.At(0, 3)
				sy := m.At(1, 0)*fx + m.At(1, 1)*fy + m.At(1, 2)*fz + m.At(1, 3)
				sz := m.At(2, 0)*fx + m.At(2, 1)*fy + m.At(2, 2)*fz + m.At(2, 3)

				var val float64
				switch interp {
				case Nearest:
					val = sampleNearest(src, sx, sy, sz)
				default:
					val = sampleTrilinear(src, sx, sy, sz)
				}
				out.Set(x, y, z, val)
			}
		}
	}
	return out, nil
}

// sampleNearest reads the voxel closest to the fractional coordinate,
// or 0 outside the volume.
func sampleNearest(v *models.Volume, x, y, z float64) float64 {
	xi := int(math.Round(x))
	yi := int(math.Round(y))
	zi := int(math.Round(z))
	if !v.In(xi, yi, zi) {
		return 0
	}
	return v.At(xi, yi, zi)
}

// sampleTrilinear interpolates between the eight voxels surrounding the
// fractional coordinate. Neighbours outside the volume contribute 0.
func sampleTrilinear(v *models.Volume, x, y, z float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	z0 := int(math.Floor(z))
	tx := x - float64(x0)
	ty := y - float64(y0)
	tz := z - float64(z0)

	if x0 < -1 || x0 > v.Nx-1 || y0 < -1 || y0 > v.Ny-1 || z0 < -1 || z0 > v.Nz-1 {
		return 0
	}

	var sum float64
	for dz := 0; dz <= 1; dz++ {
		wz := tz
		if dz == 0 {
			wz = 1 - tz
		}
		for dy := 0; dy <= 1; dy++ {
			wy := ty
			if dy == 0 {
				wy = 1 - ty
			}
			for dx := 0; dx <= 1; dx++ {
				wx := tx
				if dx == 0 {
					wx = 1 - tx
				}
				xi, yi, zi := x0+dx, y0+dy, z0+dz
				if !v.In(xi, yi, zi) {
					continue
				}
				sum += wx * wy * wz * v.At(xi, yi, zi)
			}
		}
	}
	return sum
}
