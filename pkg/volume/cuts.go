package volume

import (
	"fmt"
	"math"

	"brainsprite/internal/models"
)

// CutSlices resolves the initial crosshair position to voxel indices, one
// per axis (X, Y, Z). An explicit cut is given in world coordinates and
// mapped through the affine; a nil cut is placed at the intensity-weighted
// center of mass of the absolute map, or at the volume center when the map
// is empty.
func CutSlices(v *models.Volume, cut *models.Cut) ([3]int, error) {
	if cut != nil {
		x, y, z, err := v.WorldToVoxel(cut.X, cut.Y, cut.Z)
		if err != nil {
			return [3]int{}, fmt.Errorf("failed to map cut coordinates: %v", err)
		}
		return [3]int{
			clampIndex(int(math.Round(x)), v.Nx),
			clampIndex(int(math.Round(y)), v.Ny),
			clampIndex(int(math.Round(z)), v.Nz),
		}, nil
	}

	var wx, wy, wz, total float64
	for z := 0; z < v.Nz; z++ {
		for y := 0; y < v.Ny; y++ {
			for x := 0; x < v.Nx; x++ {
				w := math.Abs(v.At(x, y, z))
				if math.IsNaN(w) || math.IsInf(w, 0) {
					continue
				}
				wx += w * float64(x)
				wy += w * float64(y)
				wz += w * float64(z)
				total += w
			}
		}
	}

	if total == 0 {
		return [3]int{v.Nx / 2, v.Ny / 2, v.Nz / 2}, nil
	}
	return [3]int{
		clampIndex(int(math.Round(wx/total)), v.Nx),
		clampIndex(int(math.Round(wy/total)), v.Ny),
		clampIndex(int(math.Round(wz/total)), v.Nz),
	}, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
