package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Volume represents a 3D scalar image volume, such as a statistical brain map
// or an anatomical background image.
type Volume struct {
	// Data is the voxel data as a 1D array in row-major order with the
	// X index varying fastest, matching the NIfTI on-disk layout:
	// index = (z*Ny + y)*Nx + x
	Data []float64

	// Nx, Ny, Nz are the dimensions of the volume in voxels
	Nx, Ny, Nz int

	// Affine is the 4x4 voxel-to-world coordinate transform.
	// World coordinates are in mm.
	Affine *mat.Dense
}

// Axis identifies one of the three anatomical slicing directions.
type Axis int

const (
	// Sagittal slices are taken along the X axis
	Sagittal Axis = iota

	// Coronal slices are taken along the Y axis
	Coronal

	// Axial slices are taken along the Z axis
	Axial
)

// Cut holds world-space (mm) coordinates where the viewer crosshair
// is initially placed.
type Cut struct {
	X, Y, Z float64
}

// NewVolume allocates a zero-filled volume with the given dimensions and
// voxel-to-world transform. A nil affine defaults to identity spacing with
// the origin at voxel (0,0,0).
func NewVolume(nx, ny, nz int, affine *mat.Dense) *Volume {
	if affine == nil {
		affine = IdentityAffine()
	}
	return &Volume{
		Data:   make([]float64, nx*ny*nz),
		Nx:     nx,
		Ny:     ny,
		Nz:     nz,
		Affine: affine,
	}
}

// IdentityAffine returns a 4x4 identity transform (1mm isotropic voxels).
func IdentityAffine() *mat.Dense {
	a := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		a.Set(i, i, 1)
	}
	return a
}

// ScalingAffine returns a diagonal voxel-to-world transform with the given
// voxel spacings in mm.
func ScalingAffine(sx, sy, sz float64) *mat.Dense {
	a := mat.NewDense(4, 4, nil)
	a.Set(0, 0, sx)
	a.Set(1, 1, sy)
	a.Set(2, 2, sz)
	a.Set(3, 3, 1)
	return a
}

// Idx returns the flat index of voxel (x, y, z).
func (v *Volume) Idx(x, y, z int) int {
	return (z*v.Ny+y)*v.Nx + x
}

// At returns the value of voxel (x, y, z).
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[v.Idx(x, y, z)]
}

// Set assigns the value of voxel (x, y, z).
func (v *Volume) Set(x, y, z int, value float64) {
	v.Data[v.Idx(x, y, z)] = value
}

// In reports whether the voxel coordinate lies inside the volume.
func (v *Volume) In(x, y, z int) bool {
	return x >= 0 && x < v.Nx && y >= 0 && y < v.Ny && z >= 0 && z < v.Nz
}

// Len returns the number of voxels in the volume.
func (v *Volume) Len() int {
	return v.Nx * v.Ny * v.Nz
}

// Clone returns a deep copy of the volume, including its affine.
func (v *Volume) Clone() *Volume {
	out := &Volume{
		Data:   make([]float64, len(v.Data)),
		Nx:     v.Nx,
		Ny:     v.Ny,
		Nz:     v.Nz,
		Affine: mat.DenseCopyOf(v.Affine),
	}
	copy(out.Data, v.Data)
	return out
}

// MinMax returns the smallest and largest finite voxel values.
// A volume with no finite values returns (0, 0).
func (v *Volume) MinMax() (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, val := range v.Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			continue
		}
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}
	if min > max {
		return 0, 0
	}
	return min, max
}

// VoxelToWorld maps a voxel coordinate to world (mm) coordinates through
// the affine transform.
func (v *Volume) VoxelToWorld(x, y, z float64) (wx, wy, wz float64) {
	a := v.Affine
	wx = a.At(0, 0)*x + a.At(0, 1)*y + a.At(0, 2)*z + a.At(0, 3)
	wy = a.At(1, 0)*x + a.At(1, 1)*y + a.At(1, 2)*z + a.At(1, 3)
	wz = a.At(2, 0)*x + a.At(2, 1)*y + a.At(2, 2)*z + a.At(2, 3)
	return wx, wy, wz
}

// WorldToVoxel maps world (mm) coordinates back to fractional voxel
// coordinates using the inverse affine. It fails if the affine is singular.
func (v *Volume) WorldToVoxel(wx, wy, wz float64) (x, y, z float64, err error) {
	var inv mat.Dense
	if err := inv.Inverse(v.Affine); err != nil {
		return 0, 0, 0, fmt.Errorf("affine is not invertible: %v", err)
	}
	x = inv.At(0, 0)*wx + inv.At(0, 1)*wy + inv.At(0, 2)*wz + inv.At(0, 3)
	y = inv.At(1, 0)*wx + inv.At(1, 1)*wy + inv.At(1, 2)*wz + inv.At(1, 3)
	z = inv.At(2, 0)*wx + inv.At(2, 1)*wy + inv.At(2, 2)*wz + inv.At(2, 3)
	return x, y, z, nil
}

// Spacing returns the voxel size along each axis in mm, derived from the
// column norms of the affine.
func (v *Volume) Spacing() (sx, sy, sz float64) {
	a := v.Affine
	norm := func(col int) float64 {
		return math.Sqrt(a.At(0, col)*a.At(0, col) +
			a.At(1, col)*a.At(1, col) +
			a.At(2, col)*a.At(2, col))
	}
	return norm(0), norm(1), norm(2)
}
