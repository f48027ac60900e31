package nifti

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"brainsprite/internal/models"
)

// gradientVolume builds a small test volume with a distinct value per voxel.
func gradientVolume() *models.Volume {
	v := models.NewVolume(4, 5, 3, models.ScalingAffine(2, 2, 2.5))
	for z := 0; z < v.Nz; z++ {
		for y := 0; y < v.Ny; y++ {
			for x := 0; x < v.Nx; x++ {
				v.Set(x, y, z, float64(v.Idx(x, y, z))*0.25-3)
			}
		}
	}
	return v
}

// TestRoundTrip verifies that a saved volume loads back with the same
// dimensions, affine and voxel values.
func TestRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "nifti-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	want := gradientVolume()

	for _, name := range []string{"vol.nii", "vol.nii.gz"} {
		path := filepath.Join(tempDir, name)
		if err := Save(path, want); err != nil {
			t.Fatalf("Save %s failed: %v", name, err)
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load %s failed: %v", name, err)
		}

		if got.Nx != want.Nx || got.Ny != want.Ny || got.Nz != want.Nz {
			t.Errorf("%s: expected dimensions %dx%dx%d, got %dx%dx%d",
				name, want.Nx, want.Ny, want.Nz, got.Nx, got.Ny, got.Nz)
		}

		for i := range want.Data {
			if math.Abs(got.Data[i]-want.Data[i]) > 1e-5 {
				t.Errorf("%s: voxel %d: expected %f, got %f", name, i, want.Data[i], got.Data[i])
				break
			}
		}

		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				if math.Abs(got.Affine.At(r, c)-want.Affine.At(r, c)) > 1e-5 {
					t.Errorf("%s: affine (%d,%d): expected %f, got %f",
						name, r, c, want.Affine.At(r, c), got.Affine.At(r, c))
				}
			}
		}
	}
}

// TestLoadRejectsGarbage verifies that a non-NIfTI file fails cleanly.
func TestLoadRejectsGarbage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "nifti-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "garbage.nii")
	junk := make([]byte, 1024)
	for i := range junk {
		junk[i] = byte(i * 7)
	}
	if err := os.WriteFile(path, junk, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error loading a non-NIfTI file, got nil")
	}
}

// TestLoadMissingFile verifies the error path for a nonexistent input.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/file.nii"); err == nil {
		t.Error("Expected error loading a missing file, got nil")
	}
}

// TestSaveSanitizesNonFinite verifies that NaN and Inf voxels are written
// as zeros rather than propagating into the file.
func TestSaveSanitizesNonFinite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "nifti-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	v := models.NewVolume(2, 2, 2, nil)
	v.Data[0] = math.NaN()
	v.Data[1] = math.Inf(1)
	v.Data[2] = 1.5

	path := filepath.Join(tempDir, "vol.nii")
	if err := Save(path, v); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Data[0] != 0 || got.Data[1] != 0 {
		t.Errorf("Expected non-finite voxels to load as 0, got %f and %f", got.Data[0], got.Data[1])
	}
	if math.Abs(got.Data[2]-1.5) > 1e-6 {
		t.Errorf("Expected voxel 2 to be 1.5, got %f", got.Data[2])
	}
}
