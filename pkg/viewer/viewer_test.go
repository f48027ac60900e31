package viewer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brainsprite/internal/models"
	"brainsprite/pkg/colormap"
)

// testStatMap builds a small signed map with a clear activation peak.
func testStatMap() *models.Volume {
	v := models.NewVolume(6, 6, 6, models.ScalingAffine(3, 3, 3))
	v.Set(4, 2, 3, 5)
	v.Set(4, 3, 3, 4)
	v.Set(1, 1, 1, -3)
	return v
}

// testBackground builds an anatomical phantom on the same world extent
// with a different grid.
func testBackground() *models.Volume {
	v := models.NewVolume(9, 9, 9, models.ScalingAffine(2, 2, 2))
	for z := 2; z < 7; z++ {
		for y := 2; y < 7; y++ {
			for x := 2; x < 7; x++ {
				v.Set(x, y, z, 80)
			}
		}
	}
	return v
}

// TestBuildInline verifies a full build with inlined sprites: snippet
// structure, parameter payload and standalone page.
func TestBuildInline(t *testing.T) {
	opts := DefaultOptions(testStatMap())
	opts.Background = testBackground()
	opts.Title = "motor task"

	doc, err := Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.Contains(doc.Snippet, `id="brainViewer"`) {
		t.Error("Expected the viewer canvas in the snippet")
	}
	for _, id := range []string{"spriteImg", "spriteBackground", "colormap"} {
		if !strings.Contains(doc.Snippet, `id="`+id+`"`) {
			t.Errorf("Expected element %q in the snippet", id)
		}
	}
	if strings.Count(doc.Snippet, "data:image/png;base64,") != 3 {
		t.Error("Expected three inlined sprites (map, background, colormap)")
	}
	if !strings.Contains(doc.Page, "<!DOCTYPE html>") {
		t.Error("Expected a standalone HTML document")
	}
	if !strings.Contains(doc.Page, DefaultLibraryURL) {
		t.Error("Expected the page to reference the brainsprite library")
	}

	// The background grid drives the viewer geometry
	if doc.Params.NbSlice != (SliceCounts{X: 9, Y: 9, Z: 9}) {
		t.Errorf("Expected nbSlice from the background grid, got %+v", doc.Params.NbSlice)
	}
	if doc.Params.Overlay == nil {
		t.Fatal("Expected an overlay for the stat map")
	}
	if doc.Params.Overlay.Sprite != "spriteImg" {
		t.Errorf("Expected the overlay to reference the map sprite, got %q", doc.Params.Overlay.Sprite)
	}
	if doc.Params.Sprite != "spriteBackground" {
		t.Errorf("Expected the base sprite to be the background, got %q", doc.Params.Sprite)
	}
	if doc.Params.ColorMap == nil {
		t.Fatal("Expected a colormap reference with the colorbar enabled")
	}
	if doc.Params.ColorMap.Max <= 0 || doc.Params.ColorMap.Min != -doc.Params.ColorMap.Max {
		t.Errorf("Expected a symmetric color range, got [%f, %f]",
			doc.Params.ColorMap.Min, doc.Params.ColorMap.Max)
	}

	// cold_hot sampled at 72 colors is distinct, so annotation survives
	if !doc.AnnotationEnabled || !doc.Params.FlagValue {
		t.Error("Expected annotation to remain enabled")
	}
}

// TestBuildAnnotationForcedOff verifies that a duplicated palette disables
// value annotation in the viewer parameters.
func TestBuildAnnotationForcedOff(t *testing.T) {
	black := colormap.Color{R: 0, G: 0, B: 0, A: 1}
	white := colormap.Color{R: 1, G: 1, B: 1, A: 1}
	custom, err := colormap.NewDiscrete("custom", colormap.Palette{black, white, black, white})
	if err != nil {
		t.Fatalf("Failed to build custom colormap: %v", err)
	}

	opts := DefaultOptions(testStatMap())
	opts.Colormap = custom
	opts.NColors = 2
	opts.Annotate = true

	doc, err := Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if doc.AnnotationEnabled {
		t.Error("Expected annotation disabled for a duplicated palette")
	}
	if doc.Params.FlagValue {
		t.Error("Expected flagValue false in the viewer parameters")
	}
}

// TestBuildWithoutBackground verifies the underlay-free configuration.
func TestBuildWithoutBackground(t *testing.T) {
	opts := DefaultOptions(testStatMap())

	doc, err := Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if doc.Params.Overlay != nil {
		t.Error("Expected no overlay without a background")
	}
	if doc.Params.Sprite != "spriteImg" {
		t.Errorf("Expected the map as the base sprite, got %q", doc.Params.Sprite)
	}
	if doc.Params.NbSlice != (SliceCounts{X: 6, Y: 6, Z: 6}) {
		t.Errorf("Expected nbSlice from the map grid, got %+v", doc.Params.NbSlice)
	}
}

// TestBuildParamsJSON verifies that the embedded parameter object is valid
// JSON with the documented keys.
func TestBuildParamsJSON(t *testing.T) {
	opts := DefaultOptions(testStatMap())
	doc, err := Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	start := strings.Index(doc.Snippet, "brainsprite(")
	if start < 0 {
		t.Fatal("Could not locate the brainsprite() call in the snippet")
	}
	start += len("brainsprite(")
	end := strings.Index(doc.Snippet[start:], ");")
	if end < 0 {
		t.Fatal("Could not locate the end of the brainsprite() call")
	}
	payload := doc.Snippet[start : start+end]

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("Viewer parameters are not valid JSON: %v", err)
	}

	for _, key := range []string{"canvas", "sprite", "nbSlice", "affine", "numSlice"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in the viewer parameters", key)
		}
	}
}

// TestBuildSpriteDir verifies file-based sprite output with relative
// references in the snippet.
func TestBuildSpriteDir(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir, err := os.MkdirTemp("", "viewer-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	opts := DefaultOptions(testStatMap())
	opts.Background = testBackground()
	opts.SpriteDir = tempDir

	doc, err := Build(opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, name := range []string{"sprite_stat.png", "sprite_bg.png", "sprite_cm.png"} {
		if _, err := os.Stat(filepath.Join(tempDir, name)); err != nil {
			t.Errorf("Expected sprite file %s: %v", name, err)
		}
		if !strings.Contains(doc.Snippet, `src="`+name+`"`) {
			t.Errorf("Expected the snippet to reference %s", name)
		}
	}
	if strings.Contains(doc.Snippet, "base64") {
		t.Error("Expected no inlined sprites in file mode")
	}

	// The page can be saved next to its sprites
	htmlPath := filepath.Join(tempDir, "view.html")
	if err := doc.Save(htmlPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(htmlPath); err != nil {
		t.Errorf("Expected the saved page: %v", err)
	}
}

// TestBuildValidation verifies the required-argument errors.
func TestBuildValidation(t *testing.T) {
	if _, err := Build(Options{}); err == nil {
		t.Error("Expected error without a stat map, got nil")
	}

	opts := DefaultOptions(testStatMap())
	opts.Colormap = nil
	if _, err := Build(opts); err == nil {
		t.Error("Expected error without a colormap, got nil")
	}

	opts = DefaultOptions(testStatMap())
	opts.Threshold = "oops"
	if _, err := Build(opts); err == nil {
		t.Error("Expected error for a bad threshold, got nil")
	}

	opts = DefaultOptions(testStatMap())
	opts.NColors = 0
	if _, err := Build(opts); err == nil {
		t.Error("Expected error for zero colors, got nil")
	}
}
