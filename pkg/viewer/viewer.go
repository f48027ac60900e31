// Package viewer assembles the HTML for a brainsprite-based 3D volume
// viewer: it runs the sprite pipeline over a statistical map and an
// optional anatomical background, and renders the viewer snippet or a
// standalone page.
package viewer

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"math"
	"os"
	"path/filepath"

	"brainsprite/internal/models"
	"brainsprite/pkg/colormap"
	"brainsprite/pkg/sprite"
	"brainsprite/pkg/volume"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// DefaultLibraryURL is where the standalone page loads brainsprite.js from.
const DefaultLibraryURL = "https://cdn.jsdelivr.net/gh/simexp/brainsprite.js@master/brainsprite.min.js"

// IDs holds the HTML element IDs used by the viewer snippet. Customize
// them when embedding several viewers in one page.
type IDs struct {
	Viewer     string
	Sprite     string
	Background string
	ColorMap   string
}

// DefaultIDs returns the conventional element IDs.
func DefaultIDs() IDs {
	return IDs{
		Viewer:     "brainViewer",
		Sprite:     "spriteImg",
		Background: "spriteBackground",
		ColorMap:   "colormap",
	}
}

// Options configures a viewer build. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// StatMap is the statistical volume to display. Required.
	StatMap *models.Volume

	// Background is the anatomical underlay. Nil disables the underlay.
	Background *models.Volume

	// Colormap for the statistical map
	Colormap colormap.Colormap

	// NColors is the number of discrete color slots sampled from the
	// colormap
	NColors int

	// Threshold specification: a number, "NN%", or "" for none
	Threshold string

	// Symmetric makes the display range symmetric around zero
	Symmetric bool

	// Vmax and Vmin override the display range; NaN selects automatically
	Vmax, Vmin float64

	// Opacity of the overlay in [0,1]
	Opacity float64

	// Annotate requests numeric value display in the viewer. It is
	// honored only when the sampled palette has no duplicate colors.
	Annotate bool

	// Crosshair draws the cut crosshair
	Crosshair bool

	// Colorbar displays the colorbar
	Colorbar bool

	// Title shown above the viewer; empty for none
	Title string

	// OnClick is a JavaScript expression hooked to viewer clicks
	OnClick string

	// BlackBG is "auto", "black" or "white"
	BlackBG string

	// Dim is the background dimming factor: "auto" or a number
	Dim string

	// Interpolation used to resample the map onto the background grid
	Interpolation volume.Interpolation

	// Cut places the initial crosshair at world coordinates; nil selects
	// automatically
	Cut *models.Cut

	// IDs are the HTML element IDs
	IDs IDs

	// SpriteDir, when non-empty, writes sprite PNGs there and references
	// them by file name; otherwise sprites are inlined as base64
	SpriteDir string

	// LibraryURL overrides where the standalone page loads brainsprite.js
	// from
	LibraryURL string
}

// DefaultOptions returns the options matching the original viewer's
// defaults: cold_hot colormap, symmetric scale, faint threshold, inline
// sprites.
func DefaultOptions(statMap *models.Volume) Options {
	cm, _ := colormap.Lookup("cold_hot")
	return Options{
		StatMap:   statMap,
		Colormap:  cm,
		NColors:   72,
		Threshold: "1e-6",
		Symmetric: true,
		Vmax:      math.NaN(),
		Vmin:      math.NaN(),
		Opacity:   1,
		Annotate:  true,
		Crosshair: true,
		Colorbar:  true,
		BlackBG:   "auto",
		Dim:       "auto",
		IDs:       DefaultIDs(),
	}
}

// Document is a built viewer: the embeddable snippet, the standalone page,
// and the resolved parameters.
type Document struct {
	// Snippet is the HTML fragment to insert into a page that already
	// loads brainsprite.js
	Snippet string

	// Page is a complete standalone HTML document
	Page string

	// Params are the viewer parameters embedded in the snippet
	Params Params

	// AnnotationEnabled reports whether value annotation survived
	// colormap deduplication
	AnnotationEnabled bool
}

// Save writes the standalone page to path.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, []byte(d.Page), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return nil
}

// Build runs the full sprite pipeline and assembles the viewer HTML.
func Build(opts Options) (*Document, error) {
	if opts.StatMap == nil {
		return nil, fmt.Errorf("no statistical map given")
	}
	if opts.Colormap == nil {
		return nil, fmt.Errorf("no colormap given")
	}

	// Display range and threshold come from the raw map values.
	thresholdValue, err := volume.ParseThreshold(opts.Threshold, opts.StatMap.Data)
	if err != nil {
		return nil, err
	}
	scale := colormap.NewScale(opts.StatMap.Data, colormap.ScaleOptions{
		Symmetric: opts.Symmetric,
		Vmax:      opts.Vmax,
		Vmin:      opts.Vmin,
		Threshold: thresholdValue,
	})

	palette, annotationEnabled, err := colormap.Deduplicate(opts.Colormap, opts.NColors, opts.Annotate)
	if err != nil {
		return nil, err
	}

	statMap, mask := volume.Threshold(opts.StatMap, thresholdValue)

	// With a background, the map and its mask are resampled onto the
	// background grid so the sprites align voxel for voxel.
	background := opts.Background
	var bgMin, bgMax, dim float64
	blackBg := true
	if background != nil {
		background = background.Clone()
		volume.SanitizeFinite(background)
		bgMin, bgMax = volume.BackgroundStats(background)

		blackBg, err = volume.ResolveBlackBackground(opts.BlackBG, background, bgMin, bgMax)
		if err != nil {
			return nil, err
		}
		dim, err = volume.ResolveDim(opts.Dim, background, bgMin, bgMax)
		if err != nil {
			return nil, err
		}

		statMap, err = volume.Resample(statMap, background, opts.Interpolation)
		if err != nil {
			return nil, fmt.Errorf("failed to resample map onto the background grid: %v", err)
		}
		mask, err = volume.Resample(mask, background, volume.Nearest)
		if err != nil {
			return nil, fmt.Errorf("failed to resample mask onto the background grid: %v", err)
		}
	} else {
		blackBg, err = volume.ResolveBlackBackground(opts.BlackBG, nil, 0, 0)
		if err != nil {
			return nil, err
		}
	}

	cuts, err := volume.CutSlices(statMap, opts.Cut)
	if err != nil {
		return nil, err
	}

	statImg, err := sprite.DrawStatMap(statMap, mask, scale, palette, opts.Opacity)
	if err != nil {
		return nil, fmt.Errorf("failed to draw the stat map sprite: %v", err)
	}

	refs := spriteRefs{}
	if refs.stat, err = resolveOutput(opts.SpriteDir, "sprite_stat.png", statImg); err != nil {
		return nil, err
	}
	if background != nil {
		bgImg, err := sprite.DrawBackground(background, bgMin, bgMax, dim)
		if err != nil {
			return nil, fmt.Errorf("failed to draw the background sprite: %v", err)
		}
		if refs.background, err = resolveOutput(opts.SpriteDir, "sprite_bg.png", bgImg); err != nil {
			return nil, err
		}
	}
	if opts.Colorbar {
		cmImg, err := sprite.DrawColormap(palette, len(palette), 1)
		if err != nil {
			return nil, fmt.Errorf("failed to draw the colormap strip: %v", err)
		}
		if refs.colorMap, err = resolveOutput(opts.SpriteDir, "sprite_cm.png", cmImg); err != nil {
			return nil, err
		}
	}

	params := assembleParams(opts, statMap, background, scale, cuts, blackBg, annotationEnabled)

	doc := &Document{Params: params, AnnotationEnabled: annotationEnabled}
	if doc.Snippet, err = renderSnippet(opts, refs, params); err != nil {
		return nil, err
	}
	if doc.Page, err = renderPage(opts, doc.Snippet, blackBg); err != nil {
		return nil, err
	}
	return doc, nil
}

// spriteRefs holds the src references (data URIs or file names) for the
// generated sprite images.
type spriteRefs struct {
	stat       string
	background string
	colorMap   string
}

// resolveOutput either writes the sprite image to dir and returns its file
// name as a relative reference, or inlines it as a base64 data URI when
// dir is empty.
func resolveOutput(dir, name string, img image.Image) (string, error) {
	if dir == "" {
		return sprite.DataURI(img)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create sprite directory %s: %v", dir, err)
	}
	if err := sprite.WritePNG(filepath.Join(dir, name), img); err != nil {
		return "", err
	}
	return name, nil
}

// assembleParams fills the viewer parameter object.
func assembleParams(opts Options, statMap, background *models.Volume,
	scale colormap.Scale, cuts [3]int, blackBg, annotationEnabled bool) Params {

	display := statMap
	if background != nil {
		display = background
	}

	var affine [4][4]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			affine[r][c] = display.Affine.At(r, c)
		}
	}

	colorBackground, colorFont := "#FFFFFF", "#000000"
	if blackBg {
		colorBackground, colorFont = "#000000", "#FFFFFF"
	}

	params := Params{
		Canvas:          opts.IDs.Viewer,
		Sprite:          opts.IDs.Sprite,
		NbSlice:         SliceCounts{X: display.Nx, Y: display.Ny, Z: display.Nz},
		ColorBackground: colorBackground,
		ColorFont:       colorFont,
		Crosshair:       opts.Crosshair,
		Affine:          affine,
		FlagCoordinates: opts.Annotate,
		Title:           opts.Title,
		FlagValue:       annotationEnabled,
		NumSlice:        SliceCounts{X: cuts[0], Y: cuts[1], Z: cuts[2]},
		OnClick:         opts.OnClick,
		NbDecimals:      3,
	}

	if background != nil {
		// The background is the base sprite and the map becomes the overlay.
		params.Sprite = opts.IDs.Background
		params.Overlay = &Overlay{
			Sprite:  opts.IDs.Sprite,
			NbSlice: SliceCounts{X: statMap.Nx, Y: statMap.Ny, Z: statMap.Nz},
			Opacity: opts.Opacity,
		}
	}
	if opts.Colorbar {
		params.ColorMap = &ColorMapRef{
			Img: opts.IDs.ColorMap,
			Min: scale.Vmin,
			Max: scale.Vmax,
		}
	}
	return params
}

// renderSnippet executes the snippet template with the sprite references
// and the JSON parameter object.
func renderSnippet(opts Options, refs spriteRefs, params Params) (string, error) {
	payload, err := json.MarshalIndent(params, "    ", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode viewer parameters: %v", err)
	}

	data := struct {
		Title         string
		ViewerID      string
		SpriteID      string
		BackgroundID  string
		ColorMapID    string
		StatSrc       template.URL
		BackgroundSrc template.URL
		ColorMapSrc   template.URL
		ParamsJSON    template.JS
	}{
		Title:         opts.Title,
		ViewerID:      opts.IDs.Viewer,
		SpriteID:      opts.IDs.Sprite,
		BackgroundID:  opts.IDs.Background,
		ColorMapID:    opts.IDs.ColorMap,
		StatSrc:       template.URL(refs.stat),
		BackgroundSrc: template.URL(refs.background),
		ColorMapSrc:   template.URL(refs.colorMap),
		ParamsJSON:    template.JS(payload),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "snippet.html.tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render viewer snippet: %v", err)
	}
	return buf.String(), nil
}

// renderPage wraps the snippet in a standalone HTML document.
func renderPage(opts Options, snippet string, blackBg bool) (string, error) {
	pageBackground, pageFont := "#FFFFFF", "#000000"
	if blackBg {
		pageBackground, pageFont = "#000000", "#FFFFFF"
	}

	libraryURL := opts.LibraryURL
	if libraryURL == "" {
		libraryURL = DefaultLibraryURL
	}

	title := opts.Title
	if title == "" {
		title = "brainsprite viewer"
	}

	data := struct {
		Title          string
		LibraryURL     template.URL
		PageBackground template.CSS
		PageFont       template.CSS
		Snippet        template.HTML
	}{
		Title:          title,
		LibraryURL:     template.URL(libraryURL),
		PageBackground: template.CSS(pageBackground),
		PageFont:       template.CSS(pageFont),
		Snippet:        template.HTML(snippet),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page.html.tmpl", data); err != nil {
		return "", fmt.Errorf("failed to render viewer page: %v", err)
	}
	return buf.String(), nil
}
