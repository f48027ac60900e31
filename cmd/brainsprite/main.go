package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"brainsprite/internal/models"
	"brainsprite/pkg/colormap"
	"brainsprite/pkg/config"
	"brainsprite/pkg/nifti"
	"brainsprite/pkg/server"
	"brainsprite/pkg/viewer"
	"brainsprite/pkg/volume"
)

func main() {
	// Parse command line arguments
	statPath := flag.String("stat", "", "Statistical map volume (.nii or .nii.gz)")
	bgPath := flag.String("bg", "", "Anatomical background volume (.nii or .nii.gz); empty for none")
	outPath := flag.String("out", "viewer.html", "Output HTML filename")
	configPath := flag.String("config", "brainsprite.yaml", "Configuration file (YAML)")
	cmapName := flag.String("cmap", "", "Colormap name (default from config)")
	nColors := flag.Int("colors", 0, "Number of discrete colors (default from config)")
	threshold := flag.String("threshold", "", "Display threshold: number, \"NN%\" or \"none\" (default from config)")
	symmetric := flag.Bool("symmetric", true, "Make the display range symmetric around zero")
	vmax := flag.Float64("vmax", math.NaN(), "Upper display value (default: automatic)")
	vmin := flag.Float64("vmin", math.NaN(), "Lower display value (default: automatic)")
	opacity := flag.Float64("opacity", -1, "Overlay opacity in [0,1] (default from config)")
	title := flag.String("title", "", "Title shown above the viewer")
	annotate := flag.Bool("annotate", true, "Display cut coordinates and values")
	colorbar := flag.Bool("colorbar", true, "Display a colorbar")
	crosshair := flag.Bool("crosshair", true, "Draw the cut crosshair")
	cutSpec := flag.String("cut", "", "Initial cut as world coordinates \"x,y,z\" (default: automatic)")
	interp := flag.String("interp", "", "Resampling interpolation: continuous, linear or nearest (default from config)")
	blackBg := flag.String("black-bg", "", "Page background: auto, black or white (default from config)")
	dim := flag.String("dim", "", "Background dimming factor: auto or a number (default from config)")
	spriteDir := flag.String("sprite-dir", "", "Write sprites as PNG files in this directory instead of inlining them")
	serveAddr := flag.String("serve", "", "Start a preview server on this address (e.g. :8080) after generation")
	flag.Parse()

	// Validate inputs
	if *statPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	// Load configuration; flags that were set explicitly win over it
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *cmapName == "" {
		*cmapName = cfg.Display.Colormap
	}
	if *nColors == 0 {
		*nColors = cfg.Display.NColors
	}
	if !set["threshold"] {
		*threshold = cfg.Display.Threshold
	}
	if !set["symmetric"] {
		*symmetric = cfg.Display.Symmetric
	}
	if *opacity < 0 {
		*opacity = cfg.Display.Opacity
	}
	if !set["annotate"] {
		*annotate = cfg.Viewer.Annotate
	}
	if !set["colorbar"] {
		*colorbar = cfg.Viewer.Colorbar
	}
	if !set["crosshair"] {
		*crosshair = cfg.Viewer.Crosshair
	}
	if *interp == "" {
		*interp = cfg.Display.Interpolation
	}
	if *blackBg == "" {
		*blackBg = cfg.Background.BlackBg
	}
	if *dim == "" {
		*dim = cfg.Background.Dim
	}

	fmt.Println("================================")
	fmt.Println("BRAINSPRITE VIEWER GENERATION")
	fmt.Println("================================")

	// Load the input volumes
	fmt.Printf("Loading statistical map: %s\n", *statPath)
	statMap, err := nifti.Load(*statPath)
	if err != nil {
		log.Fatalf("Failed to load statistical map: %v", err)
	}
	fmt.Printf("Map dimensions: %dx%dx%d voxels\n", statMap.Nx, statMap.Ny, statMap.Nz)

	var background *models.Volume
	if *bgPath != "" {
		fmt.Printf("Loading background image: %s\n", *bgPath)
		background, err = nifti.Load(*bgPath)
		if err != nil {
			log.Fatalf("Failed to load background image: %v", err)
		}
		fmt.Printf("Background dimensions: %dx%dx%d voxels\n",
			background.Nx, background.Ny, background.Nz)
	}

	// Resolve display options
	cmap, err := colormap.Lookup(*cmapName)
	if err != nil {
		log.Fatalf("Failed to resolve colormap: %v", err)
	}
	interpolation, err := volume.ParseInterpolation(*interp)
	if err != nil {
		log.Fatalf("Failed to resolve interpolation: %v", err)
	}
	cut, err := parseCut(*cutSpec)
	if err != nil {
		log.Fatalf("Failed to parse cut coordinates: %v", err)
	}

	opts := viewer.Options{
		StatMap:       statMap,
		Background:    background,
		Colormap:      cmap,
		NColors:       *nColors,
		Threshold:     *threshold,
		Symmetric:     *symmetric,
		Vmax:          *vmax,
		Vmin:          *vmin,
		Opacity:       *opacity,
		Annotate:      *annotate,
		Crosshair:     *crosshair,
		Colorbar:      *colorbar,
		Title:         *title,
		BlackBG:       *blackBg,
		Dim:           *dim,
		Interpolation: interpolation,
		Cut:           cut,
		IDs: viewer.IDs{
			Viewer:     cfg.Viewer.CanvasID,
			Sprite:     cfg.Viewer.SpriteID,
			Background: cfg.Viewer.BackgroundID,
			ColorMap:   cfg.Viewer.ColormapID,
		},
		SpriteDir:  *spriteDir,
		LibraryURL: cfg.Viewer.LibraryURL,
	}

	// Build the viewer
	fmt.Println("Generating sprites and viewer HTML...")
	doc, err := viewer.Build(opts)
	if err != nil {
		log.Fatalf("Viewer generation failed: %v", err)
	}

	if err := doc.Save(*outPath); err != nil {
		log.Fatalf("Failed to save viewer: %v", err)
	}

	fmt.Printf("\nViewer saved to: %s\n", *outPath)
	if doc.Params.ColorMap != nil {
		fmt.Printf("Display range: [%.3f, %.3f]\n", doc.Params.ColorMap.Min, doc.Params.ColorMap.Max)
	}
	fmt.Printf("Initial cuts (voxels): X=%d Y=%d Z=%d\n",
		doc.Params.NumSlice.X, doc.Params.NumSlice.Y, doc.Params.NumSlice.Z)
	if *annotate && !doc.AnnotationEnabled {
		fmt.Println("Note: value annotation was disabled because the palette could not be deduplicated")
	}
	if *spriteDir != "" {
		fmt.Printf("Sprites written to: %s\n", *spriteDir)
	}

	// Start the preview server if requested
	if *serveAddr != "" {
		dir := filepath.Dir(*outPath)
		fmt.Printf("\nServing viewers from %s on %s (Ctrl-C to stop)\n", dir, *serveAddr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(dir, *serveAddr)
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Fatalf("Preview server failed: %v", err)
		}
	}
}

// parseCut parses an "x,y,z" world coordinate triple.
func parseCut(spec string) (*models.Cut, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected \"x,y,z\", got %q", spec)
	}
	coords := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %v", p, err)
		}
		coords[i] = v
	}
	return &models.Cut{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
