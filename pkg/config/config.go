// Package config provides configuration loading and management for
// brainsprite. It handles loading viewer defaults from YAML files and
// provides built-in default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Display parameters for the statistical map
	Display struct {
		// Colormap is the name of the colormap applied to the map
		Colormap string `yaml:"colormap"`

		// NColors is the number of discrete color slots sampled from
		// the colormap
		NColors int `yaml:"nColors"`

		// Threshold hides map values below it: a number, "NN%" for a
		// percentile of the absolute values, or "none"
		Threshold string `yaml:"threshold"`

		// Symmetric makes the display range symmetric around zero
		Symmetric bool `yaml:"symmetric"`

		// Opacity of the map overlay, in [0,1]
		Opacity float64 `yaml:"opacity"`

		// Interpolation used to resample the map onto the background
		// grid: continuous, linear or nearest
		Interpolation string `yaml:"interpolation"`
	} `yaml:"display"`

	// Background parameters for the anatomical underlay
	Background struct {
		// BlackBg selects the page background: auto, black or white
		BlackBg string `yaml:"blackBg"`

		// Dim is the underlay dimming factor: auto or a number
		// roughly in [-2, 2]
		Dim string `yaml:"dim"`
	} `yaml:"background"`

	// Viewer parameters for the generated HTML
	Viewer struct {
		// Annotate displays cut coordinates and the value under the
		// crosshair (value display needs a duplicate-free palette)
		Annotate bool `yaml:"annotate"`

		// Crosshair draws the cut crosshair
		Crosshair bool `yaml:"crosshair"`

		// Colorbar displays a colorbar above the slices
		Colorbar bool `yaml:"colorbar"`

		// CanvasID, SpriteID, BackgroundID and ColormapID are the HTML
		// element IDs used by the snippet
		CanvasID     string `yaml:"canvasId"`
		SpriteID     string `yaml:"spriteId"`
		BackgroundID string `yaml:"backgroundId"`
		ColormapID   string `yaml:"colormapId"`

		// LibraryURL is where standalone pages load brainsprite.js from
		LibraryURL string `yaml:"libraryUrl"`
	} `yaml:"viewer"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default display parameters
	cfg.Display.Colormap = "cold_hot"
	cfg.Display.NColors = 72
	cfg.Display.Threshold = "1e-6"
	cfg.Display.Symmetric = true
	cfg.Display.Opacity = 1.0
	cfg.Display.Interpolation = "continuous"

	// Set default background parameters
	cfg.Background.BlackBg = "auto"
	cfg.Background.Dim = "auto"

	// Set default viewer parameters
	cfg.Viewer.Annotate = true
	cfg.Viewer.Crosshair = true
	cfg.Viewer.Colorbar = true
	cfg.Viewer.CanvasID = "brainViewer"
	cfg.Viewer.SpriteID = "spriteImg"
	cfg.Viewer.BackgroundID = "spriteBackground"
	cfg.Viewer.ColormapID = "colormap"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
