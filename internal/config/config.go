// Package config provides YAML-based editor configuration loading.
package config

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// EditorConfig contains all configuration for the editor.
type EditorConfig struct {
	Grid    GridConfig    `yaml:"grid"`
	Display DisplayConfig `yaml:"display"`
	Render  RenderConfig  `yaml:"render"`
	Level   LevelConfig   `yaml:"level"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
}

// GridConfig defines the map size in cells.
type GridConfig struct {
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`
}

// DisplayConfig defines how imported sheets are sliced.
type DisplayConfig struct {
	TileSize int    `yaml:"tile_size"` // Display pixels per tile
	Scaler   string `yaml:"scaler"`    // "nearest", "bilinear" or "catmullrom"
	PadColor string `yaml:"pad_color"` // Fill for sheets that are not a multiple of the tile size
}

// RenderConfig defines render loop parameters.
type RenderConfig struct {
	IdleTimeout time.Duration `yaml:"idle_timeout"` // Redraw interval without changes
	Background  string        `yaml:"background"`
	GridColor   string        `yaml:"grid_color"`
}

// LevelConfig defines level file defaults.
type LevelConfig struct {
	Name     string `yaml:"name"`
	SavePath string `yaml:"save_path"`
}

// StorageConfig defines where history is kept.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level      string `yaml:"level"`        // "debug", "info", "warn" or "error"
	File       string `yaml:"file"`         // Empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate after this many megabytes
	MaxBackups int    `yaml:"max_backups"`  // Rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days"` // Days to keep rotated files
}

// ServerConfig defines the SSH server.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	HostKeyPath string `yaml:"host_key_path"`
	LevelDir    string `yaml:"level_dir"` // Where SSH sessions save levels
}

var scalers = map[string]bool{"nearest": true, "bilinear": true, "catmullrom": true}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate fills non-positive sizes with defaults and rejects unknown names
// and malformed colors.
func (c *EditorConfig) Validate() error {
	def := DefaultEditorConfig()

	if c.Grid.Cols <= 0 {
		c.Grid.Cols = def.Grid.Cols
	}
	if c.Grid.Rows <= 0 {
		c.Grid.Rows = def.Grid.Rows
	}
	if c.Display.TileSize <= 0 {
		c.Display.TileSize = def.Display.TileSize
	}
	if c.Render.IdleTimeout <= 0 {
		c.Render.IdleTimeout = def.Render.IdleTimeout
	}
	if c.Level.SavePath == "" {
		c.Level.SavePath = def.Level.SavePath
	}
	if c.Level.Name == "" {
		c.Level.Name = def.Level.Name
	}
	if c.Server.Port <= 0 {
		c.Server.Port = def.Server.Port
	}

	c.Display.Scaler = strings.ToLower(c.Display.Scaler)
	if c.Display.Scaler == "" {
		c.Display.Scaler = def.Display.Scaler
	}
	if !scalers[c.Display.Scaler] {
		return fmt.Errorf("config: unknown scaler %q", c.Display.Scaler)
	}

	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if !logLevels[c.Log.Level] {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}

	for name, value := range map[string]string{
		"display.pad_color": c.Display.PadColor,
		"render.background": c.Render.Background,
		"render.grid_color": c.Render.GridColor,
	} {
		if value == "" {
			continue
		}
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// ParseColor parses a "#RRGGBB" or "#RRGGBBAA" hex color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	var v [4]uint8
	v[3] = 0xFF
	for i := 0; i < len(hex)/2; i++ {
		hi, ok1 := hexDigit(hex[2*i])
		lo, ok2 := hexDigit(hex[2*i+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid color %q", s)
		}
		v[i] = hi<<4 | lo
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

// ColorOr parses s or returns fallback when s is empty or invalid.
func ColorOr(s string, fallback color.RGBA) color.RGBA {
	if s == "" {
		return fallback
	}
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func hexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
