package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var fromYAML EditorConfig
	if err := yaml.Unmarshal(DefaultYAML(), &fromYAML); err != nil {
		t.Fatalf("embedded default does not parse: %v", err)
	}
	if fromYAML != DefaultEditorConfig() {
		t.Errorf("embedded defaults differ from DefaultEditorConfig:\n%+v\n%+v", fromYAML, DefaultEditorConfig())
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Grid.Cols != 20 || cfg.Grid.Rows != 20 {
		t.Errorf("expected 20x20 grid, got %dx%d", cfg.Grid.Cols, cfg.Grid.Rows)
	}
	if cfg.Render.IdleTimeout != 250*time.Millisecond {
		t.Errorf("expected 250ms idle timeout, got %v", cfg.Render.IdleTimeout)
	}
}

func TestLoadUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".tileforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("grid:\n  cols: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Grid.Cols != 8 {
		t.Errorf("expected user cols 8, got %d", cfg.Grid.Cols)
	}
	if cfg.Grid.Rows != 20 {
		t.Errorf("unset rows should keep default 20, got %d", cfg.Grid.Rows)
	}
}

func TestLoadCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	body := "display:\n  tile_size: 32\n  scaler: Nearest\nrender:\n  idle_timeout: 1s\nlog:\n  level: DEBUG\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Display.TileSize != 32 || cfg.Display.Scaler != "nearest" {
		t.Errorf("unexpected display config %+v", cfg.Display)
	}
	if cfg.Render.IdleTimeout != time.Second {
		t.Errorf("expected 1s, got %v", cfg.Render.IdleTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected lowercased level, got %q", cfg.Log.Level)
	}
	if cfg.Display.PadColor != "#FF69B4" {
		t.Errorf("unset pad color should keep default, got %q", cfg.Display.PadColor)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("grid: [1, 2"), 0o644)
	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("display:\n  scaler: lanczos\n"), 0o644)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), "failed to read config"},
		{"malformed", bad, "failed to parse config"},
		{"invalid", invalid, "unknown scaler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := EditorConfig{}
	cfg.Grid.Cols = -3
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Grid.Cols != 20 || cfg.Display.TileSize != 64 || cfg.Level.SavePath != "level.json" {
		t.Errorf("defaults not filled: %+v", cfg)
	}

	cfg.Render.GridColor = "#12"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "render.grid_color") {
		t.Errorf("expected grid color error, got %v", err)
	}

	cfg.Render.GridColor = ""
	cfg.Log.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected log level error")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#FF69B4", color.RGBA{R: 0xFF, G: 0x69, B: 0xB4, A: 0xFF}, true},
		{"ff69b4", color.RGBA{R: 0xFF, G: 0x69, B: 0xB4, A: 0xFF}, true},
		{"#00000080", color.RGBA{A: 0x80}, true},
		{"#GG0000", color.RGBA{}, false},
		{"#123", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	fallback := color.RGBA{R: 1, A: 0xFF}
	if ColorOr("nope", fallback) != fallback {
		t.Error("ColorOr must return fallback for invalid input")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := ExpandPath("~/x/db"); got != filepath.Join(home, "x", "db") {
		t.Errorf("unexpected expansion %q", got)
	}
	if got := ExpandPath("rel/db"); got != "rel/db" {
		t.Errorf("relative path must be unchanged, got %q", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(DefaultEditorConfig())
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var back EditorConfig
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if back != DefaultEditorConfig() {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
