package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/editor.yaml
var defaultEditorYAML []byte

// DefaultEditorConfig returns the default editor configuration.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		Grid: GridConfig{
			Cols: 20,
			Rows: 20,
		},
		Display: DisplayConfig{
			TileSize: 64,
			Scaler:   "catmullrom",
			PadColor: "#FF69B4",
		},
		Render: RenderConfig{
			IdleTimeout: 250 * time.Millisecond,
			Background:  "#FFFFFF",
			GridColor:   "#000000",
		},
		Level: LevelConfig{
			Name:     "untitled",
			SavePath: "level.json",
		},
		Storage: StorageConfig{
			DBPath: "~/.tileforge/history.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        2323,
			HostKeyPath: ".ssh/tileforge_ed25519",
			LevelDir:    "levels",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultEditorYAML
}
