// tileforge is a tile map level editor that runs in the terminal.
//
// Usage:
//
//	tileforge edit                 - Open the editor
//	tileforge import <image>       - Slice a tile sheet and report the result
//	tileforge render <level>       - Render a level file to PNG
//	tileforge history              - Show recent imports and saved levels
//	tileforge serve                - Start SSH server for remote editing
//	tileforge config               - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Path to editor config YAML
//	--db <path>         - Set database path (default: ~/.tileforge/history.db)
//	--log-level <lvl>   - debug, info, warn or error
//	--log-file <path>   - Write logs to a rotating file
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vovakirdan/tileforge/internal/config"
	"github.com/vovakirdan/tileforge/internal/engine"
	"github.com/vovakirdan/tileforge/internal/render"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tileforge",
	Short: "Tileforge - Build tile map levels in your terminal",
	Long: `Tileforge is a terminal tile map editor. Import sprite sheets,
paint tiles onto a grid and save the result as a level file.

Available commands:
  edit     - Open the interactive editor
  import   - Slice a tile sheet without opening the editor
  render   - Render a saved level to a PNG image
  history  - View recent imports and saved levels
  serve    - Start SSH server for remote editing
  config   - Print the effective configuration

Examples:
  tileforge edit
  tileforge edit --level ./castle.json
  tileforge import tiles.png --tile-size 16
  tileforge render castle.json -o castle.png
  tileforge serve --ssh :2323`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to editor config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to history database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the editor config and applies global flag overrides.
func loadConfig() (config.EditorConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFile != "" {
		cfg.Log.File = flagLogFile
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger. With a log file configured, output
// goes to a rotating file; otherwise it goes to fallback.
func newLogger(cfg config.LogConfig, fallback io.Writer, prefix string) *log.Logger {
	out := fallback
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   config.ExpandPath(cfg.File),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// engineConfig converts the editor config into engine settings.
func engineConfig(cfg config.EditorConfig) engine.Config {
	def := render.DefaultConfig()
	return engine.Config{
		Render: render.Config{
			Cols:        cfg.Grid.Cols,
			Rows:        cfg.Grid.Rows,
			TileSize:    cfg.Display.TileSize,
			IdleTimeout: cfg.Render.IdleTimeout,
			Background:  config.ColorOr(cfg.Render.Background, def.Background),
			GridColor:   config.ColorOr(cfg.Render.GridColor, def.GridColor),
		},
		Sheets: tilesheet.Options{
			DisplaySize: cfg.Display.TileSize,
			Scaler:      tilesheet.ScalerByName(cfg.Display.Scaler),
			PadColor:    config.ColorOr(cfg.Display.PadColor, tilesheet.PadColor),
		},
		LevelName: cfg.Level.Name,
		SavePath:  cfg.Level.SavePath,
	}
}

// exitOnError prints err and exits with status 1.
func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error %s: %v\n", msg, err)
		os.Exit(1)
	}
}
