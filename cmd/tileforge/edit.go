package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tileforge/internal/engine"
	"github.com/vovakirdan/tileforge/internal/platform/tui"
	"github.com/vovakirdan/tileforge/internal/storage"
)

var (
	flagLevel          string
	flagResume         bool
	flagImportTileSize int
	flagNoHistory      bool
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the level editor",
	Long: `Open the interactive tile map editor.

Controls:
  Arrows/hjkl    - Move the cursor
  Enter/Space    - Paint the selected tile
  X/Delete       - Clear the cell
  Tab/Shift+Tab  - Select next/previous tile
  ]/[            - Select next/previous sheet
  I              - Import a tile sheet ("path [tile size]")
  S/Ctrl+S       - Save the level
  O              - Open a level
  ?              - Toggle help
  Q/Ctrl+C       - Quit

Mouse: left click paints, right click clears.

Examples:
  tileforge edit
  tileforge edit --level ./castle.json
  tileforge edit --resume
  tileforge edit --tile-size 16`,
	Args: cobra.NoArgs,
	Run:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&flagLevel, "level", "", "Level file to open on start")
	editCmd.Flags().BoolVar(&flagResume, "resume", false, "Reopen the most recently saved level")
	editCmd.Flags().IntVar(&flagImportTileSize, "tile-size", 32, "Default source tile size for imports")
	editCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record imports and saves")
}

func runEdit(_ *cobra.Command, _ []string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the editor needs an interactive terminal")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	exitOnError("loading config", err)

	// The TUI owns the terminal, so logs only go to a file
	logger := newLogger(cfg.Log, io.Discard, "tileforge")

	shell := engine.NewChannelShell(256)
	eng := engine.New(engineConfig(cfg), shell, logger)

	var store *storage.Store
	if !flagNoHistory {
		store, err = storage.Open(cfg.Storage.DBPath)
		if err != nil {
			// Continue without history
			logger.Warn("history disabled", "error", err)
			store = nil
		} else {
			defer store.Close()
			eng.SetImportRecorder(store)
			eng.SetLevelRecorder(store)
		}
	}

	levelPath := flagLevel
	if levelPath == "" && flagResume && store != nil {
		last, lastErr := store.LastSavedLevel()
		if lastErr != nil {
			logger.Warn("cannot find last level", "error", lastErr)
		}
		levelPath = last
	}
	if levelPath != "" {
		eng.SubmitLoad(levelPath)
	}

	if err := tui.Run(eng, shell, flagImportTileSize); err != nil {
		fmt.Fprintf(os.Stderr, "Error running editor: %v\n", err)
		os.Exit(1)
	}
}
