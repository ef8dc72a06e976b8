package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tileforge/internal/level"
	"github.com/vovakirdan/tileforge/internal/render"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

var (
	flagOutput     string
	flagRenderTile int
)

// maxFramePixels bounds the composed image.
const maxFramePixels = 1 << 26

var renderCmd = &cobra.Command{
	Use:   "render <level>",
	Short: "Render a level file to a PNG image",
	Long: `Load a saved level, reload its tile sheets and write the composed
map as a PNG image.

Sheets are resolved by the paths stored in the level file. Sheets
that fail to reload leave their cells drawn as empty grid squares.

Examples:
  tileforge render castle.json
  tileforge render castle.json -o castle.png
  tileforge render castle.json --tile-size 16`,
	Args: cobra.ExactArgs(1),
	Run:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output PNG path (default: <level>.png)")
	renderCmd.Flags().IntVar(&flagRenderTile, "tile-size", 0, "Pixels per cell in the image (default from config)")
}

func runRender(_ *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)
	logger := newLogger(cfg.Log, os.Stderr, "render")

	doc, err := level.Load(args[0])
	exitOnError("loading level", err)

	ecfg := engineConfig(cfg)
	if flagRenderTile > 0 {
		ecfg.Render.TileSize = flagRenderTile
		ecfg.Sheets.DisplaySize = flagRenderTile
	}
	cols, rows := doc.Level.Cols, doc.Level.Rows
	if cols == 0 || rows == 0 {
		cols, rows = ecfg.Render.Cols, ecfg.Render.Rows
	}
	ts := ecfg.Render.TileSize
	if cols*ts > tilesheet.MaxDimension || rows*ts > tilesheet.MaxDimension || cols*rows*ts*ts > maxFramePixels {
		exitOnError("rendering level", fmt.Errorf("%dx%d cells at %d px is too large, try a smaller --tile-size", cols, rows, ts))
	}

	sheets := tilesheet.NewManager(ecfg.Sheets)
	defer sheets.Close()

	if _, err := sheets.Restore(doc.TileManager); err != nil {
		var restoreErr *tilesheet.RestoreError
		if errors.As(err, &restoreErr) {
			for id, res := range restoreErr.Failed {
				logger.Warn("sheet not reloaded", "sheet", id, "result", res.String())
			}
			for _, id := range restoreErr.Duplicates {
				logger.Warn("duplicate sheet ID skipped", "sheet", id)
			}
		} else {
			exitOnError("restoring sheets", err)
		}
	}

	st := doc.Level
	st.Cols, st.Rows = cols, rows
	lvl := level.FromState(st)
	rcfg := ecfg.Render
	rcfg.Cols, rcfg.Rows = lvl.Cols, lvl.Rows

	renderer := render.New(rcfg, sheets, nil, logger)
	renderer.Attach(lvl)
	if err := renderer.Sync(); err != nil {
		// Cells of missing sheets stay empty
		logger.Warn("some cells were not drawn", "error", err)
	}

	out := flagOutput
	if out == "" {
		out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
	}
	err = writePNG(out, renderer.Compose())
	exitOnError("writing image", err)

	fmt.Printf("Rendered %s (%dx%d cells, %d tiles) to %s\n",
		doc.Level.Name, lvl.Cols, lvl.Rows, len(doc.Level.Cells), out)
}

// writePNG encodes img to path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	return f.Close()
}
