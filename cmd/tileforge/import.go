package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

var (
	flagSliceSize int
	flagExportDir string
)

var importCmd = &cobra.Command{
	Use:   "import <image>",
	Short: "Slice a tile sheet and report the result",
	Long: `Load an image, slice it into tiles and print the outcome.

Edges that are not a multiple of the tile size are padded and reported
as a size mismatch. With --export, every display tile is written as a
PNG file named <sheet>_<index>.png.

Supported formats: png, jpeg, gif, bmp, tiff, webp.

Examples:
  tileforge import tiles.png --tile-size 16
  tileforge import tiles.png --tile-size 16 --export ./tiles`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().IntVar(&flagSliceSize, "tile-size", 32, "Source tile size in pixels")
	importCmd.Flags().StringVar(&flagExportDir, "export", "", "Directory to write the sliced tiles to")
}

func runImport(_ *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError("loading config", err)

	opts := engineConfig(cfg).Sheets
	sheet := tilesheet.Load(args[0], flagSliceSize, 0, opts)
	defer sheet.Close()

	fmt.Printf("Sheet:  %s\n", sheet.Path)
	fmt.Printf("Result: %s\n", sheet.Err.String())
	if !sheet.Err.IsAccepted() {
		os.Exit(1)
	}

	fmt.Printf("Source: %dx%d px\n", sheet.SrcWidth, sheet.SrcHeight)
	if sheet.Width != sheet.SrcWidth || sheet.Height != sheet.SrcHeight {
		fmt.Printf("Padded: %dx%d px\n", sheet.Width, sheet.Height)
	}
	fmt.Printf("Tiles:  %d (%d cols x %d rows) at %d px\n",
		sheet.NumTiles(), sheet.Cols, sheet.Rows, sheet.DisplaySize())

	if flagExportDir == "" {
		return
	}
	n, err := exportTiles(sheet, flagExportDir)
	exitOnError("exporting tiles", err)
	fmt.Printf("Exported %d tiles to %s\n", n, flagExportDir)
}

// exportTiles writes every tile of sheet into dir as PNG.
func exportTiles(sheet *tilesheet.Sheet, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create directory: %w", err)
	}

	base := sheet.FileName
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}

	written := 0
	for i := range sheet.NumTiles() {
		tile, ok := sheet.Tile(i)
		if !ok {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", base, i))
		if err := writePNG(path, tile); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
