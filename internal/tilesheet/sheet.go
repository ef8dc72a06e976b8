// Package tilesheet decodes source images into grids of display-ready tiles
// and tracks imported sheets by stable integer ID.
package tilesheet

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	// Registered decoders. Anything image.Decode does not know is Unsupported.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

// DisplayTileSize is the default edge length, in pixels, of a display tile.
const DisplayTileSize = 64

// MaxDimension bounds the padded sheet width and height.
const MaxDimension = math.MaxInt16

// PadColor fills the area added to sheets that do not divide evenly.
var PadColor = color.RGBA{R: 0xFF, G: 0x69, B: 0xB4, A: 0xFF}

// Options controls how a source image is sliced into tiles.
type Options struct {
	DisplaySize int          // Edge of each output tile, defaults to DisplayTileSize
	Scaler      xdraw.Scaler // Resampler, defaults to nearest neighbor
	PadColor    color.Color  // Fill for padding, defaults to PadColor
}

// DefaultOptions returns the options used by the editor out of the box.
func DefaultOptions() Options {
	return Options{
		DisplaySize: DisplayTileSize,
		Scaler:      xdraw.NearestNeighbor,
		PadColor:    PadColor,
	}
}

func (o Options) normalized() Options {
	if o.DisplaySize <= 0 {
		o.DisplaySize = DisplayTileSize
	}
	if o.Scaler == nil {
		o.Scaler = xdraw.NearestNeighbor
	}
	if o.PadColor == nil {
		o.PadColor = PadColor
	}
	return o
}

// ScalerByName maps a config name to a scaler. Unknown names fall back to
// nearest neighbor, which keeps pixel art crisp.
func ScalerByName(name string) xdraw.Scaler {
	switch strings.ToLower(name) {
	case "bilinear":
		return xdraw.BiLinear
	case "approx", "approxbilinear":
		return xdraw.ApproxBiLinear
	case "catmullrom":
		return xdraw.CatmullRom
	default:
		return xdraw.NearestNeighbor
	}
}

// Sheet is one imported source image sliced into equally sized tiles.
// A Sheet is immutable once created; Close releases its tiles.
type Sheet struct {
	ID       int
	FileName string
	Path     string
	TileSize int
	Err      SheetError

	// Source and padded dimensions in source pixels.
	SrcWidth, SrcHeight int
	Width, Height       int
	Cols, Rows          int

	displaySize int

	mu    sync.RWMutex
	tiles []*image.RGBA
}

// Load decodes the image at path and slices it into tiles. The returned
// sheet always carries Err; tiles are only present when Err.IsAccepted().
func Load(path string, tileSize, id int, opts Options) *Sheet {
	opts = opts.normalized()
	s := &Sheet{ID: id, Path: path, TileSize: tileSize, displaySize: opts.DisplaySize}

	if path == "" || strings.ContainsRune(path, 0) || tileSize <= 0 {
		s.Err = InvalidArg
		return s
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Err = NotFound
		} else {
			s.Err = InvalidArg
		}
		return s
	}
	if info.IsDir() {
		s.Err = InvalidArg
		return s
	}
	s.FileName = filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		s.Err = NotFound
		return s
	}
	defer f.Close()

	// Check the header dimensions before decoding allocates the bitmap.
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		s.Err = Unsupported
		return s
	}
	if padTo(cfg.Width, tileSize) > MaxDimension || padTo(cfg.Height, tileSize) > MaxDimension {
		s.SrcWidth, s.SrcHeight = cfg.Width, cfg.Height
		s.Err = TooLarge
		return s
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.Err = Unsupported
		return s
	}

	src, _, err := image.Decode(f)
	if err != nil {
		s.Err = Unsupported
		return s
	}

	s.Err = s.slice(src, opts)
	return s
}

// FromImage slices an already decoded image. Used for in-memory sources.
func FromImage(src image.Image, name string, tileSize, id int, opts Options) *Sheet {
	opts = opts.normalized()
	s := &Sheet{ID: id, FileName: name, Path: name, TileSize: tileSize, displaySize: opts.DisplaySize}
	if src == nil || tileSize <= 0 {
		s.Err = InvalidArg
		return s
	}
	s.Err = s.slice(src, opts)
	return s
}

// slice pads src when needed and cuts it into row-major display tiles.
func (s *Sheet) slice(src image.Image, opts Options) SheetError {
	b := src.Bounds()
	s.SrcWidth, s.SrcHeight = b.Dx(), b.Dy()
	if s.SrcWidth == 0 || s.SrcHeight == 0 {
		return Unsupported
	}

	result := Success
	s.Width = padTo(s.SrcWidth, s.TileSize)
	s.Height = padTo(s.SrcHeight, s.TileSize)
	if s.Width != s.SrcWidth || s.Height != s.SrcHeight {
		result = SizeMismatch
	}

	if s.Width > MaxDimension || s.Height > MaxDimension {
		return TooLarge
	}

	var sheetImg image.Image = src
	if result == SizeMismatch {
		padded := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
		draw.Draw(padded, padded.Bounds(), image.NewUniform(opts.PadColor), image.Point{}, draw.Src)
		draw.Draw(padded, image.Rect(0, 0, s.SrcWidth, s.SrcHeight), src, b.Min, draw.Src)
		sheetImg = padded
	}
	origin := sheetImg.Bounds().Min

	s.Cols = s.Width / s.TileSize
	s.Rows = s.Height / s.TileSize
	s.tiles = make([]*image.RGBA, 0, s.Cols*s.Rows)

	dstRect := image.Rect(0, 0, opts.DisplaySize, opts.DisplaySize)
	for row := range s.Rows {
		for col := range s.Cols {
			srcRect := image.Rect(col*s.TileSize, row*s.TileSize, (col+1)*s.TileSize, (row+1)*s.TileSize).Add(origin)
			tile := image.NewRGBA(dstRect)
			opts.Scaler.Scale(tile, dstRect, sheetImg, srcRect, xdraw.Src, nil)
			s.tiles = append(s.tiles, tile)
		}
	}
	return result
}

// padTo rounds n up to the next multiple of step.
func padTo(n, step int) int {
	if extra := n % step; extra != 0 {
		return n + step - extra
	}
	return n
}

// NumTiles returns the number of tiles still held by the sheet.
func (s *Sheet) NumTiles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}

// DisplaySize returns the edge length of each tile image.
func (s *Sheet) DisplaySize() int {
	return s.displaySize
}

// Tile returns the display image at index in row-major slice order.
// The image is shared; callers must not modify it.
func (s *Sheet) Tile(index int) (*image.RGBA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.tiles) {
		return nil, false
	}
	return s.tiles[index], true
}

// Close releases every tile image. Safe to call more than once.
func (s *Sheet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tiles {
		s.tiles[i] = nil
	}
	s.tiles = nil
}
