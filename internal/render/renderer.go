// Package render owns the authoritative tile grid and the refcounted bitmap
// cache, and composes frames for the shell on its own schedule.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tileforge/internal/level"
)

var (
	// ErrOutOfBounds is returned for cell coordinates outside the grid.
	ErrOutOfBounds = errors.New("render: cell out of bounds")

	// ErrUnknownTile is returned when a tile cannot be resolved from its sheet.
	ErrUnknownTile = errors.New("render: unknown tile")
)

// TileSource resolves a (sheet, tile) pair to its display image.
type TileSource interface {
	Tile(sheetID, index int) (image.Image, bool)
}

// FramePresenter receives composed frames. Each frame is freshly allocated
// and owned by the presenter.
type FramePresenter interface {
	PresentFrame(frame *image.RGBA)
}

// DeltaSource is a model the renderer observes but does not own.
type DeltaSource interface {
	Deltas() []level.Delta
}

// Config holds grid and scheduling parameters.
type Config struct {
	Cols        int
	Rows        int
	TileSize    int           // Display pixels per cell
	IdleTimeout time.Duration // Redraw interval when nothing forces a draw
	Background  color.RGBA
	GridColor   color.RGBA
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Cols:        20,
		Rows:        20,
		TileSize:    64,
		IdleTimeout: 250 * time.Millisecond,
		Background:  color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		GridColor:   color.RGBA{A: 0xFF},
	}
}

// Renderer is the render pipeline. The grid and cache share one lock and are
// only mutated through PaintTile, ClearTile and the delta replay.
type Renderer struct {
	cfg       Config
	tiles     TileSource
	presenter FramePresenter
	logger    *log.Logger

	mu      sync.Mutex
	grid    []level.Square
	cache   map[CacheKey]*cacheEntry
	source  DeltaSource
	running bool
	frames  uint64

	// syncMu serializes drain and replay so batches apply in drain order.
	syncMu sync.Mutex

	wake chan struct{}
	wg   sync.WaitGroup
}

// New creates a renderer with an empty grid.
func New(cfg Config, tiles TileSource, presenter FramePresenter, logger *log.Logger) *Renderer {
	def := DefaultConfig()
	if cfg.Cols <= 0 {
		cfg.Cols = def.Cols
	}
	if cfg.Rows <= 0 {
		cfg.Rows = def.Rows
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = def.TileSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if logger == nil {
		logger = log.Default()
	}

	grid := make([]level.Square, cfg.Cols*cfg.Rows)
	for i := range grid {
		grid[i] = level.EmptySquare()
	}

	return &Renderer{
		cfg:       cfg,
		tiles:     tiles,
		presenter: presenter,
		logger:    logger,
		grid:      grid,
		cache:     make(map[CacheKey]*cacheEntry),
		wake:      make(chan struct{}, 1),
	}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Attach makes the render loop replay deltas from src before each frame.
// Pass nil to detach.
func (r *Renderer) Attach(src DeltaSource) {
	r.mu.Lock()
	r.source = src
	r.mu.Unlock()
	r.ForceDraw()
}

func (r *Renderer) index(x, y int) (int, bool) {
	if x < 0 || x >= r.cfg.Cols || y < 0 || y >= r.cfg.Rows {
		return 0, false
	}
	return y*r.cfg.Cols + x, true
}

// PaintTile shows (sheetID, tileIndex) at cell (x, y). Painting the pair a
// cell already shows is a no-op. Painting sheet level.Empty clears the cell.
func (r *Renderer) PaintTile(sheetID, tileIndex, x, y int) error {
	r.mu.Lock()
	changed, err := r.paintLocked(sheetID, tileIndex, x, y)
	r.mu.Unlock()

	if changed {
		r.ForceDraw()
	}
	return err
}

func (r *Renderer) paintLocked(sheetID, tileIndex, x, y int) (bool, error) {
	if sheetID == level.Empty {
		return r.clearLocked(x, y)
	}
	idx, ok := r.index(x, y)
	if !ok {
		return false, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}

	sq := &r.grid[idx]
	if sq.SheetID == sheetID && sq.TileIndex == tileIndex {
		return false, nil
	}

	key := CacheKey{SheetID: sheetID, TileIndex: tileIndex}
	if !r.acquireLocked(key) {
		return false, fmt.Errorf("%w: sheet %d tile %d", ErrUnknownTile, sheetID, tileIndex)
	}
	if sq.HasTile() {
		r.releaseLocked(CacheKey{SheetID: sq.SheetID, TileIndex: sq.TileIndex})
	}

	sq.SheetID = sheetID
	sq.TileIndex = tileIndex
	return true, nil
}

// ClearTile empties cell (x, y). Clearing an empty cell is a no-op.
func (r *Renderer) ClearTile(x, y int) error {
	r.mu.Lock()
	changed, err := r.clearLocked(x, y)
	r.mu.Unlock()

	if changed {
		r.ForceDraw()
	}
	return err
}

func (r *Renderer) clearLocked(x, y int) (bool, error) {
	idx, ok := r.index(x, y)
	if !ok {
		return false, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}

	sq := &r.grid[idx]
	if !sq.HasTile() {
		return false, nil
	}

	r.releaseLocked(CacheKey{SheetID: sq.SheetID, TileIndex: sq.TileIndex})
	sq.SheetID = level.Empty
	sq.TileIndex = level.Empty
	return true, nil
}

// ClearAll empties every cell and releases the whole cache.
func (r *Renderer) ClearAll() {
	r.mu.Lock()
	for i := range r.grid {
		r.grid[i].SheetID = level.Empty
		r.grid[i].TileIndex = level.Empty
	}
	for key, e := range r.cache {
		e.release()
		delete(r.cache, key)
	}
	r.mu.Unlock()
	r.ForceDraw()
}

// ApplyDeltas replays deltas in order. Deltas that cannot be applied are
// skipped and reported together.
func (r *Renderer) ApplyDeltas(deltas []level.Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	r.mu.Lock()
	changed, err := r.applyLocked(deltas)
	r.mu.Unlock()

	if changed {
		r.ForceDraw()
	}
	return err
}

func (r *Renderer) applyLocked(deltas []level.Delta) (bool, error) {
	var errs []error
	changed := false
	for _, d := range deltas {
		if d.Kind != level.DeltaTile {
			continue
		}
		c, err := r.paintLocked(d.SheetID, d.TileIndex, d.X, d.Y)
		if err != nil {
			errs = append(errs, err)
		}
		changed = changed || c
	}
	return changed, errors.Join(errs...)
}

// Cell returns the square at (x, y).
func (r *Renderer) Cell(x, y int) (level.Square, bool) {
	idx, ok := r.index(x, y)
	if !ok {
		return level.EmptySquare(), false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grid[idx], true
}

// Cells returns every painted cell in row-major order.
func (r *Renderer) Cells() []level.Cell {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cells []level.Cell
	for i, sq := range r.grid {
		if sq.HasTile() {
			cells = append(cells, level.Cell{
				X:         i % r.cfg.Cols,
				Y:         i / r.cfg.Cols,
				SheetID:   sq.SheetID,
				TileIndex: sq.TileIndex,
			})
		}
	}
	return cells
}

// Frames returns how many frames the render loop has published.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}
