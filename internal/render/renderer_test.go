package render

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/tileforge/internal/level"
)

// fakeTiles resolves any tile index below count on any non-negative sheet,
// painting each tile a solid color derived from its key.
type fakeTiles struct {
	mu    sync.Mutex
	count int
	calls int
}

func (f *fakeTiles) Tile(sheetID, index int) (image.Image, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if sheetID < 0 || index < 0 || index >= f.count {
		return nil, false
	}
	c := color.RGBA{R: uint8(sheetID * 40), G: uint8(index * 20), B: 0x80, A: 0xFF}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img, true
}

type frameSink struct {
	mu     sync.Mutex
	frames []*image.RGBA
	got    chan struct{}
}

func newFrameSink() *frameSink {
	return &frameSink{got: make(chan struct{}, 64)}
}

func (s *frameSink) PresentFrame(frame *image.RGBA) {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	select {
	case s.got <- struct{}{}:
	default:
	}
}

func newTestRenderer(t *testing.T, cols, rows int) (*Renderer, *fakeTiles) {
	t.Helper()
	tiles := &fakeTiles{count: 16}
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows, cfg.TileSize = cols, rows, 8
	return New(cfg, tiles, nil, nil), tiles
}

func TestPaintTileSharesCacheEntry(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 4)

	if err := r.PaintTile(5, 2, 0, 0); err != nil {
		t.Fatalf("PaintTile() failed: %v", err)
	}
	if err := r.PaintTile(5, 2, 1, 0); err != nil {
		t.Fatalf("PaintTile() failed: %v", err)
	}
	if err := r.ClearTile(0, 0); err != nil {
		t.Fatalf("ClearTile() failed: %v", err)
	}

	refs, ok := r.RefCount(CacheKey{SheetID: 5, TileIndex: 2})
	if !ok {
		t.Fatal("entry for (5,2) must not be evicted while a cell shows it")
	}
	if refs != 1 {
		t.Errorf("expected refcount 1, got %d", refs)
	}

	r.ClearTile(1, 0)
	if _, ok := r.RefCount(CacheKey{SheetID: 5, TileIndex: 2}); ok {
		t.Error("entry must be evicted when its last cell is cleared")
	}
	if r.CacheLen() != 0 {
		t.Errorf("expected empty cache, got %d entries", r.CacheLen())
	}
}

func TestPaintTileIdempotent(t *testing.T) {
	r, tiles := newTestRenderer(t, 2, 2)

	r.PaintTile(1, 1, 0, 0)
	r.PaintTile(1, 1, 0, 0)

	refs, _ := r.RefCount(CacheKey{SheetID: 1, TileIndex: 1})
	if refs != 1 {
		t.Errorf("repeated paint must count once, got %d", refs)
	}
	if tiles.calls != 1 {
		t.Errorf("expected one materialization, got %d", tiles.calls)
	}
}

func TestRepaintReleasesPreviousTile(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 2)

	r.PaintTile(0, 1, 0, 0)
	r.PaintTile(0, 2, 0, 0)

	if _, ok := r.RefCount(CacheKey{SheetID: 0, TileIndex: 1}); ok {
		t.Error("overwritten tile must release its cache entry")
	}
	if refs, _ := r.RefCount(CacheKey{SheetID: 0, TileIndex: 2}); refs != 1 {
		t.Errorf("expected new tile refcount 1, got %d", refs)
	}
}

func TestPaintTileErrors(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 2)

	if err := r.PaintTile(0, 0, 2, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := r.ClearTile(-1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if err := r.PaintTile(0, 99, 0, 0); !errors.Is(err, ErrUnknownTile) {
		t.Errorf("expected ErrUnknownTile, got %v", err)
	}
	if sq, _ := r.Cell(0, 0); sq.HasTile() {
		t.Error("failed paint must not touch the cell")
	}
	if r.CacheLen() != 0 {
		t.Error("failed paint must not create cache entries")
	}
}

func TestClearEmptyCellIsNoop(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 2)
	if err := r.ClearTile(1, 1); err != nil {
		t.Errorf("ClearTile() on empty cell failed: %v", err)
	}
}

func TestPaintEmptySheetClears(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 2)
	r.PaintTile(3, 3, 1, 1)
	r.PaintTile(level.Empty, level.Empty, 1, 1)
	if sq, _ := r.Cell(1, 1); sq.HasTile() {
		t.Error("painting the empty sheet must clear the cell")
	}
	if r.CacheLen() != 0 {
		t.Errorf("expected empty cache, got %d", r.CacheLen())
	}
}

// TestRefCountInvariant runs random paint/clear sequences and checks that
// every cache entry counts exactly the cells showing it.
func TestRefCountInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r, _ := newTestRenderer(t, 5, 5)

	for step := range 2000 {
		x, y := rng.Intn(5), rng.Intn(5)
		if rng.Intn(3) == 0 {
			r.ClearTile(x, y)
		} else {
			r.PaintTile(rng.Intn(3), rng.Intn(4), x, y)
		}

		if step%100 != 0 {
			continue
		}
		counts := make(map[CacheKey]int)
		for _, c := range r.Cells() {
			counts[CacheKey{SheetID: c.SheetID, TileIndex: c.TileIndex}]++
		}
		if r.CacheLen() != len(counts) {
			t.Fatalf("step %d: cache has %d entries, grid shows %d keys", step, r.CacheLen(), len(counts))
		}
		for key, want := range counts {
			got, ok := r.RefCount(key)
			if !ok || got != want {
				t.Fatalf("step %d: key %+v refcount %d (present=%v), want %d", step, key, got, ok, want)
			}
		}
	}
}

func TestComposeDrawsTilesAndOutlines(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 1)
	r.PaintTile(1, 2, 0, 0)

	frame := r.Compose()
	if frame.Bounds() != image.Rect(0, 0, 16, 8) {
		t.Fatalf("unexpected frame bounds %v", frame.Bounds())
	}

	want := color.RGBA{R: 40, G: 40, B: 0x80, A: 0xFF}
	if got := frame.RGBAAt(4, 4); got != want {
		t.Errorf("expected tile color %v, got %v", want, got)
	}

	cfg := r.Config()
	if got := frame.RGBAAt(8, 0); got != cfg.GridColor {
		t.Errorf("expected outline at empty cell corner, got %v", got)
	}
	if got := frame.RGBAAt(12, 4); got != cfg.Background {
		t.Errorf("expected background inside empty cell, got %v", got)
	}
}

func TestApplyDeltasReplaysInOrder(t *testing.T) {
	r, _ := newTestRenderer(t, 3, 3)
	l := level.New("t", 3, 3)
	l.PaintTile(0, 0, 1, 1)
	l.PaintTile(1, 0, 1, 1)
	l.ClearTile(0, 0)
	l.PaintTile(2, 2, 2, 3)

	if err := r.ApplyDeltas(l.Deltas()); err != nil {
		t.Fatalf("ApplyDeltas() failed: %v", err)
	}

	if sq, _ := r.Cell(0, 0); sq.HasTile() {
		t.Error("cell (0,0) should be cleared by the later delta")
	}
	if refs, _ := r.RefCount(CacheKey{SheetID: 1, TileIndex: 1}); refs != 1 {
		t.Errorf("expected refcount 1 for (1,1), got %d", refs)
	}
	if sq, _ := r.Cell(2, 2); sq.SheetID != 2 || sq.TileIndex != 3 {
		t.Errorf("unexpected cell (2,2): %+v", sq)
	}
}

func TestApplyDeltasReportsFailures(t *testing.T) {
	r, _ := newTestRenderer(t, 2, 2)
	err := r.ApplyDeltas([]level.Delta{
		{Kind: level.DeltaTile, X: 0, Y: 0, SheetID: 0, TileIndex: 0},
		{Kind: level.DeltaTile, X: 5, Y: 5, SheetID: 0, TileIndex: 0},
	})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds in joined error, got %v", err)
	}
	if sq, _ := r.Cell(0, 0); !sq.HasTile() {
		t.Error("valid delta must still apply")
	}
}

func TestRenderLoopPublishesAndSyncs(t *testing.T) {
	sink := newFrameSink()
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows, cfg.TileSize = 2, 2, 4
	cfg.IdleTimeout = 10 * time.Millisecond
	r := New(cfg, &fakeTiles{count: 4}, sink, nil)

	l := level.New("t", 2, 2)
	r.Attach(l)
	r.Start()
	defer r.Stop()

	l.PaintTile(1, 1, 0, 3)

	deadline := time.After(2 * time.Second)
	for {
		if sq, _ := r.Cell(1, 1); sq.HasTile() {
			break
		}
		select {
		case <-sink.got:
		case <-deadline:
			t.Fatal("render loop never replayed the level delta")
		}
	}

	if l.PendingDeltas() != 0 {
		t.Errorf("deltas should be drained, %d pending", l.PendingDeltas())
	}
}

func TestIdleTimeoutRedraws(t *testing.T) {
	sink := newFrameSink()
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows, cfg.TileSize = 1, 1, 2
	cfg.IdleTimeout = 5 * time.Millisecond
	r := New(cfg, nil, sink, nil)
	r.Start()

	for i := range 3 {
		select {
		case <-sink.got:
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d never arrived", i)
		}
	}
	r.Stop()

	if r.Frames() < 3 {
		t.Errorf("expected at least 3 frames, got %d", r.Frames())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	r, _ := newTestRenderer(t, 1, 1)
	r.Stop()
	r.Start()
	r.Start()
	r.Stop()
	r.Stop()
}

func TestConcurrentMutators(t *testing.T) {
	r, _ := newTestRenderer(t, 8, 8)
	r.Start()
	defer r.Stop()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				x, y := (i+w)%8, (i*w)%8
				if i%3 == 0 {
					r.ClearTile(x, y)
				} else {
					r.PaintTile(w%2, i%4, x, y)
				}
			}
		}()
	}
	wg.Wait()

	total := 0
	keys := make(map[CacheKey]bool)
	for _, c := range r.Cells() {
		keys[CacheKey{SheetID: c.SheetID, TileIndex: c.TileIndex}] = true
	}
	for key := range keys {
		n, _ := r.RefCount(key)
		total += n
	}
	if total != len(r.Cells()) {
		t.Errorf("refcounts sum to %d, grid shows %d tiles", total, len(r.Cells()))
	}
}

func TestConcurrentSyncKeepsDrainOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cols, cfg.Rows, cfg.TileSize = 2, 2, 4
	cfg.IdleTimeout = time.Millisecond
	r := New(cfg, &fakeTiles{count: 16}, nil, nil)

	l := level.New("t", 2, 2)
	r.Attach(l)
	r.Start()
	defer r.Stop()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					r.Sync()
				}
			}
		}()
	}

	for i := range 2000 {
		l.PaintTile(0, 0, 0, i%16)
	}
	close(stop)
	wg.Wait()
	if err := r.Sync(); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	sq, _ := r.Cell(0, 0)
	if want := l.Square(0, 0); sq.SheetID != want.SheetID || sq.TileIndex != want.TileIndex {
		t.Errorf("renderer shows %+v, level holds %+v", sq, want)
	}
	if r.CacheLen() != 1 {
		t.Errorf("expected one cached tile, got %d", r.CacheLen())
	}
}
