package render

import (
	"image"
	"image/color"
	"time"

	xdraw "golang.org/x/image/draw"
)

// Start launches the render loop. Calling Start on a running renderer does
// nothing.
func (r *Renderer) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
}

// Stop asks the render loop to exit and waits for it.
func (r *Renderer) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	r.ForceDraw()
	r.wg.Wait()
}

// ForceDraw wakes the render loop without waiting for the idle timeout.
// Never blocks; pending wakes coalesce.
func (r *Renderer) ForceDraw() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Renderer) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Renderer) run() {
	defer r.wg.Done()

	timer := time.NewTimer(r.cfg.IdleTimeout)
	defer timer.Stop()

	for {
		select {
		case <-r.wake:
		case <-timer.C:
		}
		timer.Reset(r.cfg.IdleTimeout)

		if !r.isRunning() {
			return
		}

		if err := r.Sync(); err != nil {
			r.logger.Warn("could not replay level deltas", "error", err)
		}
		frame := r.Compose()

		// Publish outside the lock so mutators are not blocked by the shell.
		if r.presenter != nil {
			r.presenter.PresentFrame(frame)
		}
		r.mu.Lock()
		r.frames++
		r.mu.Unlock()
	}
}

// Sync replays pending deltas from the attached model now instead of
// waiting for the next frame. The model is drained before the grid lock is
// taken, so the two locks are never held together. Concurrent calls are
// serialized.
func (r *Renderer) Sync() error {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()

	r.mu.Lock()
	src := r.source
	r.mu.Unlock()
	if src == nil {
		return nil
	}

	deltas := src.Deltas()
	if len(deltas) == 0 {
		return nil
	}
	return r.ApplyDeltas(deltas)
}

// Compose renders the grid into a new frame. Occupied cells draw their
// cached bitmap, empty cells draw a grid outline.
func (r *Renderer) Compose() *image.RGBA {
	ts := r.cfg.TileSize
	frame := image.NewRGBA(image.Rect(0, 0, r.cfg.Cols*ts, r.cfg.Rows*ts))
	xdraw.Draw(frame, frame.Bounds(), image.NewUniform(r.cfg.Background), image.Point{}, xdraw.Src)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sq := range r.grid {
		col, row := i%r.cfg.Cols, i/r.cfg.Cols
		dst := image.Rect(col*ts, row*ts, (col+1)*ts, (row+1)*ts)

		if sq.HasTile() {
			if e, ok := r.cache[CacheKey{SheetID: sq.SheetID, TileIndex: sq.TileIndex}]; ok && e.bitmap != nil {
				xdraw.Draw(frame, dst, e.bitmap, image.Point{}, xdraw.Over)
				continue
			}
		}
		drawOutline(frame, dst, r.cfg.GridColor)
	}
	return frame
}

// drawOutline draws a one pixel border just inside rect.
func drawOutline(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	if rect.Empty() {
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, c)
		img.SetRGBA(x, rect.Max.Y-1, c)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, c)
		img.SetRGBA(rect.Max.X-1, y, c)
	}
}
