package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// CacheKey addresses one tile of one sheet.
type CacheKey struct {
	SheetID   int
	TileIndex int
}

// cacheEntry owns a private copy of a tile bitmap. refs counts the grid
// squares currently showing the tile; the entry is evicted at zero.
type cacheEntry struct {
	bitmap *image.RGBA
	refs   int
}

func (e *cacheEntry) release() {
	e.bitmap = nil
	e.refs = 0
}

// materialize copies src into a size x size bitmap owned by the cache.
func materialize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	sb := src.Bounds()
	if sb.Dx() == size && sb.Dy() == size {
		xdraw.Draw(dst, dst.Bounds(), src, sb.Min, xdraw.Src)
		return dst
	}
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst
}

// acquireLocked takes one reference on key, materializing the entry on a miss.
// Returns false if the tile cannot be resolved.
func (r *Renderer) acquireLocked(key CacheKey) bool {
	if e, ok := r.cache[key]; ok {
		e.refs++
		return true
	}
	if r.tiles == nil {
		return false
	}
	src, ok := r.tiles.Tile(key.SheetID, key.TileIndex)
	if !ok {
		return false
	}
	r.cache[key] = &cacheEntry{bitmap: materialize(src, r.cfg.TileSize), refs: 1}
	return true
}

// releaseLocked drops one reference on key and evicts the entry at zero.
func (r *Renderer) releaseLocked(key CacheKey) {
	e, ok := r.cache[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		e.release()
		delete(r.cache, key)
	}
}

// RefCount returns the reference count of a cache entry.
func (r *Renderer) RefCount(key CacheKey) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.cache[key]
	if !ok {
		return 0, false
	}
	return e.refs, true
}

// CacheLen returns the number of live cache entries.
func (r *Renderer) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
