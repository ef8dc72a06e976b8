// Package level holds the authoring model of a tile map. Every mutation is
// recorded as a Delta so an observer that does not own the model (the render
// pipeline) can replay changes onto its own view.
package level

import (
	"image"
	"math"
	"sync"
)

// Empty marks an unused sheet, tile, placeable or trigger slot.
const Empty = -1

const (
	// MaxDimension bounds the width and height of a level in cells.
	MaxDimension = math.MaxInt16

	// MaxCells bounds cols*rows.
	MaxCells = 1 << 20
)

// Square is one cell of the map. Placeable and Trigger are reserved for
// object placement and stay Empty for now.
type Square struct {
	SheetID   int `json:"sheetId"`
	TileIndex int `json:"tileIndex"`
	Placeable int `json:"placeable"`
	Trigger   int `json:"trigger"`
}

// EmptySquare returns a cell with nothing in it.
func EmptySquare() Square {
	return Square{SheetID: Empty, TileIndex: Empty, Placeable: Empty, Trigger: Empty}
}

// HasTile reports whether the square shows a tile.
func (s Square) HasTile() bool {
	return s.SheetID != Empty
}

// DeltaKind identifies what a delta changes.
type DeltaKind int

const (
	// DeltaTile repaints or clears the tile of one square.
	DeltaTile DeltaKind = iota
)

// Delta is a recorded mutation of one square. Deltas are replayed exactly
// once, in the order they were recorded.
type Delta struct {
	Kind      DeltaKind
	Index     int
	X, Y      int
	SheetID   int
	TileIndex int
}

// IsClear reports whether the delta empties its square.
func (d Delta) IsClear() bool {
	return d.SheetID == Empty
}

// Level is a cols x rows tile map. Squares are stored row-major:
// index = y*Cols + x.
type Level struct {
	Name string
	Cols int
	Rows int

	mu      sync.RWMutex
	squares []Square

	deltaMu sync.Mutex
	deltas  []Delta
}

// New creates an empty level. Dimensions are clamped to
// [1, MaxDimension] and rows is reduced until cols*rows fits MaxCells.
func New(name string, cols, rows int) *Level {
	cols = min(max(cols, 1), MaxDimension)
	rows = min(max(rows, 1), MaxDimension, MaxCells/cols)
	squares := make([]Square, cols*rows)
	for i := range squares {
		squares[i] = EmptySquare()
	}
	return &Level{
		Name:    name,
		Cols:    cols,
		Rows:    rows,
		squares: squares,
	}
}

// InBounds returns true if (x, y) is inside the map.
func (l *Level) InBounds(x, y int) bool {
	return x >= 0 && x < l.Cols && y >= 0 && y < l.Rows
}

// Square returns the cell at (x, y), or an empty cell when out of bounds.
func (l *Level) Square(x, y int) Square {
	if !l.InBounds(x, y) {
		return EmptySquare()
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.squares[y*l.Cols+x]
}

// PaintTile sets the tile at (x, y) and records a delta.
// Out-of-bounds coordinates are ignored.
func (l *Level) PaintTile(x, y, sheetID, tileIndex int) {
	if !l.InBounds(x, y) {
		return
	}
	if sheetID == Empty {
		tileIndex = Empty
	}
	index := y*l.Cols + x

	// Log order must equal write order.
	l.mu.Lock()
	defer l.mu.Unlock()
	l.squares[index].SheetID = sheetID
	l.squares[index].TileIndex = tileIndex
	l.addDelta(Delta{
		Kind:      DeltaTile,
		Index:     index,
		X:         x,
		Y:         y,
		SheetID:   sheetID,
		TileIndex: tileIndex,
	})
}

// PaintTiles fills the rectangle spanned by two corners, inclusive.
func (l *Level) PaintTiles(a, b image.Point, sheetID, tileIndex int) {
	r := image.Rectangle{Min: a, Max: b}.Canon()
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			l.PaintTile(x, y, sheetID, tileIndex)
		}
	}
}

// ClearTile empties the tile at (x, y).
func (l *Level) ClearTile(x, y int) {
	l.PaintTile(x, y, Empty, Empty)
}

// ClearTiles empties the rectangle spanned by two corners, inclusive.
func (l *Level) ClearTiles(a, b image.Point) {
	l.PaintTiles(a, b, Empty, Empty)
}

// Deltas drains the delta log. Only the observer that keeps its view in sync
// should call this; drained deltas are gone for everyone else.
func (l *Level) Deltas() []Delta {
	l.deltaMu.Lock()
	defer l.deltaMu.Unlock()
	if len(l.deltas) == 0 {
		return nil
	}
	out := l.deltas
	l.deltas = nil
	return out
}

// PendingDeltas returns how many deltas are waiting to be drained.
func (l *Level) PendingDeltas() int {
	l.deltaMu.Lock()
	defer l.deltaMu.Unlock()
	return len(l.deltas)
}

func (l *Level) addDelta(d Delta) {
	l.deltaMu.Lock()
	l.deltas = append(l.deltas, d)
	l.deltaMu.Unlock()
}

// Painted returns every square that shows a tile, in row-major order.
func (l *Level) Painted() []Cell {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var cells []Cell
	for i, sq := range l.squares {
		if sq.HasTile() {
			cells = append(cells, Cell{X: i % l.Cols, Y: i / l.Cols, SheetID: sq.SheetID, TileIndex: sq.TileIndex})
		}
	}
	return cells
}

// Cell is a painted square with its coordinates.
type Cell struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	SheetID   int `json:"sheetId"`
	TileIndex int `json:"tileIndex"`
}
