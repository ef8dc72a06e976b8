package tilesheet

import (
	"image"
	"sort"
	"sync"
)

// NoSheet is the ID reported for rejected imports and empty selections.
const NoSheet = -1

// Manager owns every imported sheet and hands out IDs that are never reused.
// Thread-safe: the engine imports while shells read sheets.
type Manager struct {
	opts Options

	mu     sync.RWMutex
	sheets map[int]*Sheet
	nextID int
}

// NewManager creates an empty manager using opts for every import.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:   opts.normalized(),
		sheets: make(map[int]*Sheet),
	}
}

// Options returns the slicing options used for imports.
func (m *Manager) Options() Options {
	return m.opts
}

// CreateNewSheet imports the image at path. Accepted sheets (Success or
// SizeMismatch) get the next ID; rejected ones return NoSheet.
func (m *Manager) CreateNewSheet(path string, tileSize int) (int, SheetError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet := Load(path, tileSize, m.nextID, m.opts)
	return m.register(sheet), sheet.Err
}

// AddImage imports an already decoded image under name.
func (m *Manager) AddImage(src image.Image, name string, tileSize int) (int, SheetError) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet := FromImage(src, name, tileSize, m.nextID, m.opts)
	return m.register(sheet), sheet.Err
}

// register must be called with the lock held.
func (m *Manager) register(sheet *Sheet) int {
	if !sheet.Err.IsAccepted() {
		sheet.Close()
		return NoSheet
	}
	m.sheets[sheet.ID] = sheet
	m.nextID = sheet.ID + 1
	return sheet.ID
}

// GetSheet returns the sheet with the given ID.
func (m *Manager) GetSheet(id int) (*Sheet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sheets[id]
	return s, ok
}

// Tile resolves a (sheet, tile) pair to its display image.
func (m *Manager) Tile(sheetID, index int) (image.Image, bool) {
	sheet, ok := m.GetSheet(sheetID)
	if !ok {
		return nil, false
	}
	tile, ok := sheet.Tile(index)
	if !ok {
		return nil, false
	}
	return tile, true
}

// Sheets returns all sheets ordered by ID.
func (m *Manager) Sheets() []*Sheet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Sheet, 0, len(m.sheets))
	for _, s := range m.sheets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered sheets.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sheets)
}

// NextID returns the ID the next accepted import will receive.
func (m *Manager) NextID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nextID
}

// Unload removes a sheet and releases its tiles. The ID stays retired.
func (m *Manager) Unload(id int) bool {
	m.mu.Lock()
	s, ok := m.sheets[id]
	delete(m.sheets, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Close releases every sheet.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sheets {
		s.Close()
		delete(m.sheets, id)
	}
}
