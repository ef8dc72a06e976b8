package tilesheet

import "fmt"

// SheetState is the persisted description of one sheet.
type SheetState struct {
	ID       int    `json:"id"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	TileSize int    `json:"tileSize"`
}

// State is the serializable form of a Manager.
type State struct {
	NextID int          `json:"nextId"`
	Sheets []SheetState `json:"sheets"`
}

// RestoreError lists sheets that could not be reloaded. Duplicates holds IDs
// that appeared more than once; only the first entry for an ID is loaded.
type RestoreError struct {
	Failed     map[int]SheetError
	Duplicates []int
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("tilesheet: %d sheet(s) failed to reload", len(e.Failed)+len(e.Duplicates))
}

// State captures the manager's sheet metadata.
func (m *Manager) State() State {
	st := State{NextID: m.NextID()}
	for _, s := range m.Sheets() {
		st.Sheets = append(st.Sheets, SheetState{
			ID:       s.ID,
			FileName: s.FileName,
			Path:     s.Path,
			TileSize: s.TileSize,
		})
	}
	return st
}

// Restore replaces the loaded sheets with the ones described by st, keeping
// their IDs. The ID counter only moves forward so IDs handed out before the
// restore are never issued again. Sheets that fail to decode are skipped and
// reported through a *RestoreError.
func (m *Manager) Restore(st State) ([]*Sheet, error) {
	loaded := make([]*Sheet, 0, len(st.Sheets))
	failed := make(map[int]SheetError)
	seen := make(map[int]bool, len(st.Sheets))
	var duplicates []int
	maxID := NoSheet

	for _, ss := range st.Sheets {
		if ss.ID < 0 {
			failed[ss.ID] = InvalidArg
			continue
		}
		if seen[ss.ID] {
			duplicates = append(duplicates, ss.ID)
			continue
		}
		seen[ss.ID] = true
		s := Load(ss.Path, ss.TileSize, ss.ID, m.opts)
		if !s.Err.IsAccepted() {
			failed[ss.ID] = s.Err
			continue
		}
		loaded = append(loaded, s)
		maxID = max(maxID, ss.ID)
	}

	m.mu.Lock()
	old := m.sheets
	m.sheets = make(map[int]*Sheet, len(loaded))
	for _, s := range loaded {
		m.sheets[s.ID] = s
	}
	m.nextID = max(m.nextID, st.NextID, maxID+1)
	m.mu.Unlock()

	for _, s := range old {
		s.Close()
	}

	if len(failed) > 0 || len(duplicates) > 0 {
		return loaded, &RestoreError{Failed: failed, Duplicates: duplicates}
	}
	return loaded, nil
}
