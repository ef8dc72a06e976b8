package level

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// DefaultFileName is used when a save is requested without a path.
const DefaultFileName = "level.json"

var (
	// ErrEmptyDocument is returned when a level file has no body.
	ErrEmptyDocument = errors.New("level: empty document")

	// ErrBadDimensions is returned for level sizes outside the supported range.
	ErrBadDimensions = errors.New("level: bad dimensions")
)

// Document is the top-level object of a level file.
type Document struct {
	TileManager tilesheet.State `json:"tileManager"`
	Level       State           `json:"level"`
}

// State is the persisted form of a Level.
type State struct {
	Name  string `json:"name"`
	Cols  int    `json:"cols"`
	Rows  int    `json:"rows"`
	Cells []Cell `json:"cells,omitempty"`
}

// State captures the level dimensions and painted cells.
func (l *Level) State() State {
	return State{Name: l.Name, Cols: l.Cols, Rows: l.Rows, Cells: l.Painted()}
}

// Validate checks the stored dimensions. Zero cols and rows together mean
// the size was not saved; otherwise both must be in [1, MaxDimension] and
// their product at most MaxCells.
func (st State) Validate() error {
	if st.Cols == 0 && st.Rows == 0 {
		return nil
	}
	if st.Cols < 1 || st.Rows < 1 || st.Cols > MaxDimension || st.Rows > MaxDimension ||
		st.Cols > MaxCells/st.Rows {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, st.Cols, st.Rows)
	}
	return nil
}

// FromState builds a level and paints every stored cell. The resulting delta
// log holds one entry per cell, ready to be replayed by an observer.
func FromState(st State) *Level {
	l := New(st.Name, st.Cols, st.Rows)
	for _, c := range st.Cells {
		l.PaintTile(c.X, c.Y, c.SheetID, c.TileIndex)
	}
	return l
}

// EncodeFragment serializes doc and strips the outer braces. Level files hold
// the body of the top-level object, not a complete document.
func EncodeFragment(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("level: cannot encode document: %w", err)
	}
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("{"))
	data = bytes.TrimSuffix(data, []byte("}"))
	return append(bytes.TrimSpace(data), '\n'), nil
}

// DecodeFragment wraps a level file body in the top-level delimiters and
// parses it.
func DecodeFragment(body []byte) (Document, error) {
	var doc Document
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return doc, ErrEmptyDocument
	}

	wrapped := make([]byte, 0, len(body)+2)
	wrapped = append(wrapped, '{')
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, '}')

	if err := json.Unmarshal(wrapped, &doc); err != nil {
		return doc, fmt.Errorf("level: cannot parse document: %w", err)
	}
	if err := doc.Level.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Save writes doc to path, creating parent directories as needed.
func Save(path string, doc Document) error {
	if path == "" {
		path = DefaultFileName
	}
	data, err := EncodeFragment(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("level: cannot create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("level: cannot write %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the level file at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("level: cannot read %s: %w", path, err)
	}
	doc, err := DecodeFragment(data)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
