package tui

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tileforge/internal/engine"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

func newTestEditor(t *testing.T) (EditorModel, *engine.Engine, *engine.ChannelShell) {
	t.Helper()
	shell := engine.NewChannelShell(64)
	cfg := engine.DefaultConfig()
	cfg.Render.Cols, cfg.Render.Rows = 4, 3
	cfg.SavePath = filepath.Join(t.TempDir(), "level.json")
	eng := engine.New(cfg, shell, nil)
	return NewEditorModel(eng, shell, 16), eng, shell
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m EditorModel, msg tea.Msg) EditorModel {
	next, _ := m.Update(msg)
	return next.(EditorModel)
}

func TestCursorMovementIsClamped(t *testing.T) {
	m, _, _ := newTestEditor(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.Cursor() != image.Pt(0, 0) {
		t.Errorf("cursor must stay inside the map, got %v", m.Cursor())
	}

	for range 10 {
		m = update(m, tea.KeyMsg{Type: tea.KeyRight})
		m = update(m, keyRunes("j"))
	}
	if m.Cursor() != image.Pt(3, 2) {
		t.Errorf("expected cursor at (3,2), got %v", m.Cursor())
	}
}

func TestPaintKeySubmitsClick(t *testing.T) {
	m, eng, _ := newTestEditor(t)

	m = update(m, tea.KeyMsg{Type: tea.KeyRight})
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(m, keyRunes("x"))

	if eng.Pending() != 2 {
		t.Fatalf("expected 2 queued clicks, got %d", eng.Pending())
	}
	if got := m.cellCenter(m.Cursor()); got != image.Pt(96, 32) {
		t.Errorf("expected cell center (96,32), got %v", got)
	}
}

func TestImportPrompt(t *testing.T) {
	m, eng, shell := newTestEditor(t)
	path := writeSheet(t, 32, 16)

	m = update(m, keyRunes("i"))
	if m.prompt != promptImport {
		t.Fatal("i must open the import prompt")
	}
	m.input.SetValue(path + " 16")
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.prompt != promptNone {
		t.Error("enter must close the prompt")
	}

	eng.Start()
	eng.Stop()

	var result *engine.ImportResultEvent
	for len(shell.Events()) > 0 {
		evt := <-shell.Events()
		m = m.handleEvent(evt)
		if r, ok := evt.(engine.ImportResultEvent); ok {
			result = &r
		}
	}
	if result == nil || result.Err != tilesheet.Success || result.Path != path {
		t.Fatalf("unexpected import result %+v", result)
	}
	if !strings.Contains(m.Status(), "Importing "+path+" at 16 pixels per tile.") {
		t.Errorf("unexpected status %q", m.Status())
	}
}

func TestPromptEscapeCancels(t *testing.T) {
	m, eng, _ := newTestEditor(t)

	m = update(m, keyRunes("s"))
	if m.prompt != promptSave {
		t.Fatal("s must open the save prompt")
	}
	if m.input.Value() != eng.Config().SavePath {
		t.Errorf("save prompt should offer the default path, got %q", m.input.Value())
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.prompt != promptNone || eng.Pending() != 0 {
		t.Error("esc must cancel without submitting")
	}
}

func TestMouseClicks(t *testing.T) {
	m, eng, _ := newTestEditor(t)

	m = update(m, tea.MouseMsg{X: 5, Y: mapTop + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.Cursor() != image.Pt(2, 1) {
		t.Errorf("expected cursor (2,1), got %v", m.Cursor())
	}
	m = update(m, tea.MouseMsg{X: 1, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = update(m, tea.MouseMsg{X: 1, Y: mapTop, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	if eng.Pending() != 1 {
		t.Errorf("only presses inside the map submit clicks, got %d", eng.Pending())
	}
}

func TestEventsUpdateView(t *testing.T) {
	m, _, _ := newTestEditor(t)

	m = m.handleEvent(engine.StatusEvent{Text: "hello"})
	m = m.handleEvent(engine.PopupEvent{Text: "careful"})
	m = m.handleEvent(engine.ImportResultEvent{Path: "a.png", Err: tilesheet.NotFound})

	if m.Status() != "hello" {
		t.Errorf("unexpected status %q", m.Status())
	}
	if !strings.Contains(m.popup, "a.png") {
		t.Errorf("failed import should raise a popup, got %q", m.popup)
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.popup != "" {
		t.Error("esc must dismiss the popup")
	}
	if !strings.Contains(m.View(), "hello") {
		t.Error("view must show the status line")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestEditor(t)
	next, cmd := m.Update(keyRunes("q"))
	if !next.(EditorModel).IsQuitting() || cmd == nil {
		t.Error("q must quit")
	}
}

func TestParseImportInput(t *testing.T) {
	tests := []struct {
		in       string
		path     string
		size     int
		wantErrs bool
	}{
		{"tiles.png", "tiles.png", 32, false},
		{"tiles.png 16", "tiles.png", 16, false},
		{"my tiles.png", "my tiles.png", 32, false},
		{"my tiles.png  8", "my tiles.png", 8, false},
		{"tiles.png 0", "", 0, true},
		{"   ", "", 0, true},
	}
	for _, tt := range tests {
		path, size, err := ParseImportInput(tt.in, 32)
		if (err != nil) != tt.wantErrs {
			t.Errorf("ParseImportInput(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErrs && (path != tt.path || size != tt.size) {
			t.Errorf("ParseImportInput(%q) = %q, %d", tt.in, path, size)
		}
	}
}

func writeSheet(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: 0x80, B: uint8(y * 8), A: 0xFF})
		}
	}
	path := filepath.Join(t.TempDir(), "sheet.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}
