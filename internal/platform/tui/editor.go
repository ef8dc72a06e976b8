// Package tui provides the Bubble Tea front end for the editor engine,
// including SSH server support via Wish.
package tui

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tileforge/internal/engine"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// Rows above the map in the editor view: title and blank line.
const mapTop = 2

// paletteWidth is how many swatches the palette line shows.
const paletteWidth = 24

type promptKind int

const (
	promptNone promptKind = iota
	promptImport
	promptSave
	promptLoad
)

func (p promptKind) label() string {
	switch p {
	case promptImport:
		return "Import (path [tile size]): "
	case promptSave:
		return "Save to: "
	case promptLoad:
		return "Open: "
	default:
		return ""
	}
}

// EventMsg wraps an engine event for the Bubble Tea loop.
type EventMsg struct {
	Event engine.Event
}

// waitForEvent blocks until the shell emits an event or is closed.
func waitForEvent(shell *engine.ChannelShell) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-shell.Events():
			return EventMsg{Event: evt}
		case <-shell.Done():
			return nil
		}
	}
}

// EditorModel is the Bubble Tea model for the map editor.
// It owns no level state: every edit is submitted to the engine and the
// view is rebuilt from the frames the renderer publishes.
type EditorModel struct {
	engine *engine.Engine
	shell  *engine.ChannelShell
	keys   EditorKeyMap
	help   help.Model
	input  textinput.Model
	prompt promptKind

	cols, rows, tileSize int
	importTileSize       int
	cursor               image.Point
	frame                *image.RGBA

	sheets      []*tilesheet.Sheet
	sheetCursor int
	tileCursor  int

	title    string
	status   string
	popup    string
	width    int
	height   int
	quitting bool
}

// NewEditorModel creates an editor bound to eng. shell must be the shell eng
// was created with. importTileSize is the source tile size offered when an
// import prompt omits one.
func NewEditorModel(eng *engine.Engine, shell *engine.ChannelShell, importTileSize int) EditorModel {
	rcfg := eng.Renderer().Config()
	if importTileSize <= 0 {
		importTileSize = rcfg.TileSize
	}

	in := textinput.New()
	in.CharLimit = 512
	in.Width = 60

	h := help.New()
	h.ShowAll = false

	return EditorModel{
		engine:         eng,
		shell:          shell,
		keys:           DefaultEditorKeyMap(),
		help:           h,
		input:          in,
		cols:           rcfg.Cols,
		rows:           rcfg.Rows,
		tileSize:       rcfg.TileSize,
		importTileSize: importTileSize,
		sheets:         eng.Manager().Sheets(),
		title:          "TILEFORGE",
	}
}

// WithTitle sets the title line.
func (m EditorModel) WithTitle(title string) EditorModel {
	m.title = title
	return m
}

// Init starts listening for engine events.
func (m EditorModel) Init() tea.Cmd {
	return waitForEvent(m.shell)
}

// Update handles messages and updates the model state.
func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m = m.handleEvent(msg.Event)
		return m, waitForEvent(m.shell)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.handlePromptKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m EditorModel) handleEvent(evt engine.Event) EditorModel {
	switch e := evt.(type) {
	case engine.StatusEvent:
		m.status = e.Text
	case engine.PopupEvent:
		m.popup = e.Text
	case engine.FrameEvent:
		m.frame = e.Frame
	case engine.SheetAddedEvent:
		m.sheets = m.engine.Manager().Sheets()
		for i, s := range m.sheets {
			if s.ID == e.Sheet.ID {
				m.sheetCursor = i
				m.tileCursor = 0
			}
		}
	case engine.ImportResultEvent:
		if !e.Err.IsAccepted() {
			m.popup = fmt.Sprintf("Could not import %s: %s", e.Path, e.Err)
		}
	}
	return m
}

func (m EditorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		m.popup = ""

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		m.cursor.Y = max(m.cursor.Y-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor.Y = min(m.cursor.Y+1, m.rows-1)
	case key.Matches(msg, m.keys.Left):
		m.cursor.X = max(m.cursor.X-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.cursor.X = min(m.cursor.X+1, m.cols-1)

	case key.Matches(msg, m.keys.Paint):
		m.engine.SubmitMapClick(m.cellCenter(m.cursor), false)
	case key.Matches(msg, m.keys.Clear):
		m.engine.SubmitMapClick(m.cellCenter(m.cursor), true)

	case key.Matches(msg, m.keys.NextTile):
		m = m.moveTile(1)
	case key.Matches(msg, m.keys.PrevTile):
		m = m.moveTile(-1)
	case key.Matches(msg, m.keys.NextSheet):
		m = m.moveSheet(1)
	case key.Matches(msg, m.keys.PrevSheet):
		m = m.moveSheet(-1)

	case key.Matches(msg, m.keys.Import):
		return m.openPrompt(promptImport, "")
	case key.Matches(msg, m.keys.Save):
		return m.openPrompt(promptSave, m.engine.Config().SavePath)
	case key.Matches(msg, m.keys.Load):
		return m.openPrompt(promptLoad, m.engine.Config().SavePath)
	}
	return m, nil
}

func (m EditorModel) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.prompt = kind
	m.input.Prompt = kind.label()
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m EditorModel) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = promptNone
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.prompt = promptNone
		m.input.Blur()
		m.input.SetValue("")
		m.submitPrompt(kind, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m EditorModel) submitPrompt(kind promptKind, value string) {
	switch kind {
	case promptImport:
		path, size, err := ParseImportInput(value, m.importTileSize)
		if err != nil {
			m.engine.SubmitMessage(err.Error(), true)
			return
		}
		m.engine.SubmitImport(path, size, m.shell.ImportCallback(path))
	case promptSave:
		m.engine.SubmitSave(value)
	case promptLoad:
		m.engine.SubmitLoad(value)
	}
}

// ParseImportInput splits "path [tile size]". A trailing integer field is
// the tile size; otherwise defaultSize is used.
func ParseImportInput(input string, defaultSize int) (string, int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", 0, fmt.Errorf("no file given")
	}

	size := defaultSize
	if i := strings.LastIndexAny(input, " \t"); i >= 0 {
		if n, err := strconv.Atoi(input[i+1:]); err == nil {
			if n <= 0 {
				return "", 0, fmt.Errorf("tile size must be positive, got %d", n)
			}
			size = n
			input = strings.TrimSpace(input[:i])
		}
	}
	return input, size, nil
}

func (m EditorModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	cell, ok := m.cellFromMouse(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.cursor = cell

	switch msg.Button {
	case tea.MouseButtonLeft:
		m.engine.SubmitMapClick(m.cellCenter(cell), false)
	case tea.MouseButtonRight:
		m.engine.SubmitMapClick(m.cellCenter(cell), true)
	}
	return m, nil
}

// cellFromMouse maps a terminal position to a map cell.
func (m EditorModel) cellFromMouse(x, y int) (image.Point, bool) {
	cy := y - mapTop
	cx := x / cellWidth
	if x < 0 || cy < 0 || cx >= m.cols || cy >= m.rows {
		return image.Point{}, false
	}
	return image.Pt(cx, cy), true
}

// cellCenter returns the display pixel at the middle of cell.
func (m EditorModel) cellCenter(cell image.Point) image.Point {
	half := m.tileSize / 2
	return image.Pt(cell.X*m.tileSize+half, cell.Y*m.tileSize+half)
}

func (m EditorModel) currentSheet() *tilesheet.Sheet {
	if m.sheetCursor < 0 || m.sheetCursor >= len(m.sheets) {
		return nil
	}
	return m.sheets[m.sheetCursor]
}

func (m EditorModel) moveTile(delta int) EditorModel {
	sheet := m.currentSheet()
	if sheet == nil || sheet.NumTiles() == 0 {
		return m
	}
	n := sheet.NumTiles()
	m.tileCursor = ((m.tileCursor+delta)%n + n) % n
	m.engine.SubmitTileSelected(sheet.ID, m.tileCursor)
	return m
}

func (m EditorModel) moveSheet(delta int) EditorModel {
	if len(m.sheets) == 0 {
		return m
	}
	n := len(m.sheets)
	m.sheetCursor = ((m.sheetCursor+delta)%n + n) % n
	m.tileCursor = 0
	if sheet := m.currentSheet(); sheet != nil && sheet.NumTiles() > 0 {
		m.engine.SubmitTileSelected(sheet.ID, 0)
	}
	return m
}

// Status returns the last status line.
func (m EditorModel) Status() string {
	return m.status
}

// Cursor returns the cursor cell.
func (m EditorModel) Cursor() image.Point {
	return m.cursor
}

// IsQuitting returns true if the user asked to quit.
func (m EditorModel) IsQuitting() bool {
	return m.quitting
}

// View renders the editor.
func (m EditorModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	b.WriteString(RenderFrame(m.frame, m.cols, m.rows, m.tileSize, m.cursor))
	b.WriteString("\n\n")

	b.WriteString(m.renderPalette())
	b.WriteString("\n")

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")

	switch {
	case m.prompt != promptNone:
		b.WriteString(m.input.View())
	case m.popup != "":
		popupStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
		b.WriteString(popupStyle.Render(m.popup + "\n(esc to dismiss)"))
	}
	b.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m EditorModel) renderPalette() string {
	sheet := m.currentSheet()
	if sheet == nil {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Render("No tile sheets yet. Press i to import one.")
	}

	label := fmt.Sprintf("Sheet %d %s (%d/%d tiles) ", sheet.ID, sheet.FileName, m.tileCursor+1, sheet.NumTiles())
	return label + RenderPalette(sheet, m.tileCursor, paletteWidth)
}

// Run starts the engine, runs the editor until the user quits, then stops
// the engine and closes the shell.
func Run(eng *engine.Engine, shell *engine.ChannelShell, importTileSize int) error {
	eng.Start()
	defer func() {
		eng.Stop()
		shell.Close()
	}()

	p := tea.NewProgram(
		NewEditorModel(eng, shell, importTileSize),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
