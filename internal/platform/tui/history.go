package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tileforge/internal/storage"
)

// maxHistory is how many records each tab loads.
const maxHistory = 200

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.NextTab, k.Quit}}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "imports/levels"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type historyTab int

const (
	tabImports historyTab = iota
	tabLevels
)

// HistoryModel is the Bubble Tea model for browsing import and level history.
type HistoryModel struct {
	store    *storage.Store
	tab      historyTab
	imports  []storage.ImportEntry
	levels   []storage.LevelEntry
	table    table.Model
	help     help.Model
	keys     HistoryKeyMap
	width    int
	height   int
	err      error
	quitting bool
}

// NewHistoryModel creates a history browser over store.
func NewHistoryModel(store *storage.Store, width, height int) HistoryModel {
	h := help.New()
	h.ShowAll = false

	m := HistoryModel{
		store:  store,
		keys:   DefaultHistoryKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.reload()
	return m
}

func (m *HistoryModel) reload() {
	m.err = nil
	if m.store != nil {
		var err error
		if m.imports, err = m.store.RecentImports(maxHistory); err != nil {
			m.err = err
		}
		if m.levels, err = m.store.RecentLevels(maxHistory); err != nil {
			m.err = err
		}
	}
	m.table = m.createTable()
}

// createTable builds the table for the current tab.
func (m *HistoryModel) createTable() table.Model {
	var columns []table.Column
	var rows []table.Row

	switch m.tab {
	case tabImports:
		columns = []table.Column{
			{Title: "When", Width: 14},
			{Title: "Sheet", Width: 6},
			{Title: "Tile", Width: 5},
			{Title: "Tiles", Width: 6},
			{Title: "Result", Width: 16},
			{Title: "Path", Width: 30},
		}
		for _, e := range m.imports {
			sheet := "-"
			if e.Accepted() {
				sheet = fmt.Sprintf("%d", e.SheetID)
			}
			rows = append(rows, table.Row{
				e.CreatedAt.Format("Jan 02 15:04"),
				sheet,
				fmt.Sprintf("%d", e.TileSize),
				fmt.Sprintf("%d", e.Tiles),
				e.Result,
				e.Path,
			})
		}
	case tabLevels:
		columns = []table.Column{
			{Title: "When", Width: 14},
			{Title: "Action", Width: 7},
			{Title: "Sheets", Width: 7},
			{Title: "Cells", Width: 6},
			{Title: "Path", Width: 40},
		}
		for _, e := range m.levels {
			rows = append(rows, table.Row{
				e.CreatedAt.Format("Jan 02 15:04"),
				e.Action,
				fmt.Sprintf("%d", e.Sheets),
				fmt.Sprintf("%d", e.Cells),
				e.Path,
			})
		}
	}

	// Give the path column whatever width is left
	if m.width > 0 {
		used := 0
		for _, c := range columns[:len(columns)-1] {
			used += c.Width + 2
		}
		if rest := m.width - used - 6; rest > 20 {
			columns[len(columns)-1].Width = rest
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 5)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// Rows returns how many records the current tab shows.
func (m HistoryModel) Rows() int {
	if m.tab == tabImports {
		return len(m.imports)
	}
	return len(m.levels)
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			if m.tab == tabImports {
				m.tab = tabLevels
			} else {
				m.tab = tabImports
			}
			m.table = m.createTable()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	b.WriteString(titleStyle.Render(centerText("HISTORY", m.width)))
	b.WriteString("\n\n")

	names := []string{"Imports", "Levels"}
	tabs := make([]string, len(names))
	for i, name := range names {
		if historyTab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.err.Error()))
	case m.Rows() == 0:
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		b.WriteString(tableStyle.Render(emptyStyle.Render("Nothing recorded yet.")))
	default:
		b.WriteString(tableStyle.Render(m.table.View()))
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// RunHistory runs the history screen.
func RunHistory(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewHistoryModel(store, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
