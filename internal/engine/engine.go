// Package engine serializes editor actions onto a single dispatch goroutine
// and drives the tile sheet manager and the renderer on their behalf.
package engine

import (
	"image"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tileforge/internal/command"
	"github.com/vovakirdan/tileforge/internal/level"
	"github.com/vovakirdan/tileforge/internal/render"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// Config holds engine configuration.
type Config struct {
	Render    render.Config
	Sheets    tilesheet.Options
	LevelName string // Name written into saved levels
	SavePath  string // Default path for save and load
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Render:    render.DefaultConfig(),
		Sheets:    tilesheet.DefaultOptions(),
		LevelName: "untitled",
		SavePath:  level.DefaultFileName,
	}
}

// ImportRecorder is an interface for recording sheet imports.
// This allows the engine to keep a history without depending on the storage package.
type ImportRecorder interface {
	RecordImport(rec ImportRecord) error
}

// ImportRecord describes one finished import.
type ImportRecord struct {
	Path     string
	TileSize int
	SheetID  int
	Result   tilesheet.SheetError
	Tiles    int
}

// LevelRecorder is an interface for recording level saves and loads.
type LevelRecorder interface {
	RecordLevel(rec LevelRecord) error
}

// LevelAction tells saves and loads apart in a LevelRecord.
type LevelAction string

const (
	LevelSaved  LevelAction = "save"
	LevelLoaded LevelAction = "load"
)

// LevelRecord describes one successful save or load.
type LevelRecord struct {
	Path   string
	Action LevelAction
	Sheets int
	Cells  int
}

// Selection is the tile the next left click paints.
type Selection struct {
	SheetID   int
	TileIndex int
}

// NoSelection is the selection before any tile is picked.
var NoSelection = Selection{SheetID: level.Empty, TileIndex: level.Empty}

// Valid reports whether the selection names a tile.
func (s Selection) Valid() bool {
	return s.SheetID != level.Empty && s.TileIndex >= 0
}

// Engine owns the command queue, the tile sheet manager and the renderer.
// Every command is handled on the dispatch goroutine, in enqueue order.
type Engine struct {
	config   Config
	shell    Shell
	logger   *log.Logger
	sheets   *tilesheet.Manager
	renderer *render.Renderer

	imports ImportRecorder // Optional, can be nil
	levels  LevelRecorder  // Optional, can be nil

	mu      sync.Mutex
	queue   []command.Command
	running bool
	stopped bool
	wake    chan struct{}
	wg      sync.WaitGroup

	selMu     sync.RWMutex
	selection Selection
}

// New creates an engine. shell receives status messages, popups, new sheets
// and frames; it may be nil. A nil logger uses the default logger.
func New(cfg Config, shell Shell, logger *log.Logger) *Engine {
	if shell == nil {
		shell = nopShell{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.SavePath == "" {
		cfg.SavePath = level.DefaultFileName
	}

	sheets := tilesheet.NewManager(cfg.Sheets)
	rcfg := cfg.Render
	if rcfg.TileSize <= 0 {
		rcfg.TileSize = sheets.Options().DisplaySize
	}

	e := &Engine{
		config:    cfg,
		shell:     shell,
		logger:    logger,
		sheets:    sheets,
		wake:      make(chan struct{}, 1),
		selection: NoSelection,
	}
	e.renderer = render.New(rcfg, sheets, shell, logger.WithPrefix("render"))
	e.config.Render = e.renderer.Config()
	return e
}

// SetImportRecorder sets the optional import recorder.
func (e *Engine) SetImportRecorder(rec ImportRecorder) {
	e.imports = rec
}

// SetLevelRecorder sets the optional level recorder.
func (e *Engine) SetLevelRecorder(rec LevelRecorder) {
	e.levels = rec
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Manager returns the tile sheet manager.
func (e *Engine) Manager() *tilesheet.Manager {
	return e.sheets
}

// Renderer returns the render pipeline.
func (e *Engine) Renderer() *render.Renderer {
	return e.renderer
}

// Selection returns the current tile selection.
func (e *Engine) Selection() Selection {
	e.selMu.RLock()
	defer e.selMu.RUnlock()
	return e.selection
}

func (e *Engine) setSelection(s Selection) {
	e.selMu.Lock()
	e.selection = s
	e.selMu.Unlock()
}

// Start launches the renderer and the dispatch goroutine. Commands enqueued
// before Start are handled once it runs. Start after Stop does nothing.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.stopped {
		e.mu.Unlock()
		return
	}
	e.running = true
	pending := len(e.queue) > 0
	e.mu.Unlock()

	e.renderer.Start()
	e.wg.Add(1)
	go e.run()
	if pending {
		e.notify()
	}
	e.logger.Debug("engine started")
}

// Stop stops the renderer, handles every command already queued, then
// waits for the dispatch goroutine to exit. Later commands are dropped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasRunning := e.running
	e.running = false
	e.mu.Unlock()

	e.renderer.Stop()
	if wasRunning {
		e.notify()
		e.wg.Wait()
	}
	e.sheets.Close()
	e.logger.Debug("engine stopped")
}

// Enqueue appends cmd to the queue and wakes the dispatch goroutine. It
// never blocks on the dispatcher. It reports false once the engine has been
// stopped.
func (e *Engine) Enqueue(cmd command.Command) bool {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		e.logger.Debug("dropping command after stop", "kind", kindOf(cmd))
		return false
	}
	e.queue = append(e.queue, cmd)
	e.mu.Unlock()

	e.notify()
	return true
}

// Pending returns the number of queued commands not yet taken by the
// dispatcher.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) run() {
	defer e.wg.Done()

	for range e.wake {
		e.mu.Lock()
		batch := e.queue
		e.queue = nil
		running := e.running
		e.mu.Unlock()

		for _, cmd := range batch {
			e.dispatch(cmd)
		}
		if !running {
			return
		}
	}
}

// SubmitMapClick queues a click at pixel position p on the map.
func (e *Engine) SubmitMapClick(p image.Point, right bool) bool {
	return e.Enqueue(command.NewMapClick(p, right))
}

// SubmitImport queues a sheet import. done, if not nil, is called exactly
// once on the dispatch goroutine with the import result.
func (e *Engine) SubmitImport(path string, tileSize int, done command.ImportCallback) bool {
	return e.Enqueue(command.NewSheetImport(path, tileSize, done))
}

// SubmitTileSelected queues a palette selection.
func (e *Engine) SubmitTileSelected(sheetID, tileIndex int) bool {
	return e.Enqueue(command.NewTileSelected(sheetID, tileIndex))
}

// SubmitSave queues a level save. An empty path uses the configured default.
func (e *Engine) SubmitSave(path string) bool {
	return e.Enqueue(command.NewSaveLevel(path))
}

// SubmitLoad queues a level load. An empty path uses the configured default.
func (e *Engine) SubmitLoad(path string) bool {
	return e.Enqueue(command.NewLoadLevel(path))
}

// SubmitMessage queues a message for the shell, shown as a popup if popup
// is set and on the status line otherwise.
func (e *Engine) SubmitMessage(text string, popup bool) bool {
	return e.Enqueue(command.NewMessage(text, popup))
}

func kindOf(cmd command.Command) command.Kind {
	if cmd == nil {
		return command.KindNone
	}
	return cmd.Kind()
}
