package engine

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/tileforge/internal/command"
	"github.com/vovakirdan/tileforge/internal/level"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// dispatch handles one command. A panicking handler is logged and the
// dispatcher moves on to the next command.
func (e *Engine) dispatch(cmd command.Command) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command handler panicked", "kind", kindOf(cmd), "panic", r)
		}
	}()

	switch c := cmd.(type) {
	case nil, command.None:
	case command.MapClick:
		if c.Right {
			e.handleRightClick(c)
		} else {
			e.handleLeftClick(c)
		}
	case command.Message:
		if c.Popup {
			e.shell.ShowPopup(c.Text)
		} else {
			e.shell.ShowStatusMessage(c.Text)
		}
	case command.SheetImport:
		e.handleImport(c)
	case command.TileSelected:
		e.handleTileSelected(c)
	case command.SaveLevel:
		e.handleSave(c)
	case command.LoadLevel:
		e.handleLoad(c)
	default:
		e.logger.Warn("unhandled command", "kind", cmd.Kind())
	}
}

// CellAt maps a display pixel position to grid coordinates.
func (e *Engine) CellAt(px, py int) (int, int) {
	ts := e.config.Render.TileSize
	return floorDiv(px, ts), floorDiv(py, ts)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (e *Engine) status(format string, args ...any) {
	e.shell.ShowStatusMessage(fmt.Sprintf(format, args...))
}

func (e *Engine) handleLeftClick(c command.MapClick) {
	cx, cy := e.CellAt(c.X, c.Y)
	e.status("Map Left Clicked at (%d, %d) grid evaluates to (%d, %d).", c.X, c.Y, cx, cy)

	sel := e.Selection()
	if !sel.Valid() {
		return
	}
	if err := e.renderer.PaintTile(sel.SheetID, sel.TileIndex, cx, cy); err != nil {
		e.logger.Warn("paint failed", "x", cx, "y", cy, "sheet", sel.SheetID, "tile", sel.TileIndex, "error", err)
	}
}

func (e *Engine) handleRightClick(c command.MapClick) {
	cx, cy := e.CellAt(c.X, c.Y)
	e.status("Map Right Clicked at (%d, %d) grid evaluates to (%d, %d).", c.X, c.Y, cx, cy)

	if err := e.renderer.ClearTile(cx, cy); err != nil {
		e.logger.Warn("clear failed", "x", cx, "y", cy, "error", err)
	}
}

func (e *Engine) handleImport(c command.SheetImport) {
	result := tilesheet.Unsupported
	defer func() {
		if c.Done != nil {
			c.Done(result)
		}
	}()

	id, res := e.sheets.CreateNewSheet(c.Path, c.TileSize)
	result = res
	rec := ImportRecord{Path: c.Path, TileSize: c.TileSize, SheetID: id, Result: result}

	if id != tilesheet.NoSheet {
		if sheet, ok := e.sheets.GetSheet(id); ok {
			rec.Tiles = sheet.NumTiles()
			e.shell.ShowNewTileSheet(sheet)
		}
		e.status("Importing %s at %d pixels per tile.", c.Path, c.TileSize)
		e.logger.Info("sheet imported", "path", c.Path, "id", id, "tiles", rec.Tiles, "result", result)
	} else {
		e.logger.Warn("sheet import rejected", "path", c.Path, "tileSize", c.TileSize, "result", result)
	}

	if e.imports != nil {
		if err := e.imports.RecordImport(rec); err != nil {
			e.logger.Warn("could not record import", "path", c.Path, "error", err)
		}
	}
}

func (e *Engine) handleTileSelected(c command.TileSelected) {
	sel := Selection{SheetID: c.SheetID, TileIndex: c.TileIndex}
	if c.SheetID == level.Empty {
		sel = NoSelection
	}
	e.setSelection(sel)
	e.status("Tile Selected - SheetID: %d Tile Index: %d", c.SheetID, c.TileIndex)
}

func (e *Engine) savePath(path string) string {
	if path == "" {
		return e.config.SavePath
	}
	return path
}

func (e *Engine) handleSave(c command.SaveLevel) {
	path := e.savePath(c.Path)
	rcfg := e.renderer.Config()

	doc := level.Document{
		TileManager: e.sheets.State(),
		Level: level.State{
			Name:  e.config.LevelName,
			Cols:  rcfg.Cols,
			Rows:  rcfg.Rows,
			Cells: e.renderer.Cells(),
		},
	}
	if err := level.Save(path, doc); err != nil {
		e.logger.Error("save failed", "path", path, "error", err)
		e.shell.ShowPopup(fmt.Sprintf("Could not save level: %v", err))
		return
	}

	e.status("Level saved to %s.", path)
	e.logger.Info("level saved", "path", path, "sheets", len(doc.TileManager.Sheets), "cells", len(doc.Level.Cells))
	e.recordLevel(LevelRecord{
		Path:   path,
		Action: LevelSaved,
		Sheets: len(doc.TileManager.Sheets),
		Cells:  len(doc.Level.Cells),
	})
}

// handleLoad replaces the sheets and the grid with the stored level. A file
// that cannot be read or parsed leaves the current level untouched.
func (e *Engine) handleLoad(c command.LoadLevel) {
	path := e.savePath(c.Path)

	doc, err := level.Load(path)
	if err != nil {
		e.logger.Error("load failed", "path", path, "error", err)
		e.shell.ShowPopup(fmt.Sprintf("Could not load level: %v", err))
		return
	}

	// The document is valid from here on; only now is the current level
	// replaced.
	e.renderer.ClearAll()
	e.setSelection(NoSelection)

	sheets, err := e.sheets.Restore(doc.TileManager)
	var restoreErr *tilesheet.RestoreError
	if errors.As(err, &restoreErr) {
		for id, res := range restoreErr.Failed {
			e.logger.Warn("sheet failed to reload", "id", id, "result", res)
		}
		for _, id := range restoreErr.Duplicates {
			e.logger.Warn("duplicate sheet ID skipped", "id", id)
		}
	}
	for _, s := range sheets {
		e.shell.ShowNewTileSheet(s)
	}

	// Replay onto a model the size of the renderer grid. Cells outside it
	// are dropped.
	st := doc.Level
	rcfg := e.renderer.Config()
	if (st.Cols != 0 && st.Cols != rcfg.Cols) || (st.Rows != 0 && st.Rows != rcfg.Rows) {
		e.logger.Warn("level size differs from the grid",
			"path", path, "level", fmt.Sprintf("%dx%d", st.Cols, st.Rows),
			"grid", fmt.Sprintf("%dx%d", rcfg.Cols, rcfg.Rows))
	}
	st.Cols, st.Rows = rcfg.Cols, rcfg.Rows
	lvl := level.FromState(st)
	if err := e.renderer.ApplyDeltas(lvl.Deltas()); err != nil {
		e.logger.Warn("some cells could not be placed", "path", path, "error", err)
	}

	cells := len(e.renderer.Cells())
	e.status("Level loaded from %s (%d sheets, %d tiles).", path, len(sheets), cells)
	e.logger.Info("level loaded", "path", path, "sheets", len(sheets), "cells", cells)
	e.recordLevel(LevelRecord{Path: path, Action: LevelLoaded, Sheets: len(sheets), Cells: cells})
}

func (e *Engine) recordLevel(rec LevelRecord) {
	if e.levels == nil {
		return
	}
	if err := e.levels.RecordLevel(rec); err != nil {
		e.logger.Warn("could not record level", "path", rec.Path, "error", err)
	}
}
