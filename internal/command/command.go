// Package command defines the closed set of actions the editor engine accepts.
// Each kind has its own payload type, so a handler never has to guess what a
// command carries.
package command

import (
	"image"

	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// Kind enumerates command kinds.
type Kind int

const (
	KindNone Kind = iota
	KindMapLeftClick
	KindMapRightClick
	KindMessage
	KindMessagePopup
	KindSheetImport
	KindTileSelected
	KindSaveLevel
	KindLoadLevel
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMapLeftClick:
		return "map-left-click"
	case KindMapRightClick:
		return "map-right-click"
	case KindMessage:
		return "message"
	case KindMessagePopup:
		return "message-popup"
	case KindSheetImport:
		return "sheet-import"
	case KindTileSelected:
		return "tile-selected"
	case KindSaveLevel:
		return "save-level"
	case KindLoadLevel:
		return "load-level"
	default:
		return "unknown"
	}
}

// Command is an immutable request for the engine.
// The unexported marker keeps the set of implementations closed.
type Command interface {
	Kind() Kind
	command()
}

// ImportCallback receives the result of a sheet import exactly once.
type ImportCallback func(err tilesheet.SheetError)

// None is a command that does nothing.
type None struct{}

func (None) Kind() Kind { return KindNone }
func (None) command() {}

// MapClick is a click on the map in display pixel coordinates.
type MapClick struct {
	X, Y  int
	Right bool
}

// Kind reports left or right click.
func (c MapClick) Kind() Kind {
	if c.Right {
		return KindMapRightClick
	}
	return KindMapLeftClick
}
func (MapClick) command() {}

// Message carries text for the status bar, or a modal when Popup is set.
type Message struct {
	Text  string
	Popup bool
}

// Kind reports message or message-popup.
func (c Message) Kind() Kind {
	if c.Popup {
		return KindMessagePopup
	}
	return KindMessage
}
func (Message) command() {}

// SheetImport asks the engine to import a tile sheet.
type SheetImport struct {
	Path     string
	TileSize int
	Done     ImportCallback
}

func (SheetImport) Kind() Kind { return KindSheetImport }
func (SheetImport) command() {}

// TileSelected changes the tile that left clicks paint.
type TileSelected struct {
	SheetID   int
	TileIndex int
}

func (TileSelected) Kind() Kind { return KindTileSelected }
func (TileSelected) command() {}

// SaveLevel writes the current level to Path.
type SaveLevel struct {
	Path string
}

func (SaveLevel) Kind() Kind { return KindSaveLevel }
func (SaveLevel) command() {}

// LoadLevel replaces the current level with the one stored at Path.
type LoadLevel struct {
	Path string
}

func (LoadLevel) Kind() Kind { return KindLoadLevel }
func (LoadLevel) command() {}

// NewMapClick builds a left or right click command.
func NewMapClick(loc image.Point, right bool) Command {
	return MapClick{X: loc.X, Y: loc.Y, Right: right}
}

// NewMessage builds a status or popup message command.
func NewMessage(text string, popup bool) Command {
	return Message{Text: text, Popup: popup}
}

// NewSheetImport builds an import command.
func NewSheetImport(path string, tileSize int, done ImportCallback) Command {
	return SheetImport{Path: path, TileSize: tileSize, Done: done}
}

// NewTileSelected builds a tile selection command.
func NewTileSelected(sheetID, tileIndex int) Command {
	return TileSelected{SheetID: sheetID, TileIndex: tileIndex}
}

// NewSaveLevel builds a save command.
func NewSaveLevel(path string) Command {
	return SaveLevel{Path: path}
}

// NewLoadLevel builds a load command.
func NewLoadLevel(path string) Command {
	return LoadLevel{Path: path}
}
