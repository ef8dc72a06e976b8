package engine

import (
	"image"
	"sync"

	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// Shell is the UI layer the engine and renderer report to.
// Implementations are called from background goroutines and must not block.
type Shell interface {
	ShowStatusMessage(text string)
	ShowPopup(text string)
	ShowNewTileSheet(sheet *tilesheet.Sheet)
	PresentFrame(frame *image.RGBA)
}

type nopShell struct{}

func (nopShell) ShowStatusMessage(string) {}
func (nopShell) ShowPopup(string) {}
func (nopShell) ShowNewTileSheet(*tilesheet.Sheet) {}
func (nopShell) PresentFrame(*image.RGBA) {}

// Event is something the engine tells the shell.
type Event interface {
	shellEvent()
}

// StatusEvent updates the status line.
type StatusEvent struct {
	Text string
}

func (StatusEvent) shellEvent() {}

// PopupEvent asks the shell for a modal message.
type PopupEvent struct {
	Text string
}

func (PopupEvent) shellEvent() {}

// SheetAddedEvent announces a newly available sheet.
type SheetAddedEvent struct {
	Sheet *tilesheet.Sheet
}

func (SheetAddedEvent) shellEvent() {}

// FrameEvent carries a composed frame.
type FrameEvent struct {
	Frame *image.RGBA
}

func (FrameEvent) shellEvent() {}

// ImportResultEvent reports the outcome of an import the shell started.
type ImportResultEvent struct {
	Path string
	Err  tilesheet.SheetError
}

func (ImportResultEvent) shellEvent() {}

// ChannelShell is a Shell that turns every call into an Event on a buffered
// channel. The shell's own loop reads Events() and updates its view.
type ChannelShell struct {
	events   chan Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelShell creates a channel shell. bufferSize controls how many
// events can be pending before the oldest is dropped.
func NewChannelShell(bufferSize int) *ChannelShell {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &ChannelShell{
		events: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
}

// Send queues an event. If the buffer is full the oldest event is dropped.
func (s *ChannelShell) Send(evt Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel the shell reads from.
func (s *ChannelShell) Events() <-chan Event {
	return s.events
}

// Done returns a channel closed by Close.
func (s *ChannelShell) Done() <-chan struct{} {
	return s.done
}

// Close stops accepting events. Safe to call multiple times.
func (s *ChannelShell) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// ShowStatusMessage implements Shell.
func (s *ChannelShell) ShowStatusMessage(text string) {
	s.Send(StatusEvent{Text: text})
}

// ShowPopup implements Shell.
func (s *ChannelShell) ShowPopup(text string) {
	s.Send(PopupEvent{Text: text})
}

// ShowNewTileSheet implements Shell.
func (s *ChannelShell) ShowNewTileSheet(sheet *tilesheet.Sheet) {
	s.Send(SheetAddedEvent{Sheet: sheet})
}

// PresentFrame implements Shell.
func (s *ChannelShell) PresentFrame(frame *image.RGBA) {
	s.Send(FrameEvent{Frame: frame})
}

// ImportCallback returns a callback that reports an import result for path
// as an ImportResultEvent.
func (s *ChannelShell) ImportCallback(path string) func(tilesheet.SheetError) {
	return func(err tilesheet.SheetError) {
		s.Send(ImportResultEvent{Path: path, Err: err})
	}
}
