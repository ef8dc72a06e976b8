package level

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

func TestNewLevelIsEmpty(t *testing.T) {
	l := New("test", 4, 3)
	if l.Cols != 4 || l.Rows != 3 {
		t.Fatalf("expected 4x3, got %dx%d", l.Cols, l.Rows)
	}
	for y := range l.Rows {
		for x := range l.Cols {
			sq := l.Square(x, y)
			if sq != EmptySquare() {
				t.Errorf("square (%d,%d) not empty: %+v", x, y, sq)
			}
		}
	}
	if l.PendingDeltas() != 0 {
		t.Errorf("new level must not have deltas, got %d", l.PendingDeltas())
	}
}

func TestPaintRecordsDeltasInOrder(t *testing.T) {
	l := New("test", 4, 4)
	l.PaintTile(1, 2, 5, 3)
	l.ClearTile(1, 2)
	l.PaintTile(3, 3, 0, 7)
	l.PaintTile(9, 9, 0, 7) // out of bounds, ignored

	deltas := l.Deltas()
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(deltas))
	}

	want := []Delta{
		{Kind: DeltaTile, Index: 9, X: 1, Y: 2, SheetID: 5, TileIndex: 3},
		{Kind: DeltaTile, Index: 9, X: 1, Y: 2, SheetID: Empty, TileIndex: Empty},
		{Kind: DeltaTile, Index: 15, X: 3, Y: 3, SheetID: 0, TileIndex: 7},
	}
	for i := range want {
		if deltas[i] != want[i] {
			t.Errorf("delta %d: expected %+v, got %+v", i, want[i], deltas[i])
		}
	}
	if !deltas[1].IsClear() {
		t.Error("expected second delta to be a clear")
	}

	if again := l.Deltas(); len(again) != 0 {
		t.Errorf("deltas must be drained once, got %d again", len(again))
	}
}

func TestPaintTilesRectangle(t *testing.T) {
	l := New("test", 5, 5)
	l.PaintTiles(image.Pt(3, 3), image.Pt(1, 2), 2, 1)

	if got := len(l.Deltas()); got != 6 {
		t.Errorf("expected 3x2 = 6 deltas, got %d", got)
	}
	if !l.Square(1, 2).HasTile() || !l.Square(3, 3).HasTile() {
		t.Error("corners must be painted")
	}
	if l.Square(0, 0).HasTile() {
		t.Error("square outside rectangle painted")
	}

	l.ClearTiles(image.Pt(1, 2), image.Pt(3, 3))
	if len(l.Painted()) != 0 {
		t.Errorf("expected all cleared, got %d painted", len(l.Painted()))
	}
}

func TestConcurrentDeltaDrain(t *testing.T) {
	l := New("test", 10, 10)
	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 100 {
			l.PaintTile(i%10, i/10, 0, i)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			n := len(l.Deltas())
			mu.Lock()
			total += n
			mu.Unlock()
		}
	}()

	wg.Wait()
	<-done
	total += len(l.Deltas())
	if total != 100 {
		t.Errorf("expected every delta observed exactly once, got %d", total)
	}
}

func TestFragmentRoundTrip(t *testing.T) {
	l := New("castle", 3, 2)
	l.PaintTile(2, 1, 4, 9)

	doc := Document{
		TileManager: tilesheet.State{
			NextID: 5,
			Sheets: []tilesheet.SheetState{{ID: 4, FileName: "walls.png", Path: "/art/walls.png", TileSize: 16}},
		},
		Level: l.State(),
	}

	body, err := EncodeFragment(doc)
	if err != nil {
		t.Fatalf("EncodeFragment() failed: %v", err)
	}
	trimmed := bytes.TrimSpace(body)
	if trimmed[0] == '{' || trimmed[len(trimmed)-1] == '}' {
		t.Errorf("fragment must not carry the outer braces:\n%s", body)
	}

	got, err := DecodeFragment(body)
	if err != nil {
		t.Fatalf("DecodeFragment() failed: %v", err)
	}
	if got.TileManager.NextID != 5 || len(got.TileManager.Sheets) != 1 {
		t.Errorf("unexpected tile manager state %+v", got.TileManager)
	}
	if got.Level.Name != "castle" || len(got.Level.Cells) != 1 {
		t.Errorf("unexpected level state %+v", got.Level)
	}

	restored := FromState(got.Level)
	if sq := restored.Square(2, 1); sq.SheetID != 4 || sq.TileIndex != 9 {
		t.Errorf("unexpected restored square %+v", sq)
	}
	if restored.PendingDeltas() != 1 {
		t.Errorf("expected restored level to carry 1 delta, got %d", restored.PendingDeltas())
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "level.json")
	doc := Document{Level: State{Name: "x", Cols: 2, Rows: 2}}

	if err := Save(path, doc); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Level.Cols != 2 || got.Level.Rows != 2 {
		t.Errorf("unexpected level %+v", got.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte("  \n"), 0o600)
	if _, err := Load(empty); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`"level": [`), 0o600)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestDecodeRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"default grid", `"level": {"name": "a", "cols": 20, "rows": 20}`, true},
		{"unsaved size", `"level": {"name": "a"}`, true},
		{"negative", `"level": {"cols": -1, "rows": 5}`, false},
		{"one zero", `"level": {"cols": 0, "rows": 5}`, false},
		{"too wide", `"level": {"cols": 40000, "rows": 1}`, false},
		{"too many cells", `"level": {"cols": 30000, "rows": 30000}`, false},
		{"overflow", `"level": {"cols": 4294967296, "rows": 4294967296, "cells": [{"x": 3, "y": 3, "sheetId": 0, "tileIndex": 0}]}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFragment([]byte(tt.body))
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrBadDimensions) {
				t.Errorf("expected ErrBadDimensions, got %v", err)
			}
		})
	}
}

func TestNewClampsDimensions(t *testing.T) {
	l := FromState(State{Cols: 1 << 32, Rows: 1 << 32, Cells: []Cell{{X: 3, Y: 3}}})
	if l.Cols > MaxDimension || l.Cols*l.Rows > MaxCells {
		t.Fatalf("dimensions not clamped: %dx%d", l.Cols, l.Rows)
	}
	if sq := l.Square(3, 3); sq.SheetID != 0 {
		t.Errorf("in-range cell should be painted, got %+v", sq)
	}
}

func TestConcurrentPaintLogMatchesModel(t *testing.T) {
	l := New("race", 2, 2)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				l.PaintTile(1, 1, w, i)
			}
		}()
	}
	wg.Wait()

	// Replaying the log must reproduce the square's final value.
	replay := New("replay", 2, 2)
	for _, d := range l.Deltas() {
		replay.PaintTile(d.X, d.Y, d.SheetID, d.TileIndex)
	}
	if got, want := replay.Square(1, 1), l.Square(1, 1); got != want {
		t.Errorf("replayed square %+v, model square %+v", got, want)
	}
}
