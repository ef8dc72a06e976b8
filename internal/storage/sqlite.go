// Package storage provides SQLite-based persistence for editor history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tileforge/internal/engine"
	"github.com/vovakirdan/tileforge/internal/tilesheet"
)

// Store manages the SQLite database connection for editor history.
type Store struct {
	db *sql.DB
}

// ImportEntry represents one sheet import attempt.
type ImportEntry struct {
	ID        int64
	Path      string
	TileSize  int
	SheetID   int // -1 if the import was rejected
	Result    string
	Tiles     int
	CreatedAt time.Time
}

// LevelEntry represents one level save or load.
type LevelEntry struct {
	ID        int64
	Path      string
	Action    string // "save" or "load"
	Sheets    int
	Cells     int
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			tile_size INTEGER NOT NULL,
			sheet_id INTEGER NOT NULL DEFAULT -1,
			result TEXT NOT NULL,
			tiles INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_imports_path ON imports(path);

		CREATE TABLE IF NOT EXISTS level_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			action TEXT NOT NULL,
			sheets INTEGER NOT NULL DEFAULT 0,
			cells INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_level_files_path ON level_files(path);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveImport records an import attempt.
// Returns the ID of the inserted record.
func (s *Store) SaveImport(entry ImportEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (path, tile_size, sheet_id, result, tiles)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Path, entry.TileSize, entry.SheetID, entry.Result, entry.Tiles,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save import: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// RecentImports retrieves the most recent imports, newest first.
func (s *Store) RecentImports(limit int) ([]ImportEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, path, tile_size, sheet_id, result, tiles, created_at
		 FROM imports
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query imports: %w", err)
	}
	defer rows.Close()

	var entries []ImportEntry
	for rows.Next() {
		var e ImportEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Path, &e.TileSize, &e.SheetID, &e.Result, &e.Tiles, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// SaveLevelFile records a level save or load.
// Returns the ID of the inserted record.
func (s *Store) SaveLevelFile(entry LevelEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO level_files (path, action, sheets, cells)
		 VALUES (?, ?, ?, ?)`,
		entry.Path, entry.Action, entry.Sheets, entry.Cells,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save level entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// RecentLevels retrieves the most recent level saves and loads, newest first.
func (s *Store) RecentLevels(limit int) ([]LevelEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, path, action, sheets, cells, created_at
		 FROM level_files
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query levels: %w", err)
	}
	defer rows.Close()

	var entries []LevelEntry
	for rows.Next() {
		var e LevelEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Path, &e.Action, &e.Sheets, &e.Cells, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// LastSavedLevel returns the path of the most recently saved level.
// Returns an empty string if nothing has been saved.
func (s *Store) LastSavedLevel() (string, error) {
	var path string
	err := s.db.QueryRow(
		`SELECT path FROM level_files WHERE action = ? ORDER BY id DESC LIMIT 1`,
		string(engine.LevelSaved),
	).Scan(&path)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: cannot query last level: %w", err)
	}
	return path, nil
}

// ImportStats counts import attempts per result.
func (s *Store) ImportStats() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT result, COUNT(*) FROM imports GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get import stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		stats[result] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// ClearHistory deletes every import and level record.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec("DELETE FROM imports; DELETE FROM level_files;"); err != nil {
		return fmt.Errorf("storage: cannot clear history: %w", err)
	}
	return nil
}

// RecordImport implements engine.ImportRecorder.
func (s *Store) RecordImport(rec engine.ImportRecord) error {
	_, err := s.SaveImport(ImportEntry{
		Path:     rec.Path,
		TileSize: rec.TileSize,
		SheetID:  rec.SheetID,
		Result:   rec.Result.String(),
		Tiles:    rec.Tiles,
	})
	return err
}

// RecordLevel implements engine.LevelRecorder.
func (s *Store) RecordLevel(rec engine.LevelRecord) error {
	_, err := s.SaveLevelFile(LevelEntry{
		Path:   rec.Path,
		Action: string(rec.Action),
		Sheets: rec.Sheets,
		Cells:  rec.Cells,
	})
	return err
}

// Ensure Store implements the engine recorders
var (
	_ engine.ImportRecorder = (*Store)(nil)
	_ engine.LevelRecorder  = (*Store)(nil)
)

// Accepted reports whether the entry's import produced a sheet.
func (e ImportEntry) Accepted() bool {
	return e.SheetID != tilesheet.NoSheet
}

// parseTime handles both time.Time and string datetime columns.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
