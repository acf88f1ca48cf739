package dest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
PRAGMA journal_mode = WAL;
CREATE TABLE IF NOT EXISTS records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	record     BLOB NOT NULL
);
`

// SQLite stores one row per record in a local database file. The WAL
// journal keeps writers from blocking a concurrent reader such as an
// ad hoc sqlite3 shell.
type SQLite struct {
	db     *sql.DB
	insert *sql.Stmt
}

// OpenSQLite opens (or creates) a record database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("dest: create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dest: open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dest: init schema: %w", err)
	}
	insert, err := db.Prepare("INSERT INTO records (created_at, record) VALUES (?, ?)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dest: prepare insert: %w", err)
	}
	return &SQLite{db: db, insert: insert}, nil
}

func (d *SQLite) Write(rec []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := d.insert.Exec(now, rec); err != nil {
		return fmt.Errorf("dest: insert record: %w", err)
	}
	return nil
}

func (d *SQLite) Close() error {
	d.insert.Close()
	return d.db.Close()
}
