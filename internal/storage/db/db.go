// Package db is the SQLite journal of what has been deployed into the game folder.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB is the journal database. Embedding keeps Exec/Query available to the migrations.
type DB struct {
	*sql.DB
	path string
}

// New opens the journal at path, creating its directory, and brings the schema up to date.
// path may be ":memory:" for tests.
func New(path string) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating journal dir: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	// ":memory:" databases are per-connection; the journal is low-traffic anyway
	sqlDB.SetMaxOpenConns(1)

	pragmas := "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"
	if path != memoryPath {
		pragmas += " PRAGMA journal_mode = WAL;"
	}
	if _, err := sqlDB.Exec(pragmas); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	journal := &DB{DB: sqlDB, path: path}
	if err := journal.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return journal, nil
}

// Path is where the journal lives
func (d *DB) Path() string {
	return d.path
}
