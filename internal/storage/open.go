package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Open opens the SQLite database at path, creating its directory, applies
// pending migrations and returns a store that closes the database on Close.
func Open(ctx context.Context, path, journalMode string, log *slog.Logger) (*SQLiteStore, error) {
	inMemory := path == MemoryPath || strings.HasPrefix(path, "file::memory:")

	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: sees its own empty database.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	runner := NewMigrationRunner(db, journalMode, log)
	if err := runner.Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create store: %w", err)
	}
	store.ownsDB = true

	return store, nil
}

// DB exposes the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
