// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// stateKey is the row holding the session store record.
const stateKey = "session_state"

const schema = `
CREATE TABLE IF NOT EXISTS state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteBackend keeps the state record as one row of an SQLite table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "set %q", pragma)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}

	return &SQLiteBackend{db: db, path: path}, nil
}

// Load reads and decodes the state row.
func (b *SQLiteBackend) Load(ctx context.Context) (*State, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", stateKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, errors.Wrap(err, "query state")
	}
	return Decode([]byte(value))
}

// Save upserts the state row in a single statement.
func (b *SQLiteBackend) Save(ctx context.Context, state *State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		stateKey, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "save state")
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Location returns the database path.
func (b *SQLiteBackend) Location() string { return b.path }

