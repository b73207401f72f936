// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend kinds accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// File names used inside the data directory.
const (
	StateFileName    = "state.json"
	DatabaseFileName = "localgpt.db"
)

// Backend loads and saves the single State record.
type Backend interface {
	// Load returns the saved record, ErrNoState, or an ErrCorruptState error.
	Load(ctx context.Context) (*State, error)

	// Save replaces the saved record.
	Save(ctx context.Context, state *State) error

	// Close releases resources held by the backend.
	Close() error

	// Location describes where the record lives, for status output.
	Location() string
}

// Open creates the backend of the given kind rooted at dataDir.
func Open(kind, dataDir string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case BackendFile, "":
		return NewFileBackend(filepath.Join(dataDir, StateFileName)), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dataDir, DatabaseFileName))
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %s, %s or %s)",
			kind, BackendFile, BackendSQLite, BackendMemory)
	}
}
