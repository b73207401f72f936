// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/jeranaias/localgpt/internal/util"
)

// FileBackend keeps the state record in one JSON file.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend returns a backend writing to path. Nothing touches the
// disk until the first Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads and decodes the state file.
func (b *FileBackend) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, errors.Wrapf(err, "read %s", b.path)
	}
	return Decode(data)
}

// Save encodes state and atomically replaces the file.
func (b *FileBackend) Save(ctx context.Context, state *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(state)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// RELIABILITY: a crash mid-save leaves the previous state intact.
	if err := util.AtomicWriteFile(b.path, data, 0600); err != nil {
		return errors.Wrap(err, "save state")
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }

// Location returns the file path.
func (b *FileBackend) Location() string { return b.path }
