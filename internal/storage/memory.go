// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the encoded record in memory. It encodes and decodes
// exactly like the durable backends.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load decodes the last saved record.
func (b *MemoryBackend) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, ErrNoState
	}
	return Decode(b.data)
}

// Save encodes and keeps state.
func (b *MemoryBackend) Save(ctx context.Context, state *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(state)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = data
	b.saves++
	return nil
}

// SetRaw replaces the stored bytes verbatim.
func (b *MemoryBackend) SetRaw(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
}

// Saves returns how many times Save succeeded.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }

// Location returns "memory".
func (b *MemoryBackend) Location() string { return BackendMemory }
