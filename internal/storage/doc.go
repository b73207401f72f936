// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable persistence for the session store.
//
// The whole conversation set is one State record. A Backend loads and saves
// that record; three are provided:
//
//   - FileBackend: one JSON document, replaced atomically on every save
//   - SQLiteBackend: one row in a key/value table (modernc.org/sqlite, no cgo)
//   - MemoryBackend: process-local, used by tests and --storage memory
//
// # Errors
//
// Load returns ErrNoState when nothing has been saved yet and an error
// matching ErrCorruptState when the record cannot be decoded. Callers treat
// both as "start fresh".
//
// # Usage
//
//	backend, err := storage.Open(storage.BackendSQLite, dataDir)
//	state, err := backend.Load(ctx)
//	if errors.Is(err, storage.ErrNoState) {
//	    // first run
//	}
package storage
