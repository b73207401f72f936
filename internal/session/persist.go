// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/localgpt/internal/storage"
)

// =============================================================================
// PERSISTENCE
// =============================================================================

// Persist writes the full state to the backend now.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked saves synchronously. Failures are logged and remembered but
// never propagated into the mutation that triggered them.
func (s *Store) persistLocked() error {
	if s.backend == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	err := s.backend.Save(ctx, storage.NewState(s.activeID, s.conversations))
	s.lastPersistErr = err
	if err != nil {
		log.Warn().Err(err).Str("backend", s.backend.Location()).Msg("failed to persist sessions")
	}
	return err
}

// LastPersistError returns the result of the most recent save.
func (s *Store) LastPersistError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersistErr
}

// Restore replaces the in-memory state with the persisted record. An absent
// record keeps the current state and returns nil. A corrupt or unreadable
// record resets to a single fresh conversation and returns the error after
// logging it. The persisted record is not touched until the next mutation.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	st, err := s.backend.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNoState):
		log.Debug().Str("backend", s.backend.Location()).Msg("no saved sessions, starting fresh")
		return nil
	case err != nil:
		log.Warn().Err(err).Str("backend", s.backend.Location()).Msg("could not restore sessions, starting fresh")
		s.resetLocked()
		return err
	}

	convs := st.ToConversations()
	if len(convs) == 0 {
		s.resetLocked()
		return nil
	}

	s.conversations = convs
	s.activeID = st.ActiveID
	s.exitSelectionLocked()
	if s.findLocked(s.activeID) == nil {
		s.repointLocked()
	}

	log.Debug().
		Int("conversations", len(convs)).
		Str("active", s.activeID).
		Msg("restored sessions")
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Location describes where state is persisted.
func (s *Store) Location() string {
	if s.backend == nil {
		return "memory (not persisted)"
	}
	return s.backend.Location()
}
