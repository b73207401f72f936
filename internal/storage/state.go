// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/jeranaias/localgpt/internal/model"
)

// StateVersion is written into every saved record.
const StateVersion = 1

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoState means nothing has been persisted yet.
	ErrNoState = errors.New("no persisted state")

	// ErrCorruptState means the persisted record could not be decoded.
	// Returned errors wrap it with detail; use errors.Is to check.
	ErrCorruptState = errors.New("persisted state is corrupt")
)

// =============================================================================
// STATE RECORD
// =============================================================================

// State is the persisted form of the whole session store.
type State struct {
	Version       int                  `json:"version"`
	ActiveID      string               `json:"active_id"`
	Conversations []StoredConversation `json:"conversations"`
}

// StoredConversation represents a persisted conversation.
type StoredConversation struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Archived     bool            `json:"archived"`
	LastActivity time.Time       `json:"last_activity"`
	Messages     []StoredMessage `json:"messages"`
}

// StoredMessage represents a persisted message.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewState captures conversations in order. Timestamps are stored in UTC.
func NewState(activeID string, conversations []*model.Conversation) *State {
	st := &State{
		Version:       StateVersion,
		ActiveID:      activeID,
		Conversations: make([]StoredConversation, 0, len(conversations)),
	}
	for _, c := range conversations {
		sc := StoredConversation{
			ID:           c.ID,
			Title:        c.Title,
			Archived:     c.Archived,
			LastActivity: c.LastActivity.UTC(),
			Messages:     make([]StoredMessage, 0, len(c.Messages)),
		}
		for _, m := range c.Messages {
			sc.Messages = append(sc.Messages, StoredMessage{
				ID:        m.ID,
				Role:      string(m.Role),
				Content:   m.Content,
				Timestamp: m.Timestamp.UTC(),
			})
		}
		st.Conversations = append(st.Conversations, sc)
	}
	return st
}

// ToConversations rebuilds model conversations in stored order.
func (s *State) ToConversations() []*model.Conversation {
	out := make([]*model.Conversation, 0, len(s.Conversations))
	for _, sc := range s.Conversations {
		c := &model.Conversation{
			ID:           sc.ID,
			Title:        sc.Title,
			Archived:     sc.Archived,
			LastActivity: sc.LastActivity.UTC(),
			Messages:     make([]model.Message, 0, len(sc.Messages)),
		}
		for _, sm := range sc.Messages {
			c.Messages = append(c.Messages, model.Message{
				ID:        sm.ID,
				Role:      model.Role(sm.Role),
				Content:   sm.Content,
				Timestamp: sm.Timestamp.UTC(),
			})
		}
		out = append(out, c)
	}
	return out
}

// Validate checks structural invariants a decoded record must satisfy.
func (s *State) Validate() error {
	if s.Version < 1 || s.Version > StateVersion {
		return errors.Wrapf(ErrCorruptState, "unsupported version %d", s.Version)
	}
	seen := make(map[string]bool, len(s.Conversations))
	for i, c := range s.Conversations {
		if c.ID == "" {
			return errors.Wrapf(ErrCorruptState, "conversation %d has no id", i)
		}
		if seen[c.ID] {
			return errors.Wrapf(ErrCorruptState, "duplicate conversation id %s", c.ID)
		}
		seen[c.ID] = true
		if len(c.Messages) == 0 {
			return errors.Wrapf(ErrCorruptState, "conversation %s has no messages", c.ID)
		}
		for j, m := range c.Messages {
			if m.ID == "" {
				return errors.Wrapf(ErrCorruptState, "conversation %s message %d has no id", c.ID, j)
			}
			if !model.Role(m.Role).Valid() {
				return errors.Wrapf(ErrCorruptState, "conversation %s message %d has role %q", c.ID, j, m.Role)
			}
		}
	}
	return nil
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode serializes a state record.
func Encode(s *State) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode state")
	}
	return data, nil
}

// Decode parses and validates a state record. Every failure matches
// ErrCorruptState.
func Decode(data []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(ErrCorruptState, "decode: %v", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
