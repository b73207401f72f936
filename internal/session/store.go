// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
	ID      string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func notFound(id string) error {
	return &ConversationError{Message: ErrConversationNotFound.Message, ID: id}
}

const idPrefix = "conv_"

// =============================================================================
// FILTER
// =============================================================================

// Filter selects conversations by archive state.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnarchived
	FilterArchived
)

func (f Filter) match(c *model.Conversation) bool {
	switch f {
	case FilterUnarchived:
		return !c.Archived
	case FilterArchived:
		return c.Archived
	default:
		return true
	}
}

// =============================================================================
// STORE
// =============================================================================

// Config configures a Store.
type Config struct {
	// Greeting seeds every new conversation (default: model.DefaultGreeting).
	Greeting string

	// Backend receives every mutation. Nil keeps state in memory only.
	Backend storage.Backend

	// PersistTimeout bounds one save (default: 5s).
	PersistTimeout time.Duration
}

// Store owns all conversation state. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	backend        storage.Backend
	greeting       string
	persistTimeout time.Duration

	// conversations is in display order, newest first.
	conversations []*model.Conversation
	activeID      string

	selecting bool
	selected  map[string]struct{}

	lastPersistErr error
}

// New creates a store holding one fresh, unsaved conversation. Call Restore
// to load persisted state, or use Open.
func New(cfg Config) *Store {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	s := &Store{
		backend:        cfg.Backend,
		greeting:       cfg.Greeting,
		persistTimeout: cfg.PersistTimeout,
		selected:       make(map[string]struct{}),
	}
	s.resetLocked()
	return s
}

// Open creates a store and restores persisted state. Restore failures are
// logged and leave a single fresh conversation.
func Open(cfg Config) *Store {
	s := New(cfg)
	_ = s.Restore()
	return s
}

// resetLocked replaces all state with one fresh conversation.
func (s *Store) resetLocked() {
	conv := model.NewConversation(s.greeting)
	s.conversations = []*model.Conversation{conv}
	s.activeID = conv.ID
	s.selecting = false
	s.selected = make(map[string]struct{})
}

// =============================================================================
// CREATE AND APPEND
// =============================================================================

// CreateConversation adds a conversation seeded with the greeting, makes it
// active and persists. It returns the new id.
func (s *Store) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.createLocked()
	s.persistLocked()
	return id
}

func (s *Store) createLocked() string {
	conv := model.NewConversation(s.greeting)
	s.conversations = append([]*model.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	return conv.ID
}

// AppendMessage adds msg to the conversation with the given id, refreshes
// its title and persists. Unknown ids are ignored and report false.
func (s *Store) AppendMessage(id string, msg model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return false
	}
	conv.Append(msg)
	s.persistLocked()
	return true
}

// DeriveTitle recomputes the title of a conversation from its messages and
// returns it. Unknown ids return "".
func (s *Store) DeriveTitle(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return ""
	}
	before := conv.Title
	if conv.RefreshTitle() != before {
		s.persistLocked()
	}
	return conv.Title
}

// =============================================================================
// ARCHIVE AND DELETE
// =============================================================================

// SetArchived sets the archive flag on every listed conversation and returns
// how many changed. Archiving the active conversation moves the active
// pointer.
func (s *Store) SetArchived(ids []string, archived bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.setArchivedLocked(ids, archived)
	if n > 0 {
		s.persistLocked()
	}
	return n
}

func (s *Store) setArchivedLocked(ids []string, archived bool) int {
	n := 0
	for _, id := range ids {
		conv := s.findLocked(id)
		if conv == nil || conv.Archived == archived {
			continue
		}
		conv.Archived = archived
		n++
	}
	if archived {
		if active := s.findLocked(s.activeID); active != nil && active.Archived {
			s.repointLocked()
		}
	}
	return n
}

// DeleteConversations removes every listed conversation and returns how many
// were removed. Deleting the active conversation moves the active pointer.
func (s *Store) DeleteConversations(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.deleteLocked(ids)
	if n > 0 {
		s.persistLocked()
	}
	return n
}

func (s *Store) deleteLocked(ids []string) int {
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	kept := s.conversations[:0]
	n := 0
	for _, c := range s.conversations {
		if _, ok := doomed[c.ID]; ok {
			delete(s.selected, c.ID)
			n++
			continue
		}
		kept = append(kept, c)
	}
	// Clear the tail so removed conversations can be collected.
	for i := len(kept); i < len(s.conversations); i++ {
		s.conversations[i] = nil
	}
	s.conversations = kept

	if s.findLocked(s.activeID) == nil {
		s.repointLocked()
	}
	return n
}

// repointLocked makes the first unarchived conversation active, creating a
// fresh one when there is none.
func (s *Store) repointLocked() {
	for _, c := range s.conversations {
		if !c.Archived {
			s.activeID = c.ID
			return
		}
	}
	s.createLocked()
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

// SetActive switches the active conversation.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return notFound(id)
	}
	if s.activeID != id {
		s.activeID = id
		s.persistLocked()
	}
	return nil
}

// ActiveID returns the id of the active conversation.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.activeID).Clone()
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Conversation returns a copy of the conversation with the given id.
func (s *Store) Conversation(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.findLocked(id)
	if conv == nil {
		return model.Conversation{}, false
	}
	return conv.Clone(), true
}

// List returns copies of the conversations matching f, newest first.
func (s *Store) List(f Filter) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if f.match(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// Search returns copies of the conversations whose title or message content
// contains query, case-insensitively. An empty query matches nothing.
func (s *Store) Search(query string) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Conversation
	for _, c := range s.conversations {
		if c.Matches(query) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// ResolveID finds a conversation by full id or by a unique id prefix, so
// users can type the short ids shown in listings. The "conv_" prefix may be
// omitted.
func (s *Store) ResolveID(ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", notFound(ref)
	}
	if c := s.findLocked(ref); c != nil {
		return c.ID, nil
	}
	if !strings.HasPrefix(ref, idPrefix) {
		ref = idPrefix + ref
	}

	match := ""
	for _, c := range s.conversations {
		if strings.HasPrefix(c.ID, ref) {
			if match != "" {
				return "", &ConversationError{Message: "ambiguous conversation id", ID: ref}
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", notFound(ref)
	}
	return match, nil
}

func (s *Store) findLocked(id string) *model.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}
