// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultGreeting is the assistant message every new conversation starts with.
const DefaultGreeting = "Hello! I'm your local AI assistant. How can I help you today?"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one chat: its messages in chronological order plus
// listing metadata.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
	Archived     bool      `json:"archived"`
}

// NewConversation creates a conversation seeded with an assistant greeting.
// An empty greeting uses DefaultGreeting.
func NewConversation(greeting string) *Conversation {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	first := NewAssistantMessage(greeting)
	return &Conversation{
		ID:           NewConversationID(),
		Title:        DefaultTitle,
		Messages:     []Message{first},
		LastActivity: first.Timestamp,
	}
}

// NewConversationID returns a fresh "conv_" prefixed id.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds msg at the end, bumps LastActivity and recomputes the title.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastActivity = Now()
	c.Title = DeriveTitle(c.Messages)
}

// RefreshTitle recomputes and stores the title.
func (c *Conversation) RefreshTitle() string {
	c.Title = DeriveTitle(c.Messages)
	return c.Title
}

// LastMessage returns the newest message.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Preview returns the latest message on one line, cut to maxWidth columns.
func (c *Conversation) Preview(maxWidth int) string {
	last, ok := c.LastMessage()
	if !ok {
		return "Empty conversation"
	}
	return last.Preview(maxWidth)
}

// Matches reports whether query occurs, case-insensitively, in the title or
// any message.
func (c *Conversation) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	if strings.Contains(strings.ToLower(c.Title), q) {
		return true
	}
	for _, m := range c.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	return clone
}
