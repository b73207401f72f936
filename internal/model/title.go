// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultTitle names a conversation that has no usable user text yet.
	DefaultTitle = "New Chat"

	// TitleBudget is the maximum title length in characters.
	TitleBudget = 20
)

// questionWords are dropped from the start of a title. "what is the x"
// becomes "the x".
var questionWords = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {},
	"can": {}, "could": {}, "would": {}, "should": {},
	"is": {}, "are": {}, "do": {}, "does": {}, "did": {}, "will": {},
}

// DeriveTitle computes a title from the first user message. It depends only
// on messages, so calling it repeatedly yields the same result.
func DeriveTitle(messages []Message) string {
	for _, m := range messages {
		if m.Role == RoleUser {
			return TitleFromText(m.Content)
		}
	}
	return DefaultTitle
}

// TitleFromText applies the title rule to a single piece of text: drop the
// leading run of question words, then keep whole words while the
// space-joined result stays within TitleBudget characters.
func TitleFromText(text string) string {
	words := strings.Fields(text)
	for len(words) > 0 {
		if _, ok := questionWords[strings.ToLower(words[0])]; !ok {
			break
		}
		words = words[1:]
	}

	title := ""
	for _, w := range words {
		next := w
		if title != "" {
			next = title + " " + w
		}
		if utf8.RuneCountInString(next) > TitleBudget {
			break
		}
		title = next
	}

	if title == "" {
		return DefaultTitle
	}
	return title
}
