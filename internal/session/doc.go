// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns every conversation and keeps them persisted.
//
// A Store holds the ordered conversation list, the active conversation and
// the bulk-selection set behind one mutex. Every mutation is written to the
// configured storage.Backend before the call returns. Readers receive deep
// copies, so nothing outside the Store can change its state.
//
// # Key Types
//
//   - Store: Conversation owner with archive, delete and selection support
//   - Filter: Which conversations List and SelectAll consider
//
// # Invariants
//
// The active id always names an existing conversation. Deleting or
// archiving it moves the active pointer to the first remaining unarchived
// conversation, creating a fresh one when none is left.
//
// # Usage
//
//	store := session.Open(session.Config{Backend: backend})
//	id := store.ActiveID()
//	store.AppendMessage(id, model.NewUserMessage("hello"))
//
//	store.EnterSelectionMode()
//	store.ToggleSelection(id)
//	store.DeleteSelected()
package session
