// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: Titled, ordered message sequence with an archive flag
//   - Message: Immutable record with role, content and timestamp
//   - Role: user or assistant
//
// # Usage
//
//	conv := model.NewConversation("")
//	conv.Append(model.NewUserMessage("What is the capital of France?"))
//	fmt.Println(conv.Title) // "the capital of"
//
// Timestamps come from Now, which is UTC without a monotonic reading so a
// value survives a JSON round trip unchanged.
package model
