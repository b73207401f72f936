// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one user turn: append the user's message, ask the
// provider router for a reply, and append the reply (or a readable error)
// to the same conversation.
//
// # Key Types
//
//   - Controller: Sends messages with a process-wide single-flight guard
//   - Generator: The reply source, normally *router.Router
//   - Result: Messages appended by one send
//
// # Usage
//
//	ctrl := chat.NewController(store, r)
//	res, err := ctrl.SendUserMessage(ctx, "hello")
//	if errors.Is(err, chat.ErrBusy) {
//	    // a reply is still being generated
//	}
//	fmt.Println(res.Reply.Content)
package chat
