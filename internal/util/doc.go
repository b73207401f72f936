// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the storage, config and
// CLI packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync and rename
//
// Display Text:
//   - Truncate: Width-aware truncation with an ellipsis
//   - SingleLine: Collapse whitespace runs for one-line previews
//
// # Usage
//
//	// Persist state without ever leaving a half-written file behind
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit a message preview into a table column
//	cell := util.Truncate(util.SingleLine(msg.Content), 40)
package util
