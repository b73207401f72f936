// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended by Truncate when text is cut.
const Ellipsis = "..."

// UNICODE: Widths are display columns, so CJK and emoji count as two.
//
// Truncate shortens s to at most width display columns. When s does not fit,
// the result ends in Ellipsis and still fits within width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(Ellipsis) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// PadRight pads s with spaces to exactly width display columns, truncating
// first if it is too wide.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	return runewidth.FillRight(s, width)
}

// SingleLine collapses every whitespace run (newlines included) into one
// space and trims the ends.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
