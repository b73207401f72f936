// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// format.go - Text rendering of conversations and transcripts.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/session"
	"github.com/jeranaias/localgpt/internal/util"
)

// Column widths of the conversation table.
const (
	colMarker = 3
	colIndex  = 4
	colID     = 10
	colTitle  = 22
	colMsgs   = 5
	colWhen   = 10
)

// shortID drops the "conv_" prefix and keeps the first eight characters,
// which is enough for ResolveID to find a unique match.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "conv_")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// formatTimeAgo formats t relative to now.
func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("01/02")
	}
}

// tableRow pads each cell to its width and joins them with a space.
func tableRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if i < len(widths) && widths[i] > 0 {
			parts[i] = util.PadRight(util.Truncate(c, widths[i]), widths[i])
		} else {
			parts[i] = c
		}
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

// tableView carries what a conversation table needs besides the rows.
type tableView struct {
	activeID string
	// positions maps an id to its 1-based place in the full listing, the
	// number resolveRef accepts. Rows missing from it are numbered in order.
	positions map[string]int
	// selected is nil outside selection mode.
	selected map[string]bool
	width    int
}

// newTableView snapshots the store state a table is rendered against.
func newTableView(store *session.Store, width int) tableView {
	v := tableView{
		activeID:  store.ActiveID(),
		positions: make(map[string]int),
		width:     width,
	}
	for i, c := range store.List(session.FilterAll) {
		v.positions[c.ID] = i + 1
	}
	if store.InSelectionMode() {
		v.selected = make(map[string]bool)
		for _, id := range store.Selection() {
			v.selected[id] = true
		}
	}
	return v
}

// writeConversationTable prints convs as a table.
func writeConversationTable(w io.Writer, convs []model.Conversation, v tableView) {
	if len(convs) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No conversations."))
		return
	}

	now := time.Now()
	widths := []int{colMarker, colIndex, colID, colTitle, colMsgs, colWhen}
	used := 0
	for _, cw := range widths {
		used += cw + 1
	}
	previewWidth := v.width - used
	if previewWidth < 10 {
		previewWidth = 10
	}
	widths = append(widths, previewWidth)

	fmt.Fprintln(w, DimStyle.Render(tableRow([]string{"", "#", "ID", "Title", "Msgs", "Updated", "Last message"}, widths)))
	fmt.Fprintln(w, SeparatorStyle.Render(strings.Repeat("-", used+previewWidth)))

	for i, c := range convs {
		marker := ""
		switch {
		case v.selected != nil && v.selected[c.ID]:
			marker = "[x]"
		case v.selected != nil:
			marker = "[ ]"
		case c.ID == v.activeID:
			marker = "*"
		}
		pos, ok := v.positions[c.ID]
		if !ok {
			pos = i + 1
		}
		title := c.Title
		if c.Archived {
			title = "(archived) " + title
		}
		row := tableRow([]string{
			marker,
			strconv.Itoa(pos),
			shortID(c.ID),
			title,
			strconv.Itoa(c.MessageCount()),
			formatTimeAgo(c.LastActivity, now),
			c.Preview(previewWidth),
		}, widths)
		if c.ID == v.activeID {
			row = SuccessStyle.Render(row)
		}
		fmt.Fprintln(w, row)
	}
}

// writeTranscript prints every message of conv.
func writeTranscript(w io.Writer, conv model.Conversation, width int) {
	fmt.Fprintf(w, "%s  %s\n", TitleStyle.Render(conv.Title), DimStyle.Render(conv.ID))
	fmt.Fprintln(w, RenderSeparator(min(width, 60)))
	for _, m := range conv.Messages {
		writeMessage(w, m, width)
	}
}

// writeMessage prints one message with its speaker label and time.
func writeMessage(w io.Writer, m model.Message, width int) {
	fmt.Fprintf(w, "%s %s\n", RenderRole(m.Role), DimStyle.Render(m.Timestamp.Local().Format("15:04")))
	fmt.Fprintln(w, WrapText(m.Content, width))
	fmt.Fprintln(w)
}

// =============================================================================
// JSON OUTPUT
// =============================================================================

// ConversationInfo is the JSON form of a conversation summary.
type ConversationInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Archived     bool      `json:"archived"`
	Active       bool      `json:"active"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
	Preview      string    `json:"preview,omitempty"`
}

func conversationInfos(convs []model.Conversation, activeID string) []ConversationInfo {
	out := make([]ConversationInfo, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationInfo{
			ID:           c.ID,
			Title:        c.Title,
			Archived:     c.Archived,
			Active:       c.ID == activeID,
			MessageCount: c.MessageCount(),
			LastActivity: c.LastActivity,
			Preview:      c.Preview(80),
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// REFERENCES
// =============================================================================

// resolveRef turns what the user typed into a conversation id. A number
// within range is a 1-based index into the full listing; anything else is
// a full id or a unique id prefix. Short ids can be all digits, so an
// out-of-range number is tried as a prefix.
func resolveRef(store *session.Store, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		convs := store.List(session.FilterAll)
		if n >= 1 && n <= len(convs) {
			return convs[n-1].ID, nil
		}
		if id, err := store.ResolveID(ref); err == nil {
			return id, nil
		}
		return "", fmt.Errorf("no conversation #%d (have %d)", n, len(convs))
	}
	return store.ResolveID(ref)
}

// resolveRefs resolves every ref, stopping at the first failure.
func resolveRefs(store *session.Store, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		id, err := resolveRef(store, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseFilter maps a listing keyword to a filter. The empty string means
// unarchived.
func parseFilter(s string) (session.Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active", "open":
		return session.FilterUnarchived, nil
	case "all":
		return session.FilterAll, nil
	case "archived":
		return session.FilterArchived, nil
	default:
		return 0, fmt.Errorf("unknown filter %q (use all, active or archived)", s)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
