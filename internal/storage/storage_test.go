// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/localgpt/internal/model"
)

// backendCase builds a fresh backend plus a way to plant raw bytes in it.
type backendCase struct {
	name     string
	open     func(t *testing.T) Backend
	plantRaw func(t *testing.T, b Backend, raw string)
}

func backendCases() []backendCase {
	return []backendCase{
		{
			name: "file",
			open: func(t *testing.T) Backend {
				return NewFileBackend(filepath.Join(t.TempDir(), StateFileName))
			},
			plantRaw: func(t *testing.T, b Backend, raw string) {
				require.NoError(t, os.WriteFile(b.Location(), []byte(raw), 0600))
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Backend {
				b, err := OpenSQLite(filepath.Join(t.TempDir(), DatabaseFileName))
				require.NoError(t, err)
				t.Cleanup(func() { _ = b.Close() })
				return b
			},
			plantRaw: func(t *testing.T, b Backend, raw string) {
				sb := b.(*SQLiteBackend)
				_, err := sb.db.Exec(
					"INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)",
					stateKey, raw, time.Now().UTC().Format(time.RFC3339))
				require.NoError(t, err)
			},
		},
		{
			name: "memory",
			open: func(t *testing.T) Backend { return NewMemoryBackend() },
			plantRaw: func(t *testing.T, b Backend, raw string) {
				b.(*MemoryBackend).SetRaw([]byte(raw))
			},
		},
	}
}

func sampleConversations() []*model.Conversation {
	a := model.NewConversation("")
	a.Append(model.NewUserMessage("What is the capital of France?"))
	a.Append(model.NewAssistantMessage("Paris.\n\nIt has been the capital since 987."))

	b := model.NewConversation("")
	b.Append(model.NewUserMessage("日本語 with emoji 🎉 and \"quotes\""))
	b.Archived = true

	return []*model.Conversation{a, b}
}

// =============================================================================
// ROUND TRIP TESTS
// =============================================================================

func TestBackends_RoundTrip(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			b := bc.open(t)
			convs := sampleConversations()

			require.NoError(t, b.Save(ctx, NewState(convs[0].ID, convs)))

			st, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, StateVersion, st.Version)
			assert.Equal(t, convs[0].ID, st.ActiveID)

			restored := st.ToConversations()
			require.Len(t, restored, len(convs))
			for i := range convs {
				assert.Equal(t, convs[i].ID, restored[i].ID)
				assert.Equal(t, convs[i].Title, restored[i].Title)
				assert.Equal(t, convs[i].Archived, restored[i].Archived)
				assert.True(t, convs[i].LastActivity.Equal(restored[i].LastActivity))
				require.Len(t, restored[i].Messages, len(convs[i].Messages))
				for j, m := range convs[i].Messages {
					got := restored[i].Messages[j]
					assert.Equal(t, m.ID, got.ID)
					assert.Equal(t, m.Role, got.Role)
					assert.Equal(t, m.Content, got.Content)
					assert.True(t, m.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", m.Timestamp, got.Timestamp)
				}
			}
		})
	}
}

func TestBackends_SaveReplaces(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			b := bc.open(t)
			convs := sampleConversations()

			require.NoError(t, b.Save(ctx, NewState(convs[0].ID, convs)))
			require.NoError(t, b.Save(ctx, NewState(convs[1].ID, convs[1:])))

			st, err := b.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, convs[1].ID, st.ActiveID)
			assert.Len(t, st.Conversations, 1)
		})
	}
}

// =============================================================================
// FAILURE MODE TESTS
// =============================================================================

func TestBackends_NoState(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			_, err := bc.open(t).Load(context.Background())
			assert.True(t, errors.Is(err, ErrNoState), "got %v", err)
		})
	}
}

func TestBackends_CorruptState(t *testing.T) {
	corrupt := map[string]string{
		"not json":      `{"version":1, "conversations": [`,
		"wrong version": `{"version":99,"active_id":"","conversations":[]}`,
		"missing id":    `{"version":1,"conversations":[{"id":"","messages":[]}]}`,
		"bad role":      `{"version":1,"conversations":[{"id":"c1","messages":[{"id":"m1","role":"system","content":"x"}]}]}`,
		"duplicate ids": `{"version":1,"conversations":[{"id":"c1","messages":[{"id":"m1","role":"assistant","content":"x"}]},{"id":"c1","messages":[{"id":"m2","role":"assistant","content":"x"}]}]}`,
		"no messages":   `{"version":1,"active_id":"c1","conversations":[{"id":"c1","messages":[]}]}`,
		"bad timestamp": `{"version":1,"conversations":[{"id":"c1","last_activity":"yesterday"}]}`,
	}
	for _, bc := range backendCases() {
		for name, raw := range corrupt {
			t.Run(bc.name+"/"+name, func(t *testing.T) {
				b := bc.open(t)
				bc.plantRaw(t, b, raw)

				_, err := b.Load(context.Background())
				assert.True(t, errors.Is(err, ErrCorruptState), "got %v", err)
			})
		}
	}
}

func TestBackends_CanceledContext(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := bc.open(t).Save(ctx, NewState("", nil))
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// FILE BACKEND TESTS
// =============================================================================

func TestFileBackend_LayoutAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", StateFileName)
	b := NewFileBackend(path)
	convs := sampleConversations()

	require.NoError(t, b.Save(context.Background(), NewState(convs[0].ID, convs)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{`"version"`, `"active_id"`, `"conversations"`, `"last_activity"`, `"archived"`, `"timestamp"`, `"role"`} {
		assert.Contains(t, string(raw), key)
	}
	// RFC 3339 UTC timestamps.
	assert.Regexp(t, `"timestamp": "\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z"`, string(raw))
}

// =============================================================================
// OPEN TESTS
// =============================================================================

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open("file", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, StateFileName), b.Location())

	b, err = Open("SQLite", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DatabaseFileName), b.Location())
	require.NoError(t, b.Close())

	b, err = Open("memory", dir)
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Location())

	_, err = Open("postgres", dir)
	assert.Error(t, err)
}

func TestSQLiteBackend_ReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatabaseFileName)
	convs := sampleConversations()

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, b.Save(context.Background(), NewState(convs[1].ID, convs)))
	require.NoError(t, b.Close())

	b, err = OpenSQLite(path)
	require.NoError(t, err)
	defer b.Close()

	st, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, convs[1].ID, st.ActiveID)
	assert.Len(t, st.Conversations, 2)
}

func TestMemoryBackend_CountsSaves(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Save(context.Background(), NewState("", nil)))
	require.NoError(t, b.Save(context.Background(), NewState("", nil)))
	assert.Equal(t, 2, b.Saves())
}
