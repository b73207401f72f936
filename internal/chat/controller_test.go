// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/provider"
	"github.com/jeranaias/localgpt/internal/router"
	"github.com/jeranaias/localgpt/internal/session"
	"github.com/jeranaias/localgpt/internal/storage"
)

type genFunc func(ctx context.Context, prompt string) (string, error)

func (f genFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func newStore() *session.Store {
	return session.Open(session.Config{Backend: storage.NewMemoryBackend()})
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSend_DemoHello(t *testing.T) {
	store := newStore()
	ctrl := NewController(store, router.New(nil, nil))

	res, err := ctrl.SendUserMessage(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, res.Failed())

	conv := store.Active()
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, model.RoleAssistant, conv.Messages[0].Role)
	assert.Equal(t, model.RoleUser, conv.Messages[1].Role)
	assert.Equal(t, "hello", conv.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, conv.Messages[2].Role)
	assert.Equal(t, router.DefaultDemoRules[0].Reply, conv.Messages[2].Content)
	assert.Equal(t, "hello", conv.Title)
	assert.Equal(t, res.Reply.ID, conv.Messages[2].ID)
}

func TestSend_EmptyRejected(t *testing.T) {
	store := newStore()
	called := false
	ctrl := NewController(store, genFunc(func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}))

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := ctrl.SendUserMessage(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.False(t, called)
	conv := store.Active()
	assert.Len(t, conv.Messages, 1)
}

func TestSend_BusyRejected(t *testing.T) {
	store := newStore()
	started := make(chan struct{})
	release := make(chan struct{})
	ctrl := NewController(store, genFunc(func(context.Context, string) (string, error) {
		close(started)
		<-release
		return "done", nil
	}))

	done := make(chan Result, 1)
	go func() {
		res, _ := ctrl.SendUserMessage(context.Background(), "first")
		done <- res
	}()
	<-started

	assert.True(t, ctrl.Busy())
	_, err := ctrl.SendUserMessage(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	select {
	case res := <-done:
		assert.Equal(t, "done", res.Reply.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("first send never finished")
	}
	assert.False(t, ctrl.Busy())

	conv := store.Active()
	require.Len(t, conv.Messages, 3, "the rejected send appends nothing")
	assert.Equal(t, "first", conv.Messages[1].Content)
}

func TestSend_ErrorBecomesAssistantMessage(t *testing.T) {
	store := newStore()
	ctrl := NewController(store, genFunc(func(context.Context, string) (string, error) {
		return "", &provider.Error{Kind: provider.KindTimeout, Provider: "ollama", Message: "request timed out"}
	}))

	res, err := ctrl.SendUserMessage(context.Background(), "write a novel")
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.True(t, provider.IsTimeout(res.Err))

	conv := store.Active()
	require.Len(t, conv.Messages, 3)
	last := conv.Messages[2]
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, "Error: Request timeout. The model might be too slow or overloaded.", last.Content)
	assert.False(t, ctrl.Busy())
}

func TestSend_ReplyGoesToOriginalConversation(t *testing.T) {
	store := newStore()
	original := store.ActiveID()
	var other string
	ctrl := NewController(store, genFunc(func(context.Context, string) (string, error) {
		other = store.CreateConversation()
		return "late reply", nil
	}))

	res, err := ctrl.SendUserMessage(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, original, res.ConversationID)
	assert.Equal(t, other, store.ActiveID())

	conv, ok := store.Conversation(original)
	require.True(t, ok)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "late reply", conv.Messages[2].Content)

	fresh, _ := store.Conversation(other)
	assert.Len(t, fresh.Messages, 1)
}

func TestSend_ConversationDeletedMidFlight(t *testing.T) {
	store := newStore()
	ctrl := NewController(store, genFunc(func(context.Context, string) (string, error) {
		store.DeleteConversations([]string{store.ActiveID()})
		return "orphan", nil
	}))

	res, err := ctrl.SendUserMessage(context.Background(), "question")
	require.NoError(t, err)
	_, ok := store.Conversation(res.ConversationID)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestSend_LocalModelMissingOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			_, _ = w.Write([]byte(`{"version":"0.5.0"}`))
		case "/api/generate":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	lc := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: srv.URL, DefaultModel: "tinyllama"})
	store := newStore()
	ctrl := NewController(store, router.New(lc, nil))

	res, err := ctrl.SendUserMessage(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, provider.IsModelNotFound(res.Err))
	assert.Contains(t, res.Reply.Content, `Error: model "tinyllama" not found`)
}

// =============================================================================
// DESCRIBE ERROR TESTS
// =============================================================================

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "Error: boom"},
		{"timeout", provider.ErrTimeout, "Error: Request timeout. The model might be too slow or overloaded."},
		{
			"ollama down",
			&provider.Error{Kind: provider.KindConnectivity, Provider: ollama.Name, Message: "connection refused"},
			"Error: Ollama service is not running. Please start Ollama first.",
		},
		{
			"cloud down",
			&provider.Error{Kind: provider.KindConnectivity, Provider: "groq", Message: "connection refused"},
			"Error: Could not reach groq. Check your network connection.",
		},
		{
			"auth",
			&provider.Error{Kind: provider.KindAuth, Provider: "openai", Message: "API error: 401 - Incorrect API key"},
			"Error: openai rejected the request: API error: 401 - Incorrect API key",
		},
		{"malformed sentinel", provider.ErrInvalidResponse, "Error: Invalid response format from the provider"},
		{
			"server",
			&provider.Error{Kind: provider.KindServer, Provider: "openai", Message: "API error: 500 - Unknown error"},
			"Error: API error: 500 - Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeError(tt.err))
		})
	}
}
