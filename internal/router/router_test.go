// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/localgpt/internal/cloud"
	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/provider"
)

// =============================================================================
// FAKE CLIENT
// =============================================================================

type fakeClient struct {
	name      string
	kind      provider.Kind
	reachable bool
	models    []string
	reply     string
	err       error

	probes    atomic.Int32
	mu        sync.Mutex
	lastModel string
}

func (f *fakeClient) Name() string         { return f.name }
func (f *fakeClient) Kind() provider.Kind  { return f.kind }
func (f *fakeClient) DefaultModel() string { return f.name + "-default" }
func (f *fakeClient) Probe(context.Context) bool {
	f.probes.Add(1)
	return f.reachable
}

func (f *fakeClient) ListModels(context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeClient) Generate(_ context.Context, prompt, model string) (string, error) {
	f.mu.Lock()
	f.lastModel = model
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply + ":" + prompt, nil
}

func (f *fakeClient) usedModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastModel
}

func local(up bool) *fakeClient {
	return &fakeClient{name: "ollama", kind: provider.KindLocal, reachable: up, reply: "local"}
}

func remote(name string, up bool) *fakeClient {
	return &fakeClient{name: name, kind: provider.KindCloud, reachable: up, reply: name}
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestSelectActive_LocalFirstSkipsCloud(t *testing.T) {
	l := local(true)
	c1 := remote("openai", true)
	c2 := remote("groq", true)
	r := New(l, []provider.Client{c1, c2})

	desc, ok := r.SelectActive(context.Background())

	require.True(t, ok)
	assert.Equal(t, "ollama", desc.Name)
	assert.Equal(t, provider.KindLocal, desc.Kind)
	assert.EqualValues(t, 1, l.probes.Load())
	assert.Zero(t, c1.probes.Load(), "cloud must not be probed when local is up")
	assert.Zero(t, c2.probes.Load())
	assert.Equal(t, StatusLocal, r.Status())
}

func TestSelectActive_CloudPrecedence(t *testing.T) {
	l := local(false)
	c1 := remote("openai", false)
	c2 := remote("groq", true)
	c3 := remote("together", true)
	r := New(l, []provider.Client{c1, c2, c3})

	desc, ok := r.SelectActive(context.Background())

	require.True(t, ok)
	assert.Equal(t, "groq", desc.Name)
	assert.Zero(t, c3.probes.Load(), "later candidates are ignored")
	assert.Equal(t, StatusCloud, r.Status())
	assert.Equal(t, "groq-default", r.Model())
}

func TestSelectActive_DemoMode(t *testing.T) {
	r := New(local(false), []provider.Client{remote("openai", false)})

	desc, ok := r.SelectActive(context.Background())

	assert.False(t, ok)
	assert.Equal(t, provider.KindDemo, desc.Kind)
	assert.True(t, r.InDemoMode())
	assert.Equal(t, StatusDemo, r.Status())
}

func TestNew_NilLocal(t *testing.T) {
	c := remote("openai", true)
	r := New(nil, []provider.Client{nil, c})

	require.Len(t, r.Candidates(), 1)
	desc, ok := r.SelectActive(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "openai", desc.Name)
}

func TestActive_BeforeSelectionIsDemo(t *testing.T) {
	r := New(local(true), nil)
	assert.False(t, r.Selected())
	assert.Equal(t, provider.KindDemo, r.Active().Kind)
}

func TestReprobe_SwitchesProvider(t *testing.T) {
	l := local(false)
	r := New(l, nil)

	_, ok := r.SelectActive(context.Background())
	require.False(t, ok)

	l.reachable = true
	desc, ok := r.Reprobe(context.Background())
	require.True(t, ok)
	assert.Equal(t, "ollama", desc.Name)
	assert.False(t, r.InDemoMode())
}

func TestProbeAll_ProbesEveryoneThenApplies(t *testing.T) {
	l := local(false)
	c1 := remote("openai", true)
	c1.models = []string{"gpt-4o", "gpt-3.5-turbo"}
	c2 := remote("groq", true)
	r := New(l, []provider.Client{c1, c2})

	descs := r.ProbeAll(context.Background())

	require.Len(t, descs, 3)
	assert.Equal(t, []string{"ollama", "openai", "groq"}, []string{descs[0].Name, descs[1].Name, descs[2].Name})
	assert.False(t, descs[0].Reachable)
	assert.True(t, descs[1].Reachable)
	assert.Equal(t, c1.models, descs[1].Models)
	assert.EqualValues(t, 1, c2.probes.Load())

	assert.Equal(t, "openai", r.Active().Name)
	assert.EqualValues(t, 1, c1.probes.Load(), "selection reuses the probe results")
}

func TestProbeAll_NoneReachable(t *testing.T) {
	r := New(local(false), []provider.Client{remote("openai", false)})
	descs := r.ProbeAll(context.Background())
	assert.Len(t, descs, 2)
	assert.True(t, r.InDemoMode())
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestGenerate_SelectsOnFirstCall(t *testing.T) {
	l := local(true)
	r := New(l, nil)

	reply, err := r.Generate(context.Background(), "ping")

	require.NoError(t, err)
	assert.Equal(t, "local:ping", reply)
	assert.Equal(t, "ollama-default", l.usedModel())

	_, _ = r.Generate(context.Background(), "again")
	assert.EqualValues(t, 1, l.probes.Load(), "no polling after the first selection")
}

func TestGenerate_DemoNeverFails(t *testing.T) {
	r := New(local(false), []provider.Client{remote("openai", false)})

	for _, prompt := range []string{"hello", "", "   ", strings.Repeat("x", 10000)} {
		reply, err := r.Generate(context.Background(), prompt)
		assert.NoError(t, err)
		assert.NotEmpty(t, reply)
	}
}

func TestGenerate_PropagatesProviderError(t *testing.T) {
	l := local(true)
	l.err = provider.ErrTimeout
	r := New(l, nil)

	_, err := r.Generate(context.Background(), "slow")
	assert.True(t, provider.IsTimeout(err))
}

func TestSetModel_ResetOnProviderChange(t *testing.T) {
	l := local(true)
	c := remote("openai", true)
	r := New(l, []provider.Client{c})
	r.SelectActive(context.Background())

	r.SetModel("mistral")
	assert.Equal(t, "mistral", r.Model())
	_, err := r.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "mistral", l.usedModel())

	// Same provider again keeps the override.
	r.Reprobe(context.Background())
	assert.Equal(t, "mistral", r.Model())

	l.reachable = false
	r.Reprobe(context.Background())
	assert.Equal(t, "openai-default", r.Model())

	r.SetModel("")
	assert.Equal(t, "openai-default", r.Model())
}

func TestModels(t *testing.T) {
	l := local(true)
	l.models = []string{"llama3.2", "mistral"}
	r := New(l, nil)

	models, err := r.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, l.models, models)

	demo := New(nil, nil)
	models, err = demo.Models(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, models)
}

// =============================================================================
// WIRE-LEVEL TESTS
// =============================================================================

func TestRouter_FallsBackToCloudOverHTTP(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	var chatCalls atomic.Int32
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/models":
			_, _ = w.Write([]byte(`{"data":[{"id":"gpt-3.5-turbo"}]}`))
		case "/chat/completions":
			chatCalls.Add(1)
			var body map[string]any
			_ = json.NewDecoder(req.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"index": 0, "message": map[string]any{"role": "assistant", "content": "from " + body["model"].(string)}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer up.Close()

	lc := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: downURL, ProbeTimeout: time.Second})
	preset, _ := cloud.Lookup("openai")
	cc := cloud.NewClient(cloud.Config{Preset: preset, APIKey: "sk-test", BaseURL: up.URL})
	r := New(lc, []provider.Client{cc})

	descs := r.ProbeAll(context.Background())
	require.Len(t, descs, 2)
	assert.False(t, descs[0].Reachable)
	assert.True(t, descs[1].Reachable)
	assert.Equal(t, []string{"gpt-3.5-turbo"}, descs[1].Models)

	reply, err := r.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "from gpt-3.5-turbo", reply)
	assert.EqualValues(t, 1, chatCalls.Load())
	assert.Equal(t, StatusCloud, r.Status())
}
