// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/localgpt/internal/provider"
)

// Status labels shown to the user for the active provider kind.
const (
	StatusLocal = "Ollama Connected"
	StatusCloud = "Cloud AI Ready"
	StatusDemo  = "Demo Mode"
)

// =============================================================================
// ROUTER
// =============================================================================

// Router holds the ordered candidate list and the current selection.
// It is safe for concurrent use. The lock is never held across a network
// call.
type Router struct {
	candidates []provider.Client
	demo       *DemoResponder

	mu       sync.RWMutex
	selected bool
	active   provider.Client // nil in demo mode
	desc     provider.Descriptor
	model    string
}

// Option configures a Router.
type Option func(*Router)

// WithDemoResponder replaces the default demo rules.
func WithDemoResponder(d *DemoResponder) Option {
	return func(r *Router) {
		if d != nil {
			r.demo = d
		}
	}
}

// New creates a router. local may be nil when no local service is
// configured; cloud is taken in precedence order.
func New(local provider.Client, cloud []provider.Client, opts ...Option) *Router {
	r := &Router{
		demo: NewDemoResponder(),
		desc: provider.DemoDescriptor(),
	}
	if local != nil {
		r.candidates = append(r.candidates, local)
	}
	for _, c := range cloud {
		if c != nil {
			r.candidates = append(r.candidates, c)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Candidates returns the clients in precedence order.
func (r *Router) Candidates() []provider.Client {
	out := make([]provider.Client, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectActive probes candidates one at a time in precedence order and
// activates the first reachable one. Later candidates are not probed. When
// none is reachable the router enters demo mode and ok is false.
func (r *Router) SelectActive(ctx context.Context) (desc provider.Descriptor, ok bool) {
	for _, c := range r.candidates {
		if c.Probe(ctx) {
			desc = provider.Descriptor{
				Name:         c.Name(),
				Kind:         c.Kind(),
				Reachable:    true,
				DefaultModel: c.DefaultModel(),
			}
			r.apply(c, desc)
			return desc, true
		}
		log.Debug().Str("provider", c.Name()).Msg("provider unreachable")
	}
	r.apply(nil, provider.DemoDescriptor())
	return provider.DemoDescriptor(), false
}

// Reprobe discards the current selection and selects again.
func (r *Router) Reprobe(ctx context.Context) (provider.Descriptor, bool) {
	return r.SelectActive(ctx)
}

// ProbeAll describes every candidate concurrently, then applies the
// selection rule to those results without probing again. The returned
// descriptors are in precedence order.
func (r *Router) ProbeAll(ctx context.Context) []provider.Descriptor {
	descs := make([]provider.Descriptor, len(r.candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range r.candidates {
		i, c := i, c
		g.Go(func() error {
			descs[i] = provider.Describe(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	for i, d := range descs {
		if d.Reachable {
			r.apply(r.candidates[i], d)
			return descs
		}
	}
	r.apply(nil, provider.DemoDescriptor())
	return descs
}

func (r *Router) apply(c provider.Client, desc provider.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.desc.Name != desc.Name || r.desc.Kind != desc.Kind {
		r.model = ""
	}
	r.selected = true
	r.active = c
	r.desc = desc

	log.Info().
		Str("provider", desc.Name).
		Str("kind", desc.Kind.String()).
		Msg("active provider selected")
}

// Active returns the current selection. Before any selection it reports
// demo mode.
func (r *Router) Active() provider.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.desc
}

// Selected reports whether a selection has been made.
func (r *Router) Selected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selected
}

// InDemoMode reports whether requests are answered by the demo responder.
func (r *Router) InDemoMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active == nil
}

// Status returns the user-facing label for the active provider kind.
func (r *Router) Status() string {
	return StatusLabel(r.Active().Kind)
}

// StatusLabel maps a provider kind to its status label.
func StatusLabel(k provider.Kind) string {
	switch k {
	case provider.KindLocal:
		return StatusLocal
	case provider.KindCloud:
		return StatusCloud
	default:
		return StatusDemo
	}
}

// =============================================================================
// MODEL OVERRIDE
// =============================================================================

// SetModel overrides the model for subsequent requests. An empty name
// restores the provider default. The override is dropped when a different
// provider becomes active.
func (r *Router) SetModel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = name
}

// Model returns the model the next request will use.
func (r *Router) Model() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.model != "" {
		return r.model
	}
	return r.desc.DefaultModel
}

// Models lists the active provider's models. Demo mode has none.
func (r *Router) Models(ctx context.Context) ([]string, error) {
	r.ensureSelected(ctx)

	r.mu.RLock()
	c := r.active
	r.mu.RUnlock()

	if c == nil {
		return nil, nil
	}
	return c.ListModels(ctx)
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends prompt to the active provider with the current model. The
// first call selects a provider if none has been selected yet. In demo mode
// it returns a canned reply and never fails.
func (r *Router) Generate(ctx context.Context, prompt string) (string, error) {
	r.ensureSelected(ctx)

	r.mu.RLock()
	c := r.active
	model := r.model
	if model == "" {
		model = r.desc.DefaultModel
	}
	r.mu.RUnlock()

	if c == nil {
		return r.demo.Respond(prompt), nil
	}

	log.Debug().Str("provider", c.Name()).Str("model", model).Int("prompt_len", len(prompt)).Msg("generating")
	return c.Generate(ctx, prompt, model)
}

func (r *Router) ensureSelected(ctx context.Context) {
	if r.Selected() {
		return
	}
	r.SelectActive(ctx)
}
