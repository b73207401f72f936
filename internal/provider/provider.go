// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// PROVIDER KIND
// =============================================================================

// Kind tags where a provider runs.
type Kind int

const (
	// KindLocal is an inference service on the user's machine.
	KindLocal Kind = iota
	// KindCloud is a hosted chat-completions API.
	KindCloud
	// KindDemo is the canned responder used when nothing else is reachable.
	KindDemo
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindCloud:
		return "cloud"
	case KindDemo:
		return "demo"
	default:
		return "unknown"
	}
}

// =============================================================================
// CLIENT CONTRACT
// =============================================================================

// Client is a text-generation backend.
//
// Implementations must be safe for concurrent use: the router probes every
// candidate in parallel at startup.
type Client interface {
	// Name identifies the provider in logs and status output ("ollama", "groq").
	Name() string

	// Kind reports whether the provider is local or cloud.
	Kind() Kind

	// Probe reports reachability within the provider's probe timeout.
	// Every failure collapses to false.
	Probe(ctx context.Context) bool

	// ListModels returns the model names the provider offers.
	ListModels(ctx context.Context) ([]string, error)

	// Generate turns prompt into a complete response using model, or the
	// provider's default model when model is empty.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// DefaultModel is the model used when none has been chosen.
	DefaultModel() string
}

// =============================================================================
// DESCRIPTOR
// =============================================================================

// Descriptor is a snapshot of a provider taken by a probe. Descriptors are
// rebuilt on every probe and never persisted.
type Descriptor struct {
	Name         string
	Kind         Kind
	Reachable    bool
	Models       []string
	DefaultModel string
}

// Describe probes c and, when it is reachable, lists its models. A listing
// failure leaves Models empty but does not mark the provider unreachable.
func Describe(ctx context.Context, c Client) Descriptor {
	desc := Descriptor{
		Name:         c.Name(),
		Kind:         c.Kind(),
		DefaultModel: c.DefaultModel(),
	}

	desc.Reachable = c.Probe(ctx)
	if !desc.Reachable {
		return desc
	}

	models, err := c.ListModels(ctx)
	if err != nil {
		log.Debug().Err(err).Str("provider", desc.Name).Msg("model listing failed")
		return desc
	}
	desc.Models = models
	return desc
}

// DemoDescriptor describes the demo responder.
func DemoDescriptor() Descriptor {
	return Descriptor{Name: "demo", Kind: KindDemo, Reachable: true}
}
