// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the contract every text-generation backend
// implements, the error taxonomy shared by all of them, and the HTTP
// transport they are built on.
//
// Two families implement Client: the local inference service in package
// ollama and the OpenAI-compatible chat-completions vendors in package
// cloud. The router picks one of them per request based on Descriptor
// values, never on provider names.
//
// # Key Types
//
//   - Client: Probe, ListModels, Generate
//   - Descriptor: Snapshot of one provider after a probe
//   - Error: Typed failure with an ErrorKind and sentinel matching
//   - Transport: JSON-over-HTTP with auth, size limits and error mapping
//
// # Usage
//
//	if errors.Is(err, provider.ErrModelNotFound) {
//	    // suggest pulling the model
//	}
//
//	desc := provider.Describe(ctx, client)
//	fmt.Println(desc.Name, desc.Reachable, desc.Models)
package provider
