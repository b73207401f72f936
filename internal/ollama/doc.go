// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for a local Ollama server.
//
// The client implements provider.Client: reachability is GET /api/version,
// model listing is GET /api/tags and generation is a single non-streaming
// POST /api/generate.
//
// # Key Types
//
//   - Client: Local provider with separate probe and generation timeouts
//   - ClientConfig: Base URL, default model and timeouts
//   - ModelInfo: One entry of the /api/tags listing
//
// # Usage
//
//	client := ollama.NewClient()
//	if client.Probe(ctx) {
//	    text, err := client.Generate(ctx, "Hello", "")
//	}
package ollama
