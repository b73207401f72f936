// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the chat-completions provider family.
//
// Every OpenAI-compatible vendor (OpenAI, Groq, Together, OpenRouter) speaks
// the same wire contract: bearer authentication, GET {base}/models and
// POST {base}/chat/completions. A Preset captures what differs between
// vendors; one Client implementation serves them all. Request, response and
// error bodies use the go-openai wire types.
//
// # Key Types
//
//   - Preset: Vendor base URL, credential variable and model defaults
//   - Client: provider.Client for one vendor
//   - Config: Credential, model override, token and timeout limits
//
// # Usage
//
//	preset, _ := cloud.Lookup("groq")
//	client := cloud.NewClient(cloud.Config{Preset: preset, APIKey: key})
//	text, err := client.Generate(ctx, "Hello", "")
//
// # Security
//
// API keys are never logged. Log lines carry a SHA-256 fingerprint of the
// key instead.
package cloud
