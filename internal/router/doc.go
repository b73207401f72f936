// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router selects the one provider that serves the next request.
//
// Candidates are tried in a fixed order: the local inference service first,
// then each configured cloud vendor in precedence order. When nothing is
// reachable the router falls back to demo mode, which answers from a short
// list of canned replies and never fails.
//
// # Key Types
//
//   - Router: Candidate list, active selection and model override
//   - DemoResponder: Ordered canned-reply rules used in demo mode
//   - DemoRule: One substring key and its reply
//
// # Usage
//
// Build a router from the local client and cloud clients in precedence order:
//
//	r := router.New(ollamaClient, []provider.Client{openai, groq})
//	desc, ok := r.SelectActive(ctx)
//	if !ok {
//	    fmt.Println("no provider reachable, running in demo mode")
//	}
//	reply, err := r.Generate(ctx, "hello")
//
// # Selection
//
// Selection happens once at start (or on the first Generate) and again only
// when Reprobe is called. There is no background polling.
package router
