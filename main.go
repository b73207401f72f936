// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// localgpt is a terminal chat client that prefers a local Ollama server,
// falls back to OpenAI-compatible cloud providers, and keeps conversations
// on disk between runs.
package main

import (
	"os"

	"github.com/jeranaias/localgpt/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
