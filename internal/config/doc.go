// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for localgpt.
//
// Settings live in a TOML file with sensible defaults, environment variable
// overrides and validation. API keys are never stored in the file; they are
// read from the environment, optionally seeded from a .env file.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - LocalConfig: Ollama URL, model and timeouts
//   - CloudConfig: Vendor precedence and request parameters
//   - StorageConfig: Conversation backend and data directory
//   - LogConfig: Log level, format and optional file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the CLI)
//   - Environment variables (LOCALGPT_*)
//   - ~/.localgpt/config.toml
//   - Built-in defaults
//
// # Usage
//
//	_, _ = config.LoadDotEnv(config.DefaultDotEnvDirs()...)
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	key, ok := config.LookupCredential("OPENAI_API_KEY")
package config
