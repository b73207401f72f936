// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the localgpt command line.
//
// Every command builds an App from configuration (defaults, config file,
// .env, environment, flags) and tears it down when done. Running localgpt
// without a subcommand starts the interactive chat.
//
// # Key Types
//
//   - App: Config, session store, provider router and chat controller for one run
//   - Repl: The interactive chat loop and its slash commands
//
// # Usage
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Commands Overview
//
//	localgpt                     Interactive chat
//	localgpt ask <prompt>        One message, reply on stdout
//	localgpt status [--json]     Probe providers and show the active one
//	localgpt models [--json]     List the active provider's models
//	localgpt sessions <cmd>      list, new, show, switch, archive, unarchive, delete, search
//	localgpt config <cmd>        show, get, set, path, keys
package cli
