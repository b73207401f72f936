// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// exitError carries an exit code for failures that were already reported
// to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCommand builds the localgpt command tree. Running it without a
// subcommand starts the interactive chat.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "localgpt",
		Short: "Chat with a local or cloud language model from the terminal",
		Long: `localgpt routes your prompts to a local Ollama server when it is running,
falls back to a configured cloud provider (OpenAI, Groq, Together, OpenRouter)
when it is not, and answers in demo mode when neither is available.

Conversations are saved locally and restored on the next start.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.localgpt/config.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: console or json")
	pf.StringVar(&flags.logFile, "log-file", "", "write logs to this file instead of stderr")
	pf.StringVar(&flags.storage, "storage", "", "conversation storage: file, sqlite or memory")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory for saved conversations")

	root.AddCommand(
		newChatCommand(flags),
		newAskCommand(flags),
		newStatusCommand(flags),
		newModelsCommand(flags),
		newSessionsCommand(flags),
		newConfigCommand(flags),
	)
	return root
}

// Execute runs the root command against os.Args and returns the process
// exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, NewRootCommand(), os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, stderr io.Writer) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, ErrorStyle.Render("Error:"), err)
	return 1
}
