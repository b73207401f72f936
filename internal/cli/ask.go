// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(flags *globalFlags) *cobra.Command {
	var (
		newConv bool
		modelID string
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one message and print the reply",
		Long: `Send one message to the active conversation and print the reply.

With no arguments the prompt is read from standard input, so
"git diff | localgpt ask" works.`,
		Example: `  localgpt ask "what is a goroutine?"
  localgpt ask --new --model mistral "summarize RFC 2119"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" {
				if isTerminalReader(cmd.InOrStdin()) {
					return errors.New("no prompt given")
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				prompt = string(data)
			}

			return withApp(cmd, flags, func(app *App) error {
				if newConv {
					app.Store.CreateConversation()
				}
				if modelID != "" {
					app.Router.SelectActive(cmd.Context())
					app.Router.SetModel(modelID)
				}

				res, err := app.Chat.SendUserMessage(cmd.Context(), prompt)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if res.Failed() {
					fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render(res.Reply.Content))
					return &exitError{code: 1}
				}
				fmt.Fprintln(out, res.Reply.Content)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&newConv, "new", false, "start a new conversation first")
	cmd.Flags().StringVarP(&modelID, "model", "m", "", "model to use for this request")
	return cmd
}
