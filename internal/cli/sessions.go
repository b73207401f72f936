// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - Non-interactive conversation management.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/session"
)

func newSessionsCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session", "conversations"},
		Short:   "List and manage saved conversations",
		Long: `List and manage saved conversations.

Conversations are referred to by the number shown in "sessions list" or by
a prefix of their id.`,
	}

	cmd.AddCommand(
		newSessionsListCommand(flags),
		newSessionsNewCommand(flags),
		newSessionsShowCommand(flags),
		newSessionsSwitchCommand(flags),
		newSessionsArchiveCommand(flags, true),
		newSessionsArchiveCommand(flags, false),
		newSessionsDeleteCommand(flags),
		newSessionsSearchCommand(flags),
	)
	return cmd
}

func newSessionsListCommand(flags *globalFlags) *cobra.Command {
	var all, archived, asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all && archived {
				return errors.New("--all and --archived are mutually exclusive")
			}
			f := session.FilterUnarchived
			switch {
			case all:
				f = session.FilterAll
			case archived:
				f = session.FilterArchived
			}

			return withApp(cmd, flags, func(app *App) error {
				convs := app.Store.List(f)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), conversationInfos(convs, app.Store.ActiveID()))
				}
				writeConversationTable(cmd.OutOrStdout(), convs, newTableView(app.Store, GetTerminalWidth()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include archived conversations")
	cmd.Flags().BoolVar(&archived, "archived", false, "only archived conversations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newSessionsNewCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new conversation and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *App) error {
				id := app.Store.CreateConversation()
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
}

func newSessionsShowCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [ref]",
		Short: "Print a conversation (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				id := app.Store.ActiveID()
				if len(args) == 1 {
					var err error
					if id, err = resolveRef(app.Store, args[0]); err != nil {
						return err
					}
				}
				conv, ok := app.Store.Conversation(id)
				if !ok {
					return session.ErrConversationNotFound
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), conv)
				}
				writeTranscript(cmd.OutOrStdout(), conv, GetTerminalWidth())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newSessionsSwitchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <ref>",
		Short: "Make a conversation active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				id, err := resolveRef(app.Store, args[0])
				if err != nil {
					return err
				}
				if err := app.Store.SetActive(id); err != nil {
					return err
				}
				conv := app.Store.Active()
				fmt.Fprintf(cmd.OutOrStdout(), "%s Active: %s (%s)\n", SuccessStyle.Render("[OK]"), conv.Title, shortID(conv.ID))
				return nil
			})
		},
	}
}

func newSessionsArchiveCommand(flags *globalFlags, archived bool) *cobra.Command {
	use, short := "archive <ref>...", "Archive conversations"
	if !archived {
		use, short = "unarchive <ref>...", "Restore archived conversations"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				ids, err := resolveRefs(app.Store, args)
				if err != nil {
					return err
				}
				n := app.Store.SetArchived(ids, archived)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", SuccessStyle.Render("[OK]"), pastTense(archived), plural(n, "conversation"))
				return nil
			})
		},
	}
}

func newSessionsDeleteCommand(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <ref>...",
		Aliases: []string{"rm"},
		Short:   "Delete conversations permanently",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("deleting cannot be undone; pass --yes to confirm")
			}
			return withApp(cmd, flags, func(app *App) error {
				ids, err := resolveRefs(app.Store, args)
				if err != nil {
					return err
				}
				n := app.Store.DeleteConversations(ids)
				fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", SuccessStyle.Render("[OK]"), plural(n, "conversation"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

func newSessionsSearchCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find conversations by title or message content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(app *App) error {
				convs := app.Store.Search(strings.Join(args, " "))
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), conversationInfos(convs, app.Store.ActiveID()))
				}
				writeConversationTable(cmd.OutOrStdout(), convs, newTableView(app.Store, GetTerminalWidth()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
