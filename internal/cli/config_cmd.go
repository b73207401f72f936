// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config file inspection and editing.

package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/config"
)

func newConfigCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, _, err := loadConfig(flags)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one effective setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig(flags)
				if err != nil {
					return err
				}
				v, err := cfg.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting in the config file",
			Long: `Change a setting in the config file.

Only the file is read and written; environment overrides are not saved.
An empty value clears a cloud.models.<vendor> entry.`,
			Example: `  localgpt config set local.model mistral
  localgpt config set cloud.priority groq,openai
  localgpt config set cloud.models.groq llama3-70b-8192`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath(flags)
				if err != nil {
					return err
				}
				cfg, err := config.LoadFile(path)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				if err := config.SaveTo(cfg, path); err != nil {
					return errors.Wrap(err, "save config")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s saved to %s\n", SuccessStyle.Render("[OK]"), args[0], path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := configPath(flags)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the settings accepted by get and set",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				for _, k := range config.Keys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			},
		},
	)
	return cmd
}

func configPath(flags *globalFlags) (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return config.ConfigPath()
}
