// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - Model listing command.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/util"
)

func newModelsCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models offered by the active provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *App) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				desc, ok := app.Router.SelectActive(ctx)
				if !ok {
					if asJSON {
						return writeJSON(out, []string{})
					}
					fmt.Fprintln(out, WarningStyle.Render(app.Router.Status()+": no provider is reachable, so there are no models to list."))
					return nil
				}
				current := app.Router.Model()

				if desc.Name == ollama.Name {
					infos, err := app.Local.ListModelInfo(ctx)
					if err != nil {
						return chatError(err)
					}
					if asJSON {
						return writeJSON(out, infos)
					}
					printLocalModels(cmd, infos, current)
					return nil
				}

				models, err := app.Router.Models(ctx)
				if err != nil {
					return chatError(err)
				}
				if asJSON {
					return writeJSON(out, models)
				}
				fmt.Fprintf(out, "%s %s\n", SectionStyle.Render("Models from"), desc.Name)
				for _, m := range models {
					fmt.Fprintln(out, modelMarker(m == current)+m)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printLocalModels(cmd *cobra.Command, infos []ollama.ModelInfo, current string) {
	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No local models. Run 'ollama pull "+ollama.DefaultModel+"' to get one."))
		return
	}

	fmt.Fprintln(out, SectionStyle.Render("Local models"))
	header := util.PadRight("NAME", 32) + " " + util.PadRight("SIZE", 10) + " " + util.PadRight("PARAMS", 8) + " QUANT"
	fmt.Fprintln(out, DimStyle.Render("  "+header))
	for i := range infos {
		m := &infos[i]
		row := util.PadRight(util.Truncate(m.Name, 32), 32) + " " +
			util.PadRight(m.FormatSize(), 10) + " " +
			util.PadRight(m.Details.ParameterSize, 8) + " " +
			m.Details.QuantizationLevel
		fmt.Fprintln(out, modelMarker(m.Name == current)+row)
	}
}

func modelMarker(current bool) string {
	if current {
		return SuccessStyle.Render("* ")
	}
	return "  "
}
