// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Provider and storage status command.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/localgpt/internal/provider"
)

// ProviderStatus is the JSON form of one probed provider.
type ProviderStatus struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Configured bool     `json:"configured"`
	Reachable  bool     `json:"reachable"`
	Active     bool     `json:"active"`
	Models     []string `json:"models,omitempty"`
	EnvVar     string   `json:"env_var,omitempty"`
}

// StatusReport is the JSON form of the status command.
type StatusReport struct {
	Status        string           `json:"status"`
	Active        string           `json:"active"`
	Model         string           `json:"model,omitempty"`
	Providers     []ProviderStatus `json:"providers"`
	Storage       string           `json:"storage"`
	Conversations int              `json:"conversations"`
	PersistError  string           `json:"persist_error,omitempty"`
}

func newStatusCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe every provider and show which one is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(app *App) error {
				report := buildStatusReport(app, app.Router.ProbeAll(cmd.Context()))
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				printStatusReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func buildStatusReport(app *App, descs []provider.Descriptor) StatusReport {
	active := app.Router.Active()
	report := StatusReport{
		Status:        app.Router.Status(),
		Active:        active.Name,
		Storage:       app.Store.Location(),
		Conversations: app.Store.Len(),
	}
	if !app.Router.InDemoMode() {
		report.Model = app.Router.Model()
	}
	if err := app.Store.LastPersistError(); err != nil {
		report.PersistError = err.Error()
	}

	for _, d := range descs {
		report.Providers = append(report.Providers, ProviderStatus{
			Name:       d.Name,
			Kind:       d.Kind.String(),
			Configured: true,
			Reachable:  d.Reachable,
			Active:     d.Reachable && d.Name == active.Name && d.Kind == active.Kind,
			Models:     d.Models,
		})
	}
	for _, p := range app.Unconfigured {
		report.Providers = append(report.Providers, ProviderStatus{
			Name:   p.Name,
			Kind:   provider.KindCloud.String(),
			EnvVar: p.EnvVar,
		})
	}
	return report
}

func printStatusReport(cmd *cobra.Command, report StatusReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, TitleStyle.Render("localgpt status"))
	fmt.Fprintln(out, RenderSeparator(40))

	kind := provider.KindDemo
	for _, p := range report.Providers {
		if p.Active {
			kind = providerKind(p.Kind)
		}
	}
	fmt.Fprintf(out, "%s %s\n", RenderLabel("Status:"), RenderProviderStatus(kind, report.Status))
	if report.Model != "" {
		fmt.Fprintf(out, "%s %s (%s)\n", RenderLabel("Model:"), ValueStyle.Render(report.Model), report.Active)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, SectionStyle.Render("Providers"))
	for _, p := range report.Providers {
		var state, detail string
		switch {
		case !p.Configured:
			state = "skip"
			detail = fmt.Sprintf("not configured (set %s)", p.EnvVar)
		case p.Reachable:
			state = "ok"
			detail = plural(len(p.Models), "model")
		default:
			state = "fail"
			detail = "unreachable"
		}
		marker := "  "
		if p.Active {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintf(out, "%s%s %s %s\n", marker, RenderStatus(state), RenderLabel(p.Name), DimStyle.Render(detail))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, SectionStyle.Render("Storage"))
	fmt.Fprintf(out, "  %s %s\n", RenderLabel("Location:"), ValueStyle.Render(report.Storage))
	fmt.Fprintf(out, "  %s %s\n", RenderLabel("Conversations:"), ValueStyle.Render(fmt.Sprint(report.Conversations)))
	if report.PersistError != "" {
		fmt.Fprintf(out, "  %s %s\n", RenderStatus("warn"), report.PersistError)
	}
}

func providerKind(s string) provider.Kind {
	switch s {
	case provider.KindLocal.String():
		return provider.KindLocal
	case provider.KindCloud.String():
		return provider.KindCloud
	default:
		return provider.KindDemo
	}
}
