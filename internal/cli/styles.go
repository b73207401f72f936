// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for every localgpt command.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/localgpt/internal/model"
	"github.com/jeranaias/localgpt/internal/provider"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and the REPL banner
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// SectionStyle is used for section headers within commands
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(18)

	// ValueStyle is used for regular values
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle is used for hints and secondary information
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// UserStyle labels the user's messages
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	// AssistantStyle labels assistant messages
	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")).
			Bold(true)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 60 columns unless given.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("=", w))
}

// RenderStatus renders a bracketed status tag.
// status should be one of: "ok", "fail", "warn", or anything else for a dim tag.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok":
		return SuccessStyle.Render("[OK]")
	case "fail":
		return ErrorStyle.Render("[FAIL]")
	case "warn":
		return WarningStyle.Render("[WARN]")
	default:
		return DimStyle.Render("[" + strings.ToUpper(status) + "]")
	}
}

// RenderLabel renders a fixed-width field label.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// RenderRole renders the speaker label for a message.
func RenderRole(r model.Role) string {
	if r == model.RoleUser {
		return UserStyle.Render(r.DisplayName())
	}
	return AssistantStyle.Render(r.DisplayName())
}

// RenderProviderStatus renders the status label for a provider kind in the
// color of its state: green local, blue cloud, amber demo.
func RenderProviderStatus(k provider.Kind, label string) string {
	switch k {
	case provider.KindLocal:
		return SuccessStyle.Render(label)
	case provider.KindCloud:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true).Render(label)
	default:
		return WarningStyle.Bold(true).Render(label)
	}
}
