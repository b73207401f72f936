// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"
	"strings"
)

// Preset describes one chat-completions vendor.
type Preset struct {
	Name         string
	BaseURL      string
	EnvVar       string // credential variable; VITE_<EnvVar> is also accepted
	DefaultModel string
	Models       []string
}

// Presets lists the supported vendors. Declaration order is the default
// precedence when more than one vendor has a credential.
var Presets = []Preset{
	{
		Name:         "openai",
		BaseURL:      "https://api.openai.com/v1",
		EnvVar:       "OPENAI_API_KEY",
		DefaultModel: "gpt-3.5-turbo",
		Models:       []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"},
	},
	{
		Name:         "groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		EnvVar:       "GROQ_API_KEY",
		DefaultModel: "llama3-8b-8192",
		Models:       []string{"llama3-8b-8192", "llama3-70b-8192", "mixtral-8x7b-32768"},
	},
	{
		Name:         "together",
		BaseURL:      "https://api.together.xyz/v1",
		EnvVar:       "TOGETHER_API_KEY",
		DefaultModel: "meta-llama/Llama-2-7b-chat-hf",
		Models: []string{
			"meta-llama/Llama-2-7b-chat-hf",
			"meta-llama/Llama-2-13b-chat-hf",
			"mistralai/Mistral-7B-Instruct-v0.1",
		},
	},
	{
		Name:         "openrouter",
		BaseURL:      "https://openrouter.ai/api/v1",
		EnvVar:       "OPENROUTER_API_KEY",
		DefaultModel: "openrouter/auto",
		Models:       []string{"openrouter/auto", "openai/gpt-4o-mini", "meta-llama/llama-3.1-8b-instruct"},
	},
}

// Lookup finds a preset by case-insensitive name.
func Lookup(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Preset{}, false
}

// Names returns preset names in declaration order.
func Names() []string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = p.Name
	}
	return names
}

// Order returns every preset with the named ones first, in the given order,
// followed by the rest in declaration order. Unknown or repeated names are
// an error.
func Order(priority []string) ([]Preset, error) {
	ordered := make([]Preset, 0, len(Presets))
	seen := make(map[string]bool, len(Presets))

	for _, name := range priority {
		p, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown cloud provider %q (known: %s)", name, strings.Join(Names(), ", "))
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("cloud provider %q listed twice", p.Name)
		}
		seen[p.Name] = true
		ordered = append(ordered, p)
	}

	for _, p := range Presets {
		if !seen[p.Name] {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}
