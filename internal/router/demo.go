// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"strings"
)

// DemoRule maps a lowercase substring of the user's input to a canned reply.
type DemoRule struct {
	Key   string
	Reply string
}

// DefaultDemoRules are checked in order; the first matching key wins.
var DefaultDemoRules = []DemoRule{
	{Key: "hello", Reply: "Hello! I'm a demo AI assistant. To get full functionality, please configure your OpenAI API key or use Ollama locally."},
	{Key: "hi", Reply: "Hi there! This is a demo response. For full AI capabilities, please set up OpenAI API key or run Ollama locally."},
	{Key: "how are you", Reply: "I'm doing well, thank you! This is a demo response. For real AI conversations, please configure your API key."},
	{Key: "what is your name", Reply: "I'm Local GPT, a ChatGPT-like interface. Currently running in demo mode without full AI capabilities."},
}

const demoFallback = `Thank you for your message: "%s". This is a demo response since no AI service is configured. To get real AI responses, please either:

1. **For local use**: Install and run Ollama with a model (e.g., 'ollama pull llama3.2')
2. **For cloud use**: Set OPENAI_API_KEY, GROQ_API_KEY, TOGETHER_API_KEY or OPENROUTER_API_KEY in the environment or a .env file

Your message was received and would normally be processed by an AI model. Please configure an AI service to get intelligent responses.`

// DemoResponder produces deterministic replies when no provider is reachable.
type DemoResponder struct {
	rules []DemoRule
}

// NewDemoResponder returns a responder over rules, or DefaultDemoRules when
// none are given. Keys are matched case-insensitively.
func NewDemoResponder(rules ...DemoRule) *DemoResponder {
	if len(rules) == 0 {
		rules = DefaultDemoRules
	}
	d := &DemoResponder{rules: make([]DemoRule, 0, len(rules))}
	for _, r := range rules {
		key := strings.ToLower(strings.TrimSpace(r.Key))
		if key == "" {
			continue
		}
		d.rules = append(d.rules, DemoRule{Key: key, Reply: r.Reply})
	}
	return d
}

// Respond returns the reply of the first rule whose key occurs in prompt,
// or a fallback that echoes prompt and explains how to configure a provider.
func (d *DemoResponder) Respond(prompt string) string {
	lower := strings.ToLower(strings.TrimSpace(prompt))
	for _, r := range d.rules {
		if strings.Contains(lower, r.Key) {
			return r.Reply
		}
	}
	return fmt.Sprintf(demoFallback, prompt)
}

// Rules returns a copy of the rule list in match order.
func (d *DemoResponder) Rules() []DemoRule {
	out := make([]DemoRule, len(d.rules))
	copy(out, d.rules)
	return out
}
