// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/jeranaias/localgpt/internal/ollama"
	"github.com/jeranaias/localgpt/internal/provider"
)

var (
	// ErrEmptyMessage is returned for empty or whitespace-only input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned while another reply is being generated.
	ErrBusy = errors.New("a response is already being generated")
)

const errorPrefix = "Error: "

// DescribeError renders a generation failure as the text of an assistant
// message. A nil error renders as "".
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var pe *provider.Error
	if !errors.As(err, &pe) {
		msg := err.Error()
		if msg == "" {
			msg = "Failed to generate response"
		}
		return errorPrefix + msg
	}

	switch pe.Kind {
	case provider.KindTimeout:
		return errorPrefix + "Request timeout. The model might be too slow or overloaded."
	case provider.KindConnectivity:
		if pe.Provider == ollama.Name {
			return errorPrefix + "Ollama service is not running. Please start Ollama first."
		}
		return errorPrefix + fmt.Sprintf("Could not reach %s. Check your network connection.", providerLabel(pe))
	case provider.KindModelNotFound:
		return errorPrefix + pe.Message
	case provider.KindAuth:
		return errorPrefix + fmt.Sprintf("%s rejected the request: %s", providerLabel(pe), pe.Message)
	case provider.KindMalformedResponse:
		return errorPrefix + fmt.Sprintf("Invalid response format from %s", providerLabel(pe))
	default:
		return errorPrefix + pe.Message
	}
}

func providerLabel(pe *provider.Error) string {
	if pe.Provider == "" {
		return "the provider"
	}
	return pe.Provider
}
