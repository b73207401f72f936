// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/localgpt/internal/provider"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxTokens caps the completion length.
	DefaultMaxTokens = 1000

	// DefaultTemperature is the sampling temperature sent with every request.
	DefaultTemperature = 0.7
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config configures a Client for one vendor.
type Config struct {
	Preset Preset
	APIKey string

	// BaseURL overrides Preset.BaseURL. Tests point this at httptest servers.
	BaseURL string

	// Model overrides Preset.DefaultModel.
	Model string

	MaxTokens       int
	Temperature     float64
	ProbeTimeout    time.Duration
	GenerateTimeout time.Duration
	HTTPClient      *http.Client
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a chat-completions provider. It is safe for concurrent use.
type Client struct {
	preset          Preset
	model           string
	maxTokens       int
	temperature     float32
	probeTimeout    time.Duration
	generateTimeout time.Duration
	transport       *provider.Transport
}

var _ provider.Client = (*Client)(nil)

// NewClient creates a client for cfg.Preset. Zero fields fall back to the
// preset or package defaults.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = cfg.Preset.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = cfg.Preset.DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = provider.DefaultProbeTimeout
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = provider.DefaultGenerateTimeout
	}

	return &Client{
		preset:          cfg.Preset,
		model:           model,
		maxTokens:       maxTokens,
		temperature:     float32(temperature),
		probeTimeout:    probeTimeout,
		generateTimeout: generateTimeout,
		transport: &provider.Transport{
			Provider:   cfg.Preset.Name,
			BaseURL:    strings.TrimRight(baseURL, "/"),
			Auth:       provider.AuthBearer,
			Token:      cfg.APIKey,
			HTTPClient: cfg.HTTPClient,
		},
	}
}

// Name returns the vendor name.
func (c *Client) Name() string { return c.preset.Name }

// Kind returns provider.KindCloud.
func (c *Client) Kind() provider.Kind { return provider.KindCloud }

// DefaultModel returns the configured model.
func (c *Client) DefaultModel() string { return c.model }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.transport.Token != "" }

// KeyFingerprint returns a log-safe identifier for the API key.
func (c *Client) KeyFingerprint() string { return c.transport.KeyFingerprint() }

// =============================================================================
// PROBE AND MODELS
// =============================================================================

// Probe issues an authenticated GET {base}/models; only a 200 counts as
// reachable. Without an API key no request is made.
func (c *Client) Probe(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}

	ctx, cancel := provider.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.transport.Get(ctx, "/models")
	if err != nil {
		log.Debug().Err(err).Str("provider", c.Name()).Msg("cloud probe failed")
		return false
	}
	if resp.Status != http.StatusOK {
		log.Debug().
			Str("provider", c.Name()).
			Int("status", resp.Status).
			Str("key", c.KeyFingerprint()).
			Msg("cloud probe rejected")
		return false
	}
	return true
}

// ListModels returns the model ids the vendor reports. Vendors answer either
// with {"data":[...]} or with a bare array.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if !c.Configured() {
		return nil, c.missingKey()
	}

	ctx, cancel := provider.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	resp, err := c.transport.Get(ctx, "/models")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, c.handleErrorResponse(resp)
	}

	var models []openai.Model
	var list openai.ModelsList
	if err := json.Unmarshal(resp.Body, &list); err == nil {
		models = list.Models
	} else if err := c.transport.DecodeJSON(resp, &models); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends prompt as a single user message to /chat/completions and
// returns the first choice's content.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if !c.Configured() {
		return "", c.missingKey()
	}
	if model == "" {
		model = c.model
	}

	ctx, cancel := provider.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.transport.PostJSON(ctx, "/chat/completions", req)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", c.handleErrorResponse(resp)
	}

	var completion openai.ChatCompletionResponse
	if err := c.transport.DecodeJSON(resp, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", &provider.Error{
			Kind:     provider.KindMalformedResponse,
			Provider: c.Name(),
			Message:  "invalid response format: no choices",
			Status:   resp.Status,
		}
	}

	log.Debug().
		Str("provider", c.Name()).
		Str("model", model).
		Int("completion_tokens", completion.Usage.CompletionTokens).
		Msg("cloud generation complete")

	return completion.Choices[0].Message.Content, nil
}

// handleErrorResponse converts a non-2xx response into a provider error
// carrying the vendor's {"error":{"message"}} text when present.
func (c *Client) handleErrorResponse(resp *provider.Response) error {
	detail := "Unknown error"
	var body openai.ErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error != nil && body.Error.Message != "" {
		detail = body.Error.Message
	}

	kind := provider.KindServer
	switch resp.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = provider.KindAuth
		log.Warn().
			Str("provider", c.Name()).
			Str("key", c.KeyFingerprint()).
			Int("status", resp.Status).
			Msg("cloud provider rejected credential")
	case http.StatusNotFound:
		kind = provider.KindModelNotFound
	}

	return &provider.Error{
		Kind:     kind,
		Provider: c.Name(),
		Message:  fmt.Sprintf("API error: %d - %s", resp.Status, detail),
		Status:   resp.Status,
	}
}

func (c *Client) missingKey() error {
	return provider.NewError(provider.KindAuth, c.Name(), "no API key configured (set %s)", c.preset.EnvVar)
}
