// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/localgpt/internal/provider"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where a stock Ollama install listens.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when no model has been configured.
	DefaultModel = "llama3.2"

	// Name is the provider name reported in descriptors and errors.
	Name = "ollama"
)

// ClientConfig holds configuration options for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434)
	BaseURL string

	// DefaultModel to use if none specified (default: "llama3.2")
	DefaultModel string

	// ProbeTimeout bounds the /api/version check (default: 5s)
	ProbeTimeout time.Duration

	// GenerateTimeout bounds a single generation (default: 30s)
	GenerateTimeout time.Duration

	// HTTPClient overrides the shared pooled client. Tests use this.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:         DefaultBaseURL,
		DefaultModel:    DefaultModel,
		ProbeTimeout:    provider.DefaultProbeTimeout,
		GenerateTimeout: provider.DefaultGenerateTimeout,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Ollama API.
//
// The Client is safe for concurrent use.
type Client struct {
	config    ClientConfig
	transport *provider.Transport
}

var _ provider.Client = (*Client)(nil)

// NewClient creates a new Ollama client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new Ollama client with custom configuration.
// Zero fields fall back to their defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	cfg := *DefaultConfig()
	if config != nil {
		cfg = *config
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = provider.DefaultProbeTimeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = provider.DefaultGenerateTimeout
	}

	return &Client{
		config: cfg,
		transport: &provider.Transport{
			Provider:   Name,
			BaseURL:    cfg.BaseURL,
			Auth:       provider.AuthNone,
			HTTPClient: cfg.HTTPClient,
		},
	}
}

// Name returns "ollama".
func (c *Client) Name() string { return Name }

// Kind returns provider.KindLocal.
func (c *Client) Kind() provider.Kind { return provider.KindLocal }

// DefaultModel returns the configured default model.
func (c *Client) DefaultModel() string { return c.config.DefaultModel }

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Probe reports whether the server answers /api/version with 200 within the
// probe timeout.
func (c *Client) Probe(ctx context.Context) bool {
	_, err := c.Version(ctx)
	if err != nil {
		log.Debug().Err(err).Str("url", c.config.BaseURL).Msg("ollama probe failed")
		return false
	}
	return true
}

// Version returns the server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := provider.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	resp, err := c.transport.Get(ctx, "/api/version")
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", c.statusError(resp, "version check failed")
	}

	var v VersionResponse
	if err := c.transport.DecodeJSON(resp, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// =============================================================================
// MODEL MANAGEMENT
// =============================================================================

// ListModels returns the names of the locally installed models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	infos, err := c.ListModelInfo(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, m := range infos {
		names = append(names, m.Name)
	}
	return names, nil
}

// ListModelInfo returns the full /api/tags listing.
func (c *Client) ListModelInfo(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := provider.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	resp, err := c.transport.Get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, c.statusError(resp, "failed to list models")
	}

	var result ListModelsResponse
	if err := c.transport.DecodeJSON(resp, &result); err != nil {
		return nil, err
	}
	return result.Models, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate sends prompt to /api/generate without streaming and returns the
// complete response text.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.config.DefaultModel
	}

	ctx, cancel := provider.WithTimeout(ctx, c.config.GenerateTimeout)
	defer cancel()

	resp, err := c.transport.PostJSON(ctx, "/api/generate", GenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", err
	}

	if resp.Status == http.StatusNotFound {
		return "", &provider.Error{
			Kind:     provider.KindModelNotFound,
			Provider: Name,
			Message:  `model "` + model + `" not found, try pulling it first`,
			Status:   resp.Status,
		}
	}
	if resp.Status != http.StatusOK {
		return "", c.statusError(resp, "generate request failed")
	}

	var result GenerateResponse
	if err := c.transport.DecodeJSON(resp, &result); err != nil {
		return "", err
	}
	if result.Response == "" {
		return "", &provider.Error{
			Kind:     provider.KindMalformedResponse,
			Provider: Name,
			Message:  "invalid response format from Ollama",
			Status:   resp.Status,
		}
	}

	log.Debug().
		Str("model", model).
		Int("tokens", result.EvalCount).
		Float64("tokens_per_sec", result.TokensPerSecond()).
		Msg("ollama generation complete")

	return result.Response, nil
}

// statusError converts a non-200 response into a provider error, preferring
// the server's own {"error": "..."} message.
func (c *Client) statusError(resp *provider.Response, fallback string) error {
	kind := provider.KindServer
	switch resp.Status {
	case http.StatusNotFound:
		kind = provider.KindModelNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = provider.KindAuth
	}

	msg := fallback + ": " + http.StatusText(resp.Status)
	var body OllamaError
	if err := c.transport.DecodeJSON(resp, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	return &provider.Error{Kind: kind, Provider: Name, Message: msg, Status: resp.Status}
}
