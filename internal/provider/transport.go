// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// DefaultUserAgent identifies requests made by this program.
	DefaultUserAgent = "localgpt/0.1"

	// DefaultProbeTimeout bounds reachability checks.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultGenerateTimeout bounds a single generation request.
	DefaultGenerateTimeout = 30 * time.Second
)

// PERFORMANCE: Shared client with connection pooling. Deadlines come from
// the request context, so the client itself has no timeout.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// TRANSPORT
// =============================================================================

// AuthScheme selects how the credential is attached to requests.
type AuthScheme int

const (
	// AuthNone sends no credential.
	AuthNone AuthScheme = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
)

// Transport is the JSON-over-HTTP layer shared by every provider family.
// It maps transport failures onto the Error taxonomy; status codes are left
// to the caller since each family reports errors differently.
type Transport struct {
	Provider   string
	BaseURL    string
	Auth       AuthScheme
	Token      string
	UserAgent  string
	HTTPClient *http.Client
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Get issues a GET request for path relative to BaseURL.
func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

// PostJSON encodes in as the request body and issues a POST.
func (t *Transport) PostJSON(ctx context.Context, path string, in any) (*Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Provider: t.Provider, Message: "failed to marshal request", Cause: err}
	}
	return t.do(ctx, http.MethodPost, path, body)
}

// DecodeJSON unmarshals a response body, reporting failure as a malformed
// response.
func (t *Transport) DecodeJSON(resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{
			Kind:     KindMalformedResponse,
			Provider: t.Provider,
			Message:  "failed to decode response",
			Status:   resp.Status,
			Cause:    err,
		}
	}
	return nil
}

func (t *Transport) do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.url(path), reader)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, Provider: t.Provider, Message: "failed to create request", Cause: err}
	}
	t.setHeaders(req, body != nil)

	start := time.Now()
	client := t.HTTPClient
	if client == nil {
		client = sharedHTTPClient
	}
	resp, err := client.Do(req)

	// SECURITY: Drop the credential from the request before anything can log it.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, t.mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Provider: t.Provider, Message: err.Error(), Status: resp.StatusCode}
	}

	log.Debug().
		Str("provider", t.Provider).
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("provider request")

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func (t *Transport) url(path string) string {
	return strings.TrimRight(t.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (t *Transport) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	if t.Auth == AuthBearer && t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}
}

// mapTransportError classifies a failure that produced no HTTP response.
func (t *Transport) mapTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Provider: t.Provider, Message: "request timed out", Cause: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Provider: t.Provider, Message: "request timed out", Cause: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Kind: KindConnectivity, Provider: t.Provider, Message: "connection refused", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindConnectivity, Provider: t.Provider, Message: "request canceled", Cause: err}
	default:
		return &Error{Kind: KindConnectivity, Provider: t.Provider, Message: "request failed", Cause: err}
	}
}

// KeyFingerprint returns a log-safe identifier for the transport's token.
func (t *Transport) KeyFingerprint() string {
	return KeyFingerprint(t.Token)
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, errors.New("failed to read response: " + err.Error())
	}
	if len(body) > MaxResponseSize {
		return nil, errors.New("response exceeded maximum size")
	}
	return body, nil
}

// KeyFingerprint returns a secure fingerprint of an API key for logging.
// SECURITY: Never log key fragments; the first 4 bytes of a SHA-256 hash
// identify a key without exposing it.
func KeyFingerprint(key string) string {
	if key == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:4])
}

// WithTimeout derives a context bounded by d unless d is zero.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
