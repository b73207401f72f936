// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes provider failures for handling.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConnectivity
	KindModelNotFound
	KindTimeout
	KindAuth
	KindMalformedResponse
	KindServer
)

// String returns a short label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindModelNotFound:
		return "model_not_found"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindMalformedResponse:
		return "malformed_response"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind     ErrorKind
	Provider string // provider name, empty for sentinels
	Message  string
	Status   int // HTTP status when the failure came from a response
	Cause    error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so a concrete failure satisfies
// errors.Is against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors for easy checking. ErrConnectionRefused and ErrUnavailable
// share KindConnectivity and therefore match each other.
var (
	ErrConnectionRefused = &Error{Kind: KindConnectivity, Message: "connection refused"}
	ErrUnavailable       = &Error{Kind: KindConnectivity, Message: "provider unavailable"}
	ErrModelNotFound     = &Error{Kind: KindModelNotFound, Message: "model not found"}
	ErrTimeout           = &Error{Kind: KindTimeout, Message: "request timed out"}
	ErrUnauthorized      = &Error{Kind: KindAuth, Message: "unauthorized"}
	ErrInvalidResponse   = &Error{Kind: KindMalformedResponse, Message: "invalid response format"}
)

// NewError builds an Error for the named provider.
func NewError(kind ErrorKind, providerName, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: providerName, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// HELPERS
// =============================================================================

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsModelNotFound checks if an error is a model-not-found error.
func IsModelNotFound(err error) bool {
	return KindOf(err) == KindModelNotFound
}

// IsUnavailable checks if the provider could not be reached at all.
func IsUnavailable(err error) bool {
	return KindOf(err) == KindConnectivity
}

// IsAuth checks if the provider rejected the credential.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}
