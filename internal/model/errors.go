package model

import (
	"errors"
	"fmt"
	"strings"
)

// ProviderErrorKind classifies a single failed provider call.
type ProviderErrorKind string

const (
	ErrTimeout           ProviderErrorKind = "timeout"
	ErrRateLimited       ProviderErrorKind = "rate_limited"
	ErrAuthFailure       ProviderErrorKind = "auth_failure"
	ErrNotFound          ProviderErrorKind = "not_found"
	ErrMalformedResponse ProviderErrorKind = "malformed_response"
	ErrUnknown           ProviderErrorKind = "unknown"
)

// ProviderError is the typed failure returned by provider adapters. The
// fallback sequencer records these; past that boundary they surface only as
// TripState error entries, never as raised errors.
type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError wrapping cause.
func NewProviderError(provider string, kind ProviderErrorKind, cause error) *ProviderError {
	pe := &ProviderError{Provider: provider, Kind: kind, Err: cause}
	if cause != nil {
		pe.Message = cause.Error()
	}
	return pe
}

// Retryable reports whether the failure may succeed on a later attempt
// against the same provider.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

// AsProviderError extracts a ProviderError from an error chain, wrapping
// unclassified errors as ErrUnknown so every attempt gets a typed record.
func AsProviderError(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewProviderError(provider, ErrUnknown, err)
}

// AggregateError reports that every provider in a fallback chain failed.
// Attempts preserves the per-provider errors in the order they were tried.
type AggregateError struct {
	Operation string
	Attempts  []*ProviderError
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("%s: all %d providers failed: %s", e.Operation, len(e.Attempts), strings.Join(parts, "; "))
}
