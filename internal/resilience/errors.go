package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// ClassifyHTTPStatus maps an HTTP status code to a provider error kind.
// Codes that don't indicate a known failure mode map to ErrUnknown.
func ClassifyHTTPStatus(statusCode int) model.ProviderErrorKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return model.ErrRateLimited
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return model.ErrAuthFailure
	case statusCode == http.StatusNotFound:
		return model.ErrNotFound
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return model.ErrTimeout
	case statusCode >= 500:
		return model.ErrUnknown
	default:
		return model.ErrUnknown
	}
}

// Classify wraps err as a ProviderError for the named provider, inferring the
// kind from the error chain. Already-classified errors pass through unchanged.
func Classify(provider string, err error) *model.ProviderError {
	if err == nil {
		return nil
	}

	var pe *model.ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.NewProviderError(provider, model.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.NewProviderError(provider, model.ErrTimeout, err)
	}

	return model.NewProviderError(provider, model.ErrUnknown, err)
}

// IsTransient reports whether the error is safe to retry: a retryable
// ProviderError, a network timeout, a dropped connection, or a DNS failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *model.ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
