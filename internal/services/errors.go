package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"stocks-api/internal/models"
)

// Error kinds. Every pipeline failure wraps exactly one of these.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrInternal     = errors.New("internal error")
)

// Error is a classified pipeline failure. Detail is a short diagnostic that is
// safe to show to API clients; Err keeps the underlying cause for logs only.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind sentinel carried by err; unclassified errors are internal.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalidInput, ErrNotFound, ErrUpstream, ErrInternal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// DetailOf returns the client-safe diagnostic of err.
func DetailOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Detail
	}
	return "internal server error"
}

// StatusFor maps an error onto the HTTP status the facade responds with.
func StatusFor(err error) int {
	switch KindOf(err) {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponseFor renders err as an API error body.
func ErrorResponseFor(err error) *models.ErrorResponse {
	code := StatusFor(err)
	return &models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: DetailOf(err),
		Code:    code,
	}
}

// Behaviours a provider error may expose to steer classification.
type notFounder interface{ NotFound() bool }
type transient interface{ Transient() bool }

// classifyProviderError maps a provider failure seen on the final attempt onto
// the error taxonomy. Structured signals win; message matching is the fallback
// for providers that only return text.
func classifyProviderError(symbol string, err error) *Error {
	var nf notFounder
	if errors.As(err, &nf) && nf.NotFound() {
		return newError(ErrNotFound, err, "symbol %s not found or no data available", symbol)
	}

	var tr transient
	if errors.As(err, &tr) && tr.Transient() {
		return newError(ErrUpstream, err, "service temporarily unavailable, please try again later")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newError(ErrUpstream, err, "service temporarily unavailable, please try again later")
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no data found") || strings.Contains(msg, "404"):
		return newError(ErrNotFound, err, "symbol %s not found or no data available", symbol)
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return newError(ErrUpstream, err, "service temporarily unavailable, please try again later")
	default:
		return newError(ErrInternal, err, "failed to fetch data for %s", symbol)
	}
}
