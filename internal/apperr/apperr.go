// Package apperr defines the error taxonomy shared by the itinerary
// planning engine and its HTTP surface.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy. It is a classification, not a Go type — every
// component returns one of these via *Error so callers can switch on Kind
// without type-asserting concrete error types.
type Kind string

const (
	KindValidation            Kind = "Validation"
	KindNotFound              Kind = "NotFound"
	KindProviderQuota         Kind = "ProviderQuota"
	KindProviderRateLimit     Kind = "ProviderRateLimit"
	KindProviderDenied        Kind = "ProviderDenied"
	KindProviderInvalidRequest Kind = "ProviderInvalidRequest"
	KindProviderNetwork       Kind = "ProviderNetwork"
	KindDeadline              Kind = "Deadline"
	KindInternal              Kind = "Internal"
)

// Error is the concrete error type carried through the engine.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithDetails attaches structured details (e.g. upstream status code) and
// returns the same *Error for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// KindOf extracts the Kind from err. When err is nil or has no *Error in its
// chain, it returns the zero Kind with ok=false.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Retryable reports whether the error kind should be retried by the
// provider decorator (see internal/mapprovider/retry.go).
func Retryable(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	return k == KindProviderRateLimit || k == KindProviderNetwork
}

// TriggersFallback reports whether the error kind should hand control to
// the FallbackPlanner (C7). Per spec.md §7's contract table, ProviderQuota
// and (post-retry) ProviderRateLimit/ProviderNetwork fall back;
// ProviderDenied and ProviderInvalidRequest are surfaced fatal instead —
// see DESIGN.md's Open Question note on the §4.5/§7 wording mismatch.
func TriggersFallback(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	return k == KindProviderQuota || k == KindProviderRateLimit || k == KindProviderNetwork
}
