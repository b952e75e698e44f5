package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed submission. Never retried.
	ErrValidation = errors.New("validation error")

	// ErrStorage marks an unavailable sink or a failed write.
	ErrStorage = errors.New("storage error")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// ProviderErrorKind classifies failures of the external content provider.
type ProviderErrorKind string

const (
	ProviderErrNetwork   ProviderErrorKind = "network"
	ProviderErrAuth      ProviderErrorKind = "auth"
	ProviderErrRateLimit ProviderErrorKind = "rate_limit"
	ProviderErrUnknown   ProviderErrorKind = "unknown"
)

// ProviderError is returned by a poll that could not fetch a source.
// The scheduler logs it and moves on to the next source.
type ProviderError struct {
	Source string
	Kind   ProviderErrorKind
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s error for %s: %v", e.Kind, e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err unless it already is a ProviderError.
func NewProviderError(source string, kind ProviderErrorKind, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Source == "" {
			pe.Source = source
		}
		return pe
	}
	return &ProviderError{Source: source, Kind: kind, Err: err}
}
