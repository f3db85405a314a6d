package service

import (
	"errors"
	"fmt"

	"github.com/authcore/authcore/internal/metrics"
)

// Service errors. Collaborator failures wrap the underlying cause, so
// errors.Is matches both the kind and the cause.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrFieldTooLong       = errors.New("field exceeds maximum length")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRevoked            = errors.New("token has been revoked")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrSigningFailure     = errors.New("token signing failed")
)

// storeError wraps a backend failure as ErrStoreUnavailable.
func storeError(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// outcomeOf classifies err for metrics: backend failures count as errors,
// everything else the caller could fix counts as a rejection.
func outcomeOf(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrSigningFailure):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}
