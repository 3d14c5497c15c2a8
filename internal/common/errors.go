// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Capability errors. Embedding and generation are external services;
	// unreachable or timed-out calls are retryable.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// Configuration errors. These indicate a setup problem and are fatal,
	// never retried.
	ErrMissingConfig    = errors.New("missing configuration")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrConfigMismatch   = errors.New("configuration mismatch")
	ErrMissingArtifact  = errors.New("classifier artifact missing")
	ErrArtifactVersion  = errors.New("unsupported classifier artifact version")

	// Resolution errors.
	ErrNoBucketKey = errors.New("no bucket key derivable")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoBucketKey reports whether the error is an unresolvable-message skip.
func IsNoBucketKey(err error) bool {
	return errors.Is(err, ErrNoBucketKey)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConfigMismatch) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrInvalidConfig) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrCapabilityUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
