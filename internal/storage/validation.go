// Package storage provides the data persistence layer for the jobtrail application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobtrail/jobtrail/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidLabel   = errors.New("invalid relevance label")
	ErrInvalidRecord  = errors.New("invalid application record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMessages validates a slice of messages.
func validateMessages(messages []model.Message) error {
	if messages == nil {
		return fmt.Errorf("%w: messages", ErrNilParameter)
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: messages", ErrEmptySlice)
	}

	for i, msg := range messages {
		if err := validateMessage(&msg); err != nil {
			return fmt.Errorf("message at index %d: %w", i, err)
		}
	}
	return nil
}

// validateMessage validates a single message.
func validateMessage(msg *model.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNilParameter)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidMessage)
	}
	if msg.ReceivedAt.IsZero() {
		return fmt.Errorf("%w: missing received_at", ErrInvalidMessage)
	}
	return nil
}

// validateLabel validates a relevance label.
func validateLabel(label *model.RelevanceLabel) error {
	if label == nil {
		return fmt.Errorf("%w: label", ErrNilParameter)
	}
	if label.MessageID == "" {
		return fmt.Errorf("%w: missing message ID", ErrInvalidLabel)
	}
	if label.Confidence < 0 || label.Confidence > 1 {
		return fmt.Errorf("%w: confidence out of range", ErrInvalidLabel)
	}
	return nil
}

// validateRecord validates an application record.
func validateRecord(record *model.ApplicationRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.ApplicationID == "" {
		return fmt.Errorf("%w: missing application ID", ErrInvalidRecord)
	}
	if record.BucketKey == "" {
		return fmt.Errorf("%w: missing bucket key", ErrInvalidRecord)
	}
	if !record.CurrentStatus.Valid() {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidRecord, record.CurrentStatus)
	}
	return nil
}
