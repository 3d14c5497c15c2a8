package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
)

// SaveMessages stores a batch of messages, ignoring IDs already present.
// Messages are immutable, so re-ingesting the same ID is a no-op rather
// than an update.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, messages []model.Message) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMessages(messages); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (id, subject, body, received_at, thread_id)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, msg := range messages {
		if _, err := stmt.ExecContext(ctx, msg.ID, msg.Subject, msg.Body, msg.ReceivedAt, msg.ThreadID); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", msg.ID, err)
		}
	}

	return tx.Commit()
}

// GetMessageByID retrieves a single message.
func (s *SQLiteStorage) GetMessageByID(ctx context.Context, id string) (*model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var msg model.Message
	var threadID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, body, received_at, thread_id
		FROM messages WHERE id = ?`, id).
		Scan(&msg.ID, &msg.Subject, &msg.Body, &msg.ReceivedAt, &threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	msg.ThreadID = threadID.String

	return &msg, nil
}

// GetMessagesToClassify returns messages without a relevance label,
// ordered by receipt time. Reruns only pick up the new arrivals.
func (s *SQLiteStorage) GetMessagesToClassify(ctx context.Context) ([]model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.subject, m.body, m.received_at, m.thread_id
		FROM messages m
		LEFT JOIN relevance_labels l ON l.message_id = m.id
		WHERE l.message_id IS NULL
		ORDER BY m.received_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages to classify: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

// GetMessagesToExtract returns job-related messages that have no
// extraction yet, ordered by receipt time.
func (s *SQLiteStorage) GetMessagesToExtract(ctx context.Context) ([]model.Message, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.subject, m.body, m.received_at, m.thread_id
		FROM messages m
		JOIN relevance_labels l ON l.message_id = m.id
		LEFT JOIN extractions e ON e.message_id = m.id
		WHERE l.is_job_related = 1 AND e.message_id IS NULL
		ORDER BY m.received_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages to extract: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var threadID sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Subject, &msg.Body, &msg.ReceivedAt, &threadID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.ThreadID = threadID.String
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// SaveRelevanceLabel stores or replaces the label for a message.
// Labels are recomputed only on reprocessing, so replace is intended.
func (s *SQLiteStorage) SaveRelevanceLabel(ctx context.Context, label *model.RelevanceLabel) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLabel(label); err != nil {
		return err
	}

	related := 0
	if label.IsJobRelated {
		related = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relevance_labels (message_id, is_job_related, confidence)
		VALUES (?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			is_job_related = excluded.is_job_related,
			confidence = excluded.confidence,
			labeled_at = CURRENT_TIMESTAMP`,
		label.MessageID, related, label.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save relevance label: %w", err)
	}

	return nil
}

// GetRelevanceLabel retrieves the label for a message.
func (s *SQLiteStorage) GetRelevanceLabel(ctx context.Context, messageID string) (*model.RelevanceLabel, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return nil, err
	}

	var label model.RelevanceLabel
	var related int
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, is_job_related, confidence
		FROM relevance_labels WHERE message_id = ?`, messageID).
		Scan(&label.MessageID, &related, &label.Confidence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relevance label: %w", err)
	}
	label.IsJobRelated = related == 1

	return &label, nil
}
