package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
)

// SaveExtraction stores or replaces the extraction for a message.
func (s *SQLiteStorage) SaveExtraction(ctx context.Context, extraction *model.ExtractionResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if extraction == nil {
		return fmt.Errorf("%w: extraction", ErrNilParameter)
	}
	if err := validateString(extraction.MessageID, "messageID"); err != nil {
		return err
	}

	status := extraction.Status
	if !status.Valid() {
		status = model.StatusUnknown
	}

	var eventDate any
	if extraction.EventDate != nil {
		eventDate = *extraction.EventDate
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extractions (message_id, company, position, status, event_date, application_link, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			company = excluded.company,
			position = excluded.position,
			status = excluded.status,
			event_date = excluded.event_date,
			application_link = excluded.application_link,
			confidence = excluded.confidence,
			resolved = 0,
			extracted_at = CURRENT_TIMESTAMP`,
		extraction.MessageID, nullString(extraction.Company), nullString(extraction.Position),
		string(status), eventDate, nullString(extraction.ApplicationLink), extraction.Confidence)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}

	return nil
}

// GetExtraction retrieves the extraction for a message.
func (s *SQLiteStorage) GetExtraction(ctx context.Context, messageID string) (*model.ExtractionResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT message_id, company, position, status, event_date, application_link, confidence
		FROM extractions WHERE message_id = ?`, messageID)

	extraction, err := scanExtraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	return extraction, nil
}

// GetExtractionsToResolve returns unresolved extractions in message
// receipt order, so the resolver sees evidence roughly chronologically.
func (s *SQLiteStorage) GetExtractionsToResolve(ctx context.Context) ([]model.ExtractionResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.message_id, e.company, e.position, e.status, e.event_date, e.application_link, e.confidence
		FROM extractions e
		JOIN messages m ON m.id = e.message_id
		WHERE e.resolved = 0
		ORDER BY m.received_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query extractions to resolve: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var extractions []model.ExtractionResult
	for rows.Next() {
		extraction, scanErr := scanExtraction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", scanErr)
		}
		extractions = append(extractions, *extraction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extractions: %w", err)
	}

	return extractions, nil
}

// MarkExtractionResolved flags an extraction as consumed by the resolver.
func (s *SQLiteStorage) MarkExtractionResolved(ctx context.Context, messageID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(messageID, "messageID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE extractions SET resolved = 1 WHERE message_id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("failed to mark extraction resolved: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (*model.ExtractionResult, error) {
	var extraction model.ExtractionResult
	var company, position, link sql.NullString
	var status string
	var eventDate sql.NullTime

	if err := row.Scan(&extraction.MessageID, &company, &position, &status,
		&eventDate, &link, &extraction.Confidence); err != nil {
		return nil, err
	}

	extraction.Company = company.String
	extraction.Position = position.String
	extraction.ApplicationLink = link.String
	extraction.Status = model.ParseStatus(status)
	if eventDate.Valid {
		d := eventDate.Time.UTC()
		extraction.EventDate = &d
	}

	return &extraction, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
