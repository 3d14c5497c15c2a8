package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

// SaveApplicationRecord stores or replaces a resolved application record,
// including its full status history and source message set. The resolver
// is the only caller; it owns the record and always writes the complete
// state, so history rows are rewritten rather than merged.
func (s *SQLiteStorage) SaveApplicationRecord(ctx context.Context, record *model.ApplicationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO application_records (application_id, bucket_key, company, position, application_link, current_status, last_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(application_id) DO UPDATE SET
			bucket_key = excluded.bucket_key,
			company = excluded.company,
			position = excluded.position,
			application_link = excluded.application_link,
			current_status = excluded.current_status,
			last_updated_at = excluded.last_updated_at`,
		record.ApplicationID, record.BucketKey, nullString(record.Company),
		nullString(record.Position), nullString(record.ApplicationLink),
		string(record.CurrentStatus), record.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save application record: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM status_events WHERE application_id = ?`, record.ApplicationID); err != nil {
		return fmt.Errorf("failed to clear status events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO status_events (application_id, seq, status, event_date, source_message_id, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare status event insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for seq, event := range record.StatusHistory {
		if _, err := stmt.ExecContext(ctx, record.ApplicationID, seq,
			string(event.Status), event.Date, event.SourceMessageID, event.Confidence); err != nil {
			return fmt.Errorf("failed to insert status event: %w", err)
		}
	}

	for _, messageID := range record.SourceMessageIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO record_sources (application_id, message_id)
			VALUES (?, ?)`, record.ApplicationID, messageID); err != nil {
			return fmt.Errorf("failed to insert record source: %w", err)
		}
	}

	return tx.Commit()
}

// GetApplicationRecord retrieves a record by application ID.
func (s *SQLiteStorage) GetApplicationRecord(ctx context.Context, applicationID string) (*model.ApplicationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(applicationID, "applicationID"); err != nil {
		return nil, err
	}

	return s.getRecordWhere(ctx, "application_id = ?", applicationID)
}

// GetApplicationRecordByBucket retrieves a record by its bucket key.
func (s *SQLiteStorage) GetApplicationRecordByBucket(ctx context.Context, bucketKey string) (*model.ApplicationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(bucketKey, "bucketKey"); err != nil {
		return nil, err
	}

	return s.getRecordWhere(ctx, "bucket_key = ?", bucketKey)
}

func (s *SQLiteStorage) getRecordWhere(ctx context.Context, where string, arg any) (*model.ApplicationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT application_id, bucket_key, company, position, application_link, current_status, last_updated_at
		FROM application_records WHERE `+where, arg)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application record: %w", err)
	}

	if err := s.loadRecordDetails(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// GetApplicationRecords returns records matching the filter, most recently
// updated first.
func (s *SQLiteStorage) GetApplicationRecords(ctx context.Context, filter service.RecordFilter) ([]model.ApplicationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT application_id, bucket_key, company, position, application_link, current_status, last_updated_at
		FROM application_records`
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "current_status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Company != "" {
		conditions = append(conditions, "company = ?")
		args = append(args, filter.Company)
	}
	if filter.UpdatedAfter != nil {
		conditions = append(conditions, "last_updated_at >= ?")
		args = append(args, *filter.UpdatedAfter)
	}
	if filter.UpdatedBefore != nil {
		conditions = append(conditions, "last_updated_at < ?")
		args = append(args, *filter.UpdatedBefore)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY last_updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query application records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.collectRecords(ctx, rows)
}

// GetRecordsWithStatusEventsBetween returns records that have at least
// one status event dated inside [start, end). Used by the answerer for
// aggregate date-range queries, which must see the full subset rather
// than a top-k sample.
func (s *SQLiteStorage) GetRecordsWithStatusEventsBetween(ctx context.Context, start, end time.Time) ([]model.ApplicationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidRecord)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.application_id, r.bucket_key, r.company, r.position, r.application_link, r.current_status, r.last_updated_at
		FROM application_records r
		JOIN status_events e ON e.application_id = r.application_id
		WHERE e.event_date >= ? AND e.event_date < ?
		ORDER BY r.last_updated_at DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query records by event date: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.collectRecords(ctx, rows)
}

func (s *SQLiteStorage) collectRecords(ctx context.Context, rows *sql.Rows) ([]model.ApplicationRecord, error) {
	var records []model.ApplicationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate application records: %w", err)
	}

	for i := range records {
		if err := s.loadRecordDetails(ctx, &records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (s *SQLiteStorage) loadRecordDetails(ctx context.Context, record *model.ApplicationRecord) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, event_date, source_message_id, confidence
		FROM status_events WHERE application_id = ? ORDER BY seq`, record.ApplicationID)
	if err != nil {
		return fmt.Errorf("failed to query status events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var event model.StatusEvent
		var status string
		if err := rows.Scan(&status, &event.Date, &event.SourceMessageID, &event.Confidence); err != nil {
			return fmt.Errorf("failed to scan status event: %w", err)
		}
		event.Status = model.ParseStatus(status)
		event.Date = event.Date.UTC()
		record.StatusHistory = append(record.StatusHistory, event)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate status events: %w", err)
	}

	sourceRows, err := s.db.QueryContext(ctx, `
		SELECT message_id FROM record_sources WHERE application_id = ? ORDER BY message_id`, record.ApplicationID)
	if err != nil {
		return fmt.Errorf("failed to query record sources: %w", err)
	}
	defer func() { _ = sourceRows.Close() }()

	for sourceRows.Next() {
		var messageID string
		if err := sourceRows.Scan(&messageID); err != nil {
			return fmt.Errorf("failed to scan record source: %w", err)
		}
		record.SourceMessageIDs = append(record.SourceMessageIDs, messageID)
	}
	return sourceRows.Err()
}

func scanRecord(row rowScanner) (*model.ApplicationRecord, error) {
	var record model.ApplicationRecord
	var company, position, link sql.NullString
	var status string

	if err := row.Scan(&record.ApplicationID, &record.BucketKey, &company,
		&position, &link, &status, &record.LastUpdatedAt); err != nil {
		return nil, err
	}

	record.Company = company.String
	record.Position = position.String
	record.ApplicationLink = link.String
	record.CurrentStatus = model.ParseStatus(status)
	record.LastUpdatedAt = record.LastUpdatedAt.UTC()

	return &record, nil
}
