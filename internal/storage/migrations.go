package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS messages (
					id TEXT PRIMARY KEY,
					subject TEXT NOT NULL,
					body TEXT NOT NULL,
					received_at DATETIME NOT NULL,
					thread_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_messages_received ON messages(received_at)`,
				`CREATE INDEX idx_messages_thread ON messages(thread_id)`,

				`CREATE TABLE IF NOT EXISTS relevance_labels (
					message_id TEXT PRIMARY KEY,
					is_job_related INTEGER NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					labeled_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (message_id) REFERENCES messages(id)
				)`,

				`CREATE TABLE IF NOT EXISTS extractions (
					message_id TEXT PRIMARY KEY,
					company TEXT,
					position TEXT,
					status TEXT NOT NULL DEFAULT 'UNKNOWN',
					event_date DATETIME,
					application_link TEXT,
					confidence REAL NOT NULL DEFAULT 0,
					resolved INTEGER NOT NULL DEFAULT 0,
					extracted_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (message_id) REFERENCES messages(id)
				)`,
				`CREATE INDEX idx_extractions_resolved ON extractions(resolved)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Application records and status history",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS application_records (
					application_id TEXT PRIMARY KEY,
					bucket_key TEXT UNIQUE NOT NULL,
					company TEXT,
					position TEXT,
					application_link TEXT,
					current_status TEXT NOT NULL DEFAULT 'UNKNOWN',
					last_updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_records_status ON application_records(current_status)`,
				`CREATE INDEX idx_records_company ON application_records(company)`,

				`CREATE TABLE IF NOT EXISTS status_events (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					application_id TEXT NOT NULL,
					seq INTEGER NOT NULL,
					status TEXT NOT NULL,
					event_date DATETIME NOT NULL,
					source_message_id TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					FOREIGN KEY (application_id) REFERENCES application_records(application_id)
				)`,
				`CREATE INDEX idx_status_events_app ON status_events(application_id, seq)`,
				`CREATE INDEX idx_status_events_date ON status_events(event_date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Record source message set",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS record_sources (
					application_id TEXT NOT NULL,
					message_id TEXT NOT NULL,
					PRIMARY KEY (application_id, message_id),
					FOREIGN KEY (application_id) REFERENCES application_records(application_id),
					FOREIGN KEY (message_id) REFERENCES messages(id)
				)`,
				`CREATE INDEX idx_record_sources_message ON record_sources(message_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		slog.Info("Applying migration",
			"version", migration.Version,
			"description", migration.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	final, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if final != ExpectedSchemaVersion {
		return fmt.Errorf("schema version %d does not match expected %d", final, ExpectedSchemaVersion)
	}

	return nil
}

func (s *SQLiteStorage) currentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
