// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/jobtrail/jobtrail/internal/model"
)

// RecordFilter defines filtering options for application record queries.
type RecordFilter struct {
	UpdatedAfter  *time.Time
	UpdatedBefore *time.Time
	Status        model.ApplicationStatus
	Company       string
	Limit         int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Message operations
	SaveMessages(ctx context.Context, messages []model.Message) error
	GetMessageByID(ctx context.Context, id string) (*model.Message, error)
	GetMessagesToClassify(ctx context.Context) ([]model.Message, error)
	GetMessagesToExtract(ctx context.Context) ([]model.Message, error)

	// Relevance label operations
	SaveRelevanceLabel(ctx context.Context, label *model.RelevanceLabel) error
	GetRelevanceLabel(ctx context.Context, messageID string) (*model.RelevanceLabel, error)

	// Extraction operations
	SaveExtraction(ctx context.Context, extraction *model.ExtractionResult) error
	GetExtraction(ctx context.Context, messageID string) (*model.ExtractionResult, error)
	GetExtractionsToResolve(ctx context.Context) ([]model.ExtractionResult, error)
	MarkExtractionResolved(ctx context.Context, messageID string) error

	// Application record operations
	SaveApplicationRecord(ctx context.Context, record *model.ApplicationRecord) error
	GetApplicationRecord(ctx context.Context, applicationID string) (*model.ApplicationRecord, error)
	GetApplicationRecordByBucket(ctx context.Context, bucketKey string) (*model.ApplicationRecord, error)
	GetApplicationRecords(ctx context.Context, filter RecordFilter) ([]model.ApplicationRecord, error)
	GetRecordsWithStatusEventsBetween(ctx context.Context, start, end time.Time) ([]model.ApplicationRecord, error)

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
}

// Embedder turns text into a fixed-dimension vector. Index-build time and
// query time must use the same capability and model version.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Generator produces free text from a prompt. Used both for
// schema-constrained extraction and for grounded answering.
type Generator interface {
	Generate(ctx context.Context, prompt string, systemPrompt string) (string, error)
}

// SearchResult is one vector index hit.
type SearchResult struct {
	ApplicationID string
	Score         float64
}

// VectorIndex stores one embedding plus payload per application record.
// Re-upserting the same application ID replaces the existing entry.
type VectorIndex interface {
	Upsert(ctx context.Context, entry model.IndexEntry) error
	Search(ctx context.Context, queryVector []float32, k int) ([]SearchResult, error)
	Delete(ctx context.Context, applicationID string) error
}

// StageStats shows the per-stage outcome counts of a pipeline run.
type StageStats struct {
	Stage     string
	Succeeded int
	Skipped   int
	Failed    int
}

// PipelineStats aggregates the stats of a full batch run.
type PipelineStats struct {
	Stages   []StageStats
	Duration time.Duration
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
