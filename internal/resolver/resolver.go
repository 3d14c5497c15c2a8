// Package resolver folds per-message extractions into application
// records and keeps the vector index in sync with every change.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

// Resolver is the single writer of application records. Resolution for a
// given bucket is serialized; different buckets may resolve concurrently.
type Resolver struct {
	storage  service.Storage
	embedder service.Embedder
	index    service.VectorIndex
	logger   *slog.Logger

	mu      sync.Mutex
	buckets map[string]*sync.Mutex
}

// New creates a resolver wired to the record store and vector index.
func New(storage service.Storage, embedder service.Embedder, index service.VectorIndex, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		storage:  storage,
		embedder: embedder,
		index:    index,
		logger:   logger,
		buckets:  make(map[string]*sync.Mutex),
	}
}

// BucketKey derives the record bucket for an extraction: the normalized
// company name when present, else the message thread. Empty means the
// message cannot be resolved.
func BucketKey(company, threadID string) string {
	if key := NormalizeCompany(company); key != "" {
		return key
	}
	return strings.TrimSpace(threadID)
}

// Resolve folds one extraction into its application record, creating the
// record if the bucket is new, and upserts the refreshed index entry
// before returning. A message with no bucket key is skipped with
// common.ErrNoBucketKey.
func (r *Resolver) Resolve(ctx context.Context, extraction model.ExtractionResult, msg model.Message) (*model.ApplicationRecord, error) {
	key := BucketKey(extraction.Company, msg.ThreadID)
	if key == "" {
		r.logger.Warn("skipping message with no bucket key", "message_id", msg.ID)
		return nil, fmt.Errorf("%w: message %s", common.ErrNoBucketKey, msg.ID)
	}

	lock := r.bucketLock(key)
	lock.Lock()
	defer lock.Unlock()

	record, err := r.storage.GetApplicationRecordByBucket(ctx, key)
	if err != nil {
		if !common.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load record for bucket %q: %w", key, err)
		}
		record = &model.ApplicationRecord{
			ApplicationID: uuid.NewString(),
			BucketKey:     key,
			CurrentStatus: model.StatusUnknown,
		}
	}

	if record.HasSourceMessage(msg.ID) {
		// Already resolved; nothing new to fold in.
		return record, nil
	}

	r.applyExtraction(record, extraction, msg)

	if err := r.storage.SaveApplicationRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save record %s: %w", record.ApplicationID, err)
	}

	if err := r.syncIndex(ctx, record); err != nil {
		return record, fmt.Errorf("record %s saved but index sync failed: %w", record.ApplicationID, err)
	}

	return record, nil
}

// ResolveAll folds a batch of extractions in order, marking each resolved
// in the store as it lands. Per-message failures are counted, not fatal.
func (r *Resolver) ResolveAll(ctx context.Context, extractions []model.ExtractionResult) (service.StageStats, error) {
	stats := service.StageStats{Stage: "resolve"}

	for _, extraction := range extractions {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		msg, err := r.storage.GetMessageByID(ctx, extraction.MessageID)
		if err != nil {
			r.logger.Error("failed to load message for extraction",
				"message_id", extraction.MessageID, "error", err)
			stats.Failed++
			continue
		}

		if _, err := r.Resolve(ctx, extraction, *msg); err != nil {
			if common.IsNoBucketKey(err) {
				stats.Skipped++
			} else {
				r.logger.Error("resolution failed", "message_id", extraction.MessageID, "error", err)
				stats.Failed++
			}
			continue
		}

		if err := r.storage.MarkExtractionResolved(ctx, extraction.MessageID); err != nil {
			r.logger.Error("failed to mark extraction resolved",
				"message_id", extraction.MessageID, "error", err)
			stats.Failed++
			continue
		}

		stats.Succeeded++
	}

	return stats, nil
}

// applyExtraction merges the extraction's evidence into the record.
func (r *Resolver) applyExtraction(record *model.ApplicationRecord, extraction model.ExtractionResult, msg model.Message) {
	if record.Company == "" && extraction.Company != "" {
		record.Company = strings.TrimSpace(extraction.Company)
	}
	if extraction.Position != "" {
		// Most recent non-empty position wins.
		record.Position = NormalizePosition(extraction.Position)
	}
	if extraction.ApplicationLink != "" {
		record.ApplicationLink = extraction.ApplicationLink
	}

	if extraction.Status != model.StatusUnknown {
		eventDate := msg.ReceivedAt.UTC()
		if extraction.EventDate != nil {
			eventDate = extraction.EventDate.UTC()
		}
		record.InsertStatusEvent(model.StatusEvent{
			Status:          extraction.Status,
			Date:            eventDate,
			SourceMessageID: msg.ID,
			Confidence:      extraction.Confidence,
		})
	}

	record.AddSourceMessage(msg.ID)
	record.LastUpdatedAt = time.Now().UTC()
}

// syncIndex re-embeds the record's queryable fields and upserts the
// entry, keeping the index consistent with the store.
func (r *Resolver) syncIndex(ctx context.Context, record *model.ApplicationRecord) error {
	text := EmbeddingText(record)

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed record: %w", err)
	}

	entry := model.IndexEntry{
		Payload: model.IndexPayload{
			ApplicationID: record.ApplicationID,
			Company:       record.Company,
			Position:      record.Position,
			Status:        record.CurrentStatus,
			LastUpdatedAt: record.LastUpdatedAt.Format(time.RFC3339),
		},
		Embedding: vector,
	}

	return r.index.Upsert(ctx, entry)
}

// EmbeddingText renders the structured fields the answerer queries over.
// Raw message bodies are deliberately not embedded.
func EmbeddingText(record *model.ApplicationRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\n", record.Company)
	fmt.Fprintf(&sb, "Position: %s\n", record.Position)
	fmt.Fprintf(&sb, "Status: %s\n", record.CurrentStatus)
	if len(record.StatusHistory) > 0 {
		latest := record.StatusHistory[len(record.StatusHistory)-1]
		fmt.Fprintf(&sb, "Latest event: %s on %s\n", latest.Status, latest.Date.Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, "Last updated: %s", record.LastUpdatedAt.Format("2006-01-02"))
	return sb.String()
}

func (r *Resolver) bucketLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.buckets[key]
	if !ok {
		lock = &sync.Mutex{}
		r.buckets[key] = lock
	}
	return lock
}
