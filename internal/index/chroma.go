// Package index provides the vector index over application records: a
// Chroma-backed implementation for production and an in-memory one for
// tests and single-shot local runs.
package index

import (
	"context"
	"fmt"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

// Config contains Chroma index configuration.
type Config struct {
	URL        string
	Collection string
	Dimension  int
}

// ChromaIndex implements service.VectorIndex against a Chroma server.
// Documents are keyed by application id; upserting an existing id
// replaces its vector and payload.
type ChromaIndex struct {
	client     chroma.Client
	collection chroma.Collection
	dimension  int
}

// NewChromaIndex connects to the Chroma server and opens (or creates)
// the configured collection.
func NewChromaIndex(ctx context.Context, cfg Config) (*ChromaIndex, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:8000"
	}
	if cfg.Collection == "" {
		cfg.Collection = "applications"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", common.ErrInvalidConfig)
	}

	client, err := chroma.NewHTTPClient(chroma.WithBaseURL(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %q: %w", cfg.Collection, err)
	}

	return &ChromaIndex{
		client:     client,
		collection: collection,
		dimension:  cfg.Dimension,
	}, nil
}

// Upsert stores the entry, replacing any existing document with the same
// application id.
func (idx *ChromaIndex) Upsert(ctx context.Context, entry model.IndexEntry) error {
	if entry.Payload.ApplicationID == "" {
		return fmt.Errorf("index entry requires an application id")
	}
	if len(entry.Embedding) != idx.dimension {
		return fmt.Errorf("%w: embedding dimension %d, index expects %d",
			common.ErrConfigMismatch, len(entry.Embedding), idx.dimension)
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]any{
		"company":         entry.Payload.Company,
		"position":        entry.Payload.Position,
		"status":          string(entry.Payload.Status),
		"last_updated_at": entry.Payload.LastUpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = idx.collection.Upsert(ctx,
		chroma.WithIDs(chroma.DocumentID(entry.Payload.ApplicationID)),
		chroma.WithMetadatas(metadata),
		chroma.WithEmbeddings(embeddings.NewEmbeddingFromFloat32(entry.Embedding)),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index entry: %w", err)
	}

	return nil
}

// Search returns the k nearest application ids to the query vector.
func (idx *ChromaIndex) Search(ctx context.Context, vector []float32, k int) ([]service.SearchResult, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d",
			common.ErrConfigMismatch, len(vector), idx.dimension)
	}
	if k <= 0 {
		k = 1
	}

	results, err := idx.collection.Query(ctx,
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chroma.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return nil, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	matches := make([]service.SearchResult, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		result := service.SearchResult{ApplicationID: string(id)}
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// Chroma reports distances; smaller is closer.
			result.Score = 1.0 / (1.0 + float64(distanceGroups[0][i]))
		}
		matches = append(matches, result)
	}

	return matches, nil
}

// Delete removes the document for the given application id. Deleting an
// absent id is a no-op.
func (idx *ChromaIndex) Delete(ctx context.Context, applicationID string) error {
	if applicationID == "" {
		return fmt.Errorf("application id is required")
	}

	err := idx.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(applicationID)))
	if err != nil {
		return fmt.Errorf("failed to delete index entry: %w", err)
	}

	return nil
}
