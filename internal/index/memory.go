package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

// MemoryIndex is an in-process vector index with cosine similarity
// search. It backs tests and runs without a Chroma server; contents do
// not survive the process.
type MemoryIndex struct {
	entries   map[string]model.IndexEntry
	dimension int
	mu        sync.RWMutex
}

// NewMemoryIndex creates an empty in-memory index with a fixed dimension.
func NewMemoryIndex(dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", common.ErrInvalidConfig)
	}
	return &MemoryIndex{
		entries:   make(map[string]model.IndexEntry),
		dimension: dimension,
	}, nil
}

// Upsert stores the entry, replacing any existing entry with the same
// application id.
func (idx *MemoryIndex) Upsert(_ context.Context, entry model.IndexEntry) error {
	if entry.Payload.ApplicationID == "" {
		return fmt.Errorf("index entry requires an application id")
	}
	if len(entry.Embedding) != idx.dimension {
		return fmt.Errorf("%w: embedding dimension %d, index expects %d",
			common.ErrConfigMismatch, len(entry.Embedding), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries[entry.Payload.ApplicationID] = entry
	return nil
}

// Search returns the k most similar application ids by cosine similarity.
func (idx *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]service.SearchResult, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d",
			common.ErrConfigMismatch, len(vector), idx.dimension)
	}
	if k <= 0 {
		k = 1
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]service.SearchResult, 0, len(idx.entries))
	for id, entry := range idx.entries {
		results = append(results, service.SearchResult{
			ApplicationID: id,
			Score:         cosineSimilarity(vector, entry.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ApplicationID < results[j].ApplicationID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes the entry for the given application id. Deleting an
// absent id is a no-op.
func (idx *MemoryIndex) Delete(_ context.Context, applicationID string) error {
	if applicationID == "" {
		return fmt.Errorf("application id is required")
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.entries, applicationID)
	return nil
}

// Get returns the stored entry for an application id, if present.
func (idx *MemoryIndex) Get(applicationID string) (model.IndexEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.entries[applicationID]
	return entry, ok
}

// Len returns the number of indexed applications.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
