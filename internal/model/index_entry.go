package model

// IndexEntry is the derived, disposable projection of an ApplicationRecord
// held by the vector index. It is regenerated whenever the owning record
// changes; the record store remains the source of truth.
type IndexEntry struct {
	Payload   IndexPayload
	Embedding []float32
}

// IndexPayload carries the queryable fields copied from the record.
type IndexPayload struct {
	ApplicationID string
	Company       string
	Position      string
	Status        ApplicationStatus
	LastUpdatedAt string
}
