package model

import "time"

// ExtractionResult holds the typed fields pulled out of a single relevant
// message. Every field except MessageID and Status is optional; partial
// extraction is the expected case and must never fail the pipeline.
type ExtractionResult struct {
	EventDate       *time.Time
	MessageID       string
	Company         string
	Position        string
	ApplicationLink string
	Status          ApplicationStatus
	Confidence      float64
}

// missing-field penalties for the heuristic confidence score.
const (
	companyPenalty = 0.4
	statusPenalty  = 0.3
)

// ScoreConfidence computes the heuristic extraction confidence: 1.0 minus
// a penalty per missing required field (company, status).
func (e ExtractionResult) ScoreConfidence() float64 {
	score := 1.0
	if e.Company == "" {
		score -= companyPenalty
	}
	if e.Status == StatusUnknown || e.Status == "" {
		score -= statusPenalty
	}
	if score < 0 {
		score = 0
	}
	return score
}
