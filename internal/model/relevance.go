package model

// RelevanceLabel is the per-message output of the relevance classifier.
type RelevanceLabel struct {
	MessageID    string
	IsJobRelated bool
	Confidence   float64
}
