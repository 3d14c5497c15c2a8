// Package model defines the core domain models used throughout the application.
package model

import "time"

// Message is a single email message as delivered by the ingestion boundary.
// Messages are immutable after ingestion; every downstream artifact refers
// back to one by ID.
type Message struct {
	ReceivedAt time.Time
	ID         string
	Subject    string
	Body       string
	ThreadID   string
}

// Text returns the combined subject and body used for classification
// and embedding.
func (m Message) Text() string {
	if m.Subject == "" {
		return m.Body
	}
	if m.Body == "" {
		return m.Subject
	}
	return m.Subject + " " + m.Body
}
