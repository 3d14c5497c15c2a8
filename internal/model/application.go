package model

import (
	"sort"
	"time"
)

// StatusEvent is one entry in an application's status history.
type StatusEvent struct {
	Date            time.Time
	SourceMessageID string
	Status          ApplicationStatus
	Confidence      float64
}

// ApplicationRecord is the resolved view of one job application: every
// message that shares a bucket key contributes to exactly one record.
// The entity resolver is the only writer.
type ApplicationRecord struct {
	LastUpdatedAt    time.Time
	ApplicationID    string
	BucketKey        string
	Company          string
	Position         string
	ApplicationLink  string
	CurrentStatus    ApplicationStatus
	StatusHistory    []StatusEvent
	SourceMessageIDs []string
}

// InsertStatusEvent inserts an event into the history keeping it sorted by
// date. Among events on the same date, lower extraction confidence sorts
// first and a newly arriving event goes after existing equals, so the
// chronologically last entry is always the preferred signal.
func (r *ApplicationRecord) InsertStatusEvent(event StatusEvent) {
	idx := sort.Search(len(r.StatusHistory), func(i int) bool {
		e := r.StatusHistory[i]
		if !e.Date.Equal(event.Date) {
			return e.Date.After(event.Date)
		}
		return e.Confidence > event.Confidence
	})

	r.StatusHistory = append(r.StatusHistory, StatusEvent{})
	copy(r.StatusHistory[idx+1:], r.StatusHistory[idx:])
	r.StatusHistory[idx] = event
	r.CurrentStatus = r.deriveCurrentStatus()
}

// deriveCurrentStatus picks the status of the chronologically latest
// entry, breaking same-date ties by preferring the more advanced status
// in the lifecycle order.
func (r *ApplicationRecord) deriveCurrentStatus() ApplicationStatus {
	if len(r.StatusHistory) == 0 {
		return StatusUnknown
	}

	last := r.StatusHistory[len(r.StatusHistory)-1]
	best := last
	for i := len(r.StatusHistory) - 2; i >= 0; i-- {
		e := r.StatusHistory[i]
		if !e.Date.Equal(last.Date) {
			break
		}
		if e.Status.Rank() > best.Status.Rank() {
			best = e
		}
	}
	return best.Status
}

// HasSourceMessage reports whether the record already includes evidence
// from the given message.
func (r *ApplicationRecord) HasSourceMessage(messageID string) bool {
	for _, id := range r.SourceMessageIDs {
		if id == messageID {
			return true
		}
	}
	return false
}

// AddSourceMessage records a contributing message ID, preserving set
// semantics.
func (r *ApplicationRecord) AddSourceMessage(messageID string) {
	if !r.HasSourceMessage(messageID) {
		r.SourceMessageIDs = append(r.SourceMessageIDs, messageID)
	}
}
