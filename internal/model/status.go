package model

import "strings"

// ApplicationStatus tracks where an application sits in its lifecycle.
type ApplicationStatus string

// Application status constants.
const (
	StatusApplied   ApplicationStatus = "APPLIED"
	StatusInterview ApplicationStatus = "INTERVIEW"
	StatusOffer     ApplicationStatus = "OFFER"
	StatusRejected  ApplicationStatus = "REJECTED"
	StatusWithdrawn ApplicationStatus = "WITHDRAWN"
	StatusUnknown   ApplicationStatus = "UNKNOWN"
)

// ParseStatus normalizes a raw status string. Anything outside the known
// set collapses to StatusUnknown rather than erroring; extraction output
// is untrusted.
func ParseStatus(raw string) ApplicationStatus {
	switch ApplicationStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusApplied:
		return StatusApplied
	case StatusInterview:
		return StatusInterview
	case StatusOffer:
		return StatusOffer
	case StatusRejected:
		return StatusRejected
	case StatusWithdrawn:
		return StatusWithdrawn
	default:
		return StatusUnknown
	}
}

// Rank orders statuses along the lifecycle: APPLIED < INTERVIEW <
// {OFFER, REJECTED, WITHDRAWN}. UNKNOWN ranks below everything so a real
// signal always wins a tie.
func (s ApplicationStatus) Rank() int {
	switch s {
	case StatusApplied:
		return 1
	case StatusInterview:
		return 2
	case StatusOffer, StatusRejected, StatusWithdrawn:
		return 3
	case StatusUnknown:
		return 0
	default:
		return 0
	}
}

// Valid reports whether the status is one of the known constants.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn, StatusUnknown:
		return true
	default:
		return false
	}
}
