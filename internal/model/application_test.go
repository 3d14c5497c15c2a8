package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestInsertStatusEvent_ChronologicalOrder(t *testing.T) {
	rec := &ApplicationRecord{ApplicationID: "app-1"}

	rec.InsertStatusEvent(StatusEvent{Date: date("2024-01-10"), Status: StatusApplied, SourceMessageID: "m1", Confidence: 0.9})
	rec.InsertStatusEvent(StatusEvent{Date: date("2024-02-01"), Status: StatusInterview, SourceMessageID: "m2", Confidence: 0.9})

	require.Len(t, rec.StatusHistory, 2)
	assert.Equal(t, StatusApplied, rec.StatusHistory[0].Status)
	assert.Equal(t, StatusInterview, rec.StatusHistory[1].Status)
	assert.Equal(t, StatusInterview, rec.CurrentStatus)
}

func TestInsertStatusEvent_OutOfOrderArrival(t *testing.T) {
	rec := &ApplicationRecord{ApplicationID: "app-1"}

	// OFFER arrives before the earlier APPLIED confirmation.
	rec.InsertStatusEvent(StatusEvent{Date: date("2024-02-01"), Status: StatusOffer, SourceMessageID: "m2", Confidence: 0.9})
	rec.InsertStatusEvent(StatusEvent{Date: date("2024-01-10"), Status: StatusApplied, SourceMessageID: "m1", Confidence: 0.9})

	require.Len(t, rec.StatusHistory, 2)
	assert.Equal(t, date("2024-01-10"), rec.StatusHistory[0].Date)
	assert.Equal(t, date("2024-02-01"), rec.StatusHistory[1].Date)
	assert.Equal(t, StatusOffer, rec.CurrentStatus)
}

func TestInsertStatusEvent_SameDateTieBreaks(t *testing.T) {
	t.Run("higher confidence wins", func(t *testing.T) {
		rec := &ApplicationRecord{}
		rec.InsertStatusEvent(StatusEvent{Date: date("2024-03-05"), Status: StatusApplied, Confidence: 0.9})
		rec.InsertStatusEvent(StatusEvent{Date: date("2024-03-05"), Status: StatusInterview, Confidence: 0.4})

		// Both events share a date; the more advanced lifecycle status is
		// preferred for the derived current status.
		assert.Equal(t, StatusInterview, rec.CurrentStatus)
		// But the higher-confidence event is the chronologically last entry.
		assert.Equal(t, 0.9, rec.StatusHistory[len(rec.StatusHistory)-1].Confidence)
	})

	t.Run("equal confidence prefers later arrival", func(t *testing.T) {
		rec := &ApplicationRecord{}
		rec.InsertStatusEvent(StatusEvent{Date: date("2024-03-05"), Status: StatusApplied, SourceMessageID: "m1", Confidence: 0.7})
		rec.InsertStatusEvent(StatusEvent{Date: date("2024-03-05"), Status: StatusRejected, SourceMessageID: "m2", Confidence: 0.7})

		last := rec.StatusHistory[len(rec.StatusHistory)-1]
		assert.Equal(t, "m2", last.SourceMessageID)
		assert.Equal(t, StatusRejected, rec.CurrentStatus)
	})
}

func TestDeriveCurrentStatus_AdvancedStatusWinsDateTie(t *testing.T) {
	rec := &ApplicationRecord{}
	rec.InsertStatusEvent(StatusEvent{Date: date("2024-04-01"), Status: StatusOffer, Confidence: 0.5})
	rec.InsertStatusEvent(StatusEvent{Date: date("2024-04-01"), Status: StatusApplied, Confidence: 0.9})

	assert.Equal(t, StatusOffer, rec.CurrentStatus)
}

func TestAddSourceMessage_SetSemantics(t *testing.T) {
	rec := &ApplicationRecord{}
	rec.AddSourceMessage("m1")
	rec.AddSourceMessage("m2")
	rec.AddSourceMessage("m1")

	assert.Equal(t, []string{"m1", "m2"}, rec.SourceMessageIDs)
	assert.True(t, rec.HasSourceMessage("m2"))
	assert.False(t, rec.HasSourceMessage("m3"))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ApplicationStatus
	}{
		{"exact", "INTERVIEW", StatusInterview},
		{"lowercase", "offer", StatusOffer},
		{"whitespace", "  rejected ", StatusRejected},
		{"unknown value", "GHOSTED", StatusUnknown},
		{"empty", "", StatusUnknown},
		{"garbage", "##!", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestScoreConfidence(t *testing.T) {
	full := ExtractionResult{Company: "Acme", Status: StatusApplied}
	assert.InDelta(t, 1.0, full.ScoreConfidence(), 0.001)

	noCompany := ExtractionResult{Status: StatusApplied}
	assert.InDelta(t, 0.6, noCompany.ScoreConfidence(), 0.001)

	noStatus := ExtractionResult{Company: "Acme", Status: StatusUnknown}
	assert.InDelta(t, 0.7, noStatus.ScoreConfidence(), 0.001)

	empty := ExtractionResult{}
	assert.InDelta(t, 0.3, empty.ScoreConfidence(), 0.001)
}
