package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jobtrail/jobtrail/internal/model"
)

func TestRenderRecordsTable(t *testing.T) {
	records := []model.ApplicationRecord{
		{
			Company:       "Initech",
			Position:      "Software Engineer",
			CurrentStatus: model.StatusInterview,
			LastUpdatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			BucketKey:     "thread-2",
			CurrentStatus: model.StatusUnknown,
			LastUpdatedAt: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	out := RenderRecordsTable(records)
	assert.Contains(t, out, "Initech")
	assert.Contains(t, out, "Software Engineer")
	assert.Contains(t, out, "INTERVIEW")
	// Records without a company fall back to the bucket key.
	assert.Contains(t, out, "thread-2")
}

func TestRenderRecordsTableEmpty(t *testing.T) {
	out := RenderRecordsTable(nil)
	assert.NotEmpty(t, out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a very l...", truncate("a very long company name", 11))
}
