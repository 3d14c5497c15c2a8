package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail/jobtrail/internal/classifier"
	"github.com/jobtrail/jobtrail/internal/extractor"
	"github.com/jobtrail/jobtrail/internal/index"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/resolver"
	"github.com/jobtrail/jobtrail/internal/storage"
)

type scriptedGenerator struct {
	responses map[string]string
}

func (s *scriptedGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	for needle, response := range s.responses {
		if needle != "" && strings.Contains(prompt, needle) {
			return response, nil
		}
	}
	return `{"company":"","position":"","status":"UNKNOWN","event_date":"","application_link":""}`, nil
}

type constantEmbedder struct{}

func (constantEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text) % 7), 1, 2}, nil
}

func (constantEmbedder) Dimension() int { return 3 }

func trainedClassifier(t *testing.T) *classifier.RelevanceClassifier {
	t.Helper()

	examples := []classifier.Example{
		{Text: "we would like to schedule an interview for the engineer role", IsJobRelated: true},
		{Text: "your candidacy for the software engineer position is progressing", IsJobRelated: true},
		{Text: "the hiring team wants a second interview with you", IsJobRelated: true},
		{Text: "your package will arrive on thursday", IsJobRelated: false},
		{Text: "flash sale forty percent off shoes", IsJobRelated: false},
		{Text: "your bank statement is ready to view", IsJobRelated: false},
	}
	m, err := classifier.Train(examples)
	require.NoError(t, err)
	return classifier.NewRelevanceClassifier(m, classifier.DefaultThreshold)
}

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage, *index.MemoryIndex) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	memIndex, err := index.NewMemoryIndex(3)
	require.NoError(t, err)

	gen := &scriptedGenerator{responses: map[string]string{
		"Your application to Initech": `{"company":"Initech","position":"Software Engineer","status":"APPLIED","event_date":"2024-03-01","application_link":""}`,
		"Interview invitation":        `{"company":"Initech","position":"Software Engineer","status":"INTERVIEW","event_date":"2024-03-08","application_link":""}`,
	}}

	ex := extractor.New(gen, nil, 0)
	res := resolver.New(store, constantEmbedder{}, memIndex, nil)

	return New(store, trainedClassifier(t), ex, res, nil, Config{Workers: 2}), store, memIndex
}

func seedMessages(t *testing.T, store *storage.SQLiteStorage) {
	t.Helper()
	messages := []model.Message{
		{
			ID:         "msg-applied",
			Subject:    "Your application to Initech",
			Body:       "Thank you for applying to the Software Engineer role.",
			ThreadID:   "thread-1",
			ReceivedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:         "msg-interview",
			Subject:    "Interview invitation",
			Body:       "Please schedule your interview for the Software Engineer role at Initech.",
			ThreadID:   "thread-1",
			ReceivedAt: time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:         "msg-noise",
			Subject:    "Order confirmed",
			Body:       "Your package will arrive on thursday.",
			ThreadID:   "thread-2",
			ReceivedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, store.SaveMessages(context.Background(), messages))
}

func TestRunFullPipeline(t *testing.T) {
	e, store, memIndex := newTestEngine(t)
	ctx := context.Background()
	seedMessages(t, store)

	stats, err := e.Run(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Stages, 3)

	assert.Equal(t, 3, stats.Stages[0].Succeeded, "all messages classified")
	assert.Equal(t, 2, stats.Stages[1].Succeeded, "only job-related messages extracted")
	assert.Equal(t, 2, stats.Stages[2].Succeeded, "both extractions resolved")

	record, err := store.GetApplicationRecordByBucket(ctx, "initech")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInterview, record.CurrentStatus)
	assert.Len(t, record.StatusHistory, 2)

	_, ok := memIndex.Get(record.ApplicationID)
	assert.True(t, ok)

	// The noise message got a label but no extraction.
	label, err := store.GetRelevanceLabel(ctx, "msg-noise")
	require.NoError(t, err)
	assert.False(t, label.IsJobRelated)
	_, err = store.GetExtraction(ctx, "msg-noise")
	assert.Error(t, err)
}

func TestRunIsIncremental(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	seedMessages(t, store)

	_, err := e.Run(ctx)
	require.NoError(t, err)

	// A second run over the same inbox finds nothing left to do.
	stats, err := e.Run(ctx)
	require.NoError(t, err)
	for _, stage := range stats.Stages {
		assert.Zero(t, stage.Succeeded, "stage %s should be empty", stage.Stage)
		assert.Zero(t, stage.Failed)
	}

	record, err := store.GetApplicationRecordByBucket(ctx, "initech")
	require.NoError(t, err)
	assert.Len(t, record.StatusHistory, 2, "no duplicate events on rerun")
}

func TestClassifyAllEmptyInbox(t *testing.T) {
	e, _, _ := newTestEngine(t)

	stats, err := e.ClassifyAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Succeeded)
	assert.Zero(t, stats.Failed)
}

func TestRunCanceledContext(t *testing.T) {
	e, store, _ := newTestEngine(t)
	seedMessages(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx)
	assert.Error(t, err)
}
