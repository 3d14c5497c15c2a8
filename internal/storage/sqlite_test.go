package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jobtrail/jobtrail/internal/model"
)

// createTestStorage creates an in-memory database with migrations applied.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close storage: %v", err)
		}
	}
}

func testMessage(id, subject string, received time.Time) model.Message {
	return model.Message{
		ID:         id,
		Subject:    subject,
		Body:       "body of " + id,
		ReceivedAt: received,
		ThreadID:   "thread-" + id,
	}
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	version, err := store.currentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("Schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Migrating twice is a no-op.
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
}

func TestSQLiteStorage_SaveAndGetMessages(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	received := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	messages := []model.Message{
		testMessage("m1", "Application received", received),
		testMessage("m2", "Weekly newsletter", received.Add(time.Hour)),
	}

	if err := store.SaveMessages(ctx, messages); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	// Re-saving the same IDs must not error or duplicate.
	if err := store.SaveMessages(ctx, messages); err != nil {
		t.Fatalf("SaveMessages (second) failed: %v", err)
	}

	got, err := store.GetMessageByID(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessageByID failed: %v", err)
	}
	if got.Subject != "Application received" {
		t.Errorf("Subject = %q, want %q", got.Subject, "Application received")
	}
	if got.ThreadID != "thread-m1" {
		t.Errorf("ThreadID = %q, want %q", got.ThreadID, "thread-m1")
	}

	toClassify, err := store.GetMessagesToClassify(ctx)
	if err != nil {
		t.Fatalf("GetMessagesToClassify failed: %v", err)
	}
	if len(toClassify) != 2 {
		t.Fatalf("Messages to classify = %d, want 2", len(toClassify))
	}
}

func TestSQLiteStorage_RelevanceLabelWorkflow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	received := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveMessages(ctx, []model.Message{
		testMessage("m1", "Interview invitation", received),
		testMessage("m2", "Sale ends tonight", received),
	}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	if err := store.SaveRelevanceLabel(ctx, &model.RelevanceLabel{
		MessageID: "m1", IsJobRelated: true, Confidence: 0.93,
	}); err != nil {
		t.Fatalf("SaveRelevanceLabel failed: %v", err)
	}

	toClassify, err := store.GetMessagesToClassify(ctx)
	if err != nil {
		t.Fatalf("GetMessagesToClassify failed: %v", err)
	}
	if len(toClassify) != 1 || toClassify[0].ID != "m2" {
		t.Errorf("Expected only m2 left to classify, got %v", toClassify)
	}

	toExtract, err := store.GetMessagesToExtract(ctx)
	if err != nil {
		t.Fatalf("GetMessagesToExtract failed: %v", err)
	}
	if len(toExtract) != 1 || toExtract[0].ID != "m1" {
		t.Errorf("Expected only m1 to extract, got %v", toExtract)
	}

	// Relabeling replaces the previous label.
	if err := store.SaveRelevanceLabel(ctx, &model.RelevanceLabel{
		MessageID: "m1", IsJobRelated: false, Confidence: 0.1,
	}); err != nil {
		t.Fatalf("SaveRelevanceLabel (replace) failed: %v", err)
	}

	label, err := store.GetRelevanceLabel(ctx, "m1")
	if err != nil {
		t.Fatalf("GetRelevanceLabel failed: %v", err)
	}
	if label.IsJobRelated {
		t.Error("Expected replaced label to be not job related")
	}
}

func TestSQLiteStorage_ExtractionWorkflow(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	received := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := store.SaveMessages(ctx, []model.Message{
		testMessage("m1", "Thank you for applying", received),
	}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	eventDate := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	extraction := &model.ExtractionResult{
		MessageID:       "m1",
		Company:         "Acme",
		Position:        "Backend Engineer",
		Status:          model.StatusApplied,
		EventDate:       &eventDate,
		ApplicationLink: "https://jobs.acme.example/123",
		Confidence:      1.0,
	}

	if err := store.SaveExtraction(ctx, extraction); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	got, err := store.GetExtraction(ctx, "m1")
	if err != nil {
		t.Fatalf("GetExtraction failed: %v", err)
	}
	if got.Company != "Acme" || got.Status != model.StatusApplied {
		t.Errorf("Unexpected extraction: %+v", got)
	}
	if got.EventDate == nil || !got.EventDate.Equal(eventDate) {
		t.Errorf("EventDate = %v, want %v", got.EventDate, eventDate)
	}

	pending, err := store.GetExtractionsToResolve(ctx)
	if err != nil {
		t.Fatalf("GetExtractionsToResolve failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("Pending extractions = %d, want 1", len(pending))
	}

	if err := store.MarkExtractionResolved(ctx, "m1"); err != nil {
		t.Fatalf("MarkExtractionResolved failed: %v", err)
	}

	pending, err = store.GetExtractionsToResolve(ctx)
	if err != nil {
		t.Fatalf("GetExtractionsToResolve (after mark) failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Pending extractions = %d, want 0", len(pending))
	}
}

func TestSQLiteStorage_PartialExtraction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	received := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	if err := store.SaveMessages(ctx, []model.Message{
		testMessage("m1", "Re: your application", received),
	}); err != nil {
		t.Fatalf("SaveMessages failed: %v", err)
	}

	// Everything optional missing; only status survives.
	if err := store.SaveExtraction(ctx, &model.ExtractionResult{
		MessageID:  "m1",
		Status:     model.StatusUnknown,
		Confidence: 0.3,
	}); err != nil {
		t.Fatalf("SaveExtraction failed: %v", err)
	}

	got, err := store.GetExtraction(ctx, "m1")
	if err != nil {
		t.Fatalf("GetExtraction failed: %v", err)
	}
	if got.Company != "" || got.Position != "" || got.EventDate != nil {
		t.Errorf("Expected empty optional fields, got %+v", got)
	}
	if got.Status != model.StatusUnknown {
		t.Errorf("Status = %q, want UNKNOWN", got.Status)
	}
}
