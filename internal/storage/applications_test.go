package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobtrail/jobtrail/internal/common"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
)

func seedRecordMessages(t *testing.T, store *SQLiteStorage, ids ...string) {
	t.Helper()
	received := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var messages []model.Message
	for i, id := range ids {
		messages = append(messages, testMessage(id, "subject "+id, received.Add(time.Duration(i)*time.Hour)))
	}
	if err := store.SaveMessages(context.Background(), messages); err != nil {
		t.Fatalf("Failed to seed messages: %v", err)
	}
}

func TestSQLiteStorage_SaveAndGetApplicationRecord(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedRecordMessages(t, store, "m1", "m2")

	record := &model.ApplicationRecord{
		ApplicationID: "app-1",
		BucketKey:     "acme",
		Company:       "Acme",
		Position:      "Backend Engineer",
		CurrentStatus: model.StatusInterview,
		LastUpdatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		StatusHistory: []model.StatusEvent{
			{Status: model.StatusApplied, Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), SourceMessageID: "m1", Confidence: 1.0},
			{Status: model.StatusInterview, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), SourceMessageID: "m2", Confidence: 1.0},
		},
		SourceMessageIDs: []string{"m1", "m2"},
	}

	if err := store.SaveApplicationRecord(ctx, record); err != nil {
		t.Fatalf("SaveApplicationRecord failed: %v", err)
	}

	got, err := store.GetApplicationRecord(ctx, "app-1")
	if err != nil {
		t.Fatalf("GetApplicationRecord failed: %v", err)
	}
	if got.Company != "Acme" || got.CurrentStatus != model.StatusInterview {
		t.Errorf("Unexpected record: %+v", got)
	}
	if len(got.StatusHistory) != 2 {
		t.Fatalf("StatusHistory length = %d, want 2", len(got.StatusHistory))
	}
	if got.StatusHistory[0].Status != model.StatusApplied || got.StatusHistory[1].Status != model.StatusInterview {
		t.Errorf("StatusHistory order wrong: %+v", got.StatusHistory)
	}
	if len(got.SourceMessageIDs) != 2 {
		t.Errorf("SourceMessageIDs = %v, want 2 entries", got.SourceMessageIDs)
	}

	byBucket, err := store.GetApplicationRecordByBucket(ctx, "acme")
	if err != nil {
		t.Fatalf("GetApplicationRecordByBucket failed: %v", err)
	}
	if byBucket.ApplicationID != "app-1" {
		t.Errorf("ApplicationID = %q, want app-1", byBucket.ApplicationID)
	}
}

func TestSQLiteStorage_SaveApplicationRecord_ReplacesHistory(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedRecordMessages(t, store, "m1", "m2")

	record := &model.ApplicationRecord{
		ApplicationID: "app-1",
		BucketKey:     "acme",
		Company:       "Acme",
		CurrentStatus: model.StatusApplied,
		LastUpdatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		StatusHistory: []model.StatusEvent{
			{Status: model.StatusApplied, Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), SourceMessageID: "m1"},
		},
		SourceMessageIDs: []string{"m1"},
	}
	if err := store.SaveApplicationRecord(ctx, record); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	record.InsertStatusEvent(model.StatusEvent{
		Status: model.StatusRejected, Date: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), SourceMessageID: "m2",
	})
	record.AddSourceMessage("m2")
	record.LastUpdatedAt = time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	if err := store.SaveApplicationRecord(ctx, record); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err := store.GetApplicationRecord(ctx, "app-1")
	if err != nil {
		t.Fatalf("GetApplicationRecord failed: %v", err)
	}
	if len(got.StatusHistory) != 2 {
		t.Fatalf("StatusHistory length = %d, want 2 (no duplicates)", len(got.StatusHistory))
	}
	if got.CurrentStatus != model.StatusRejected {
		t.Errorf("CurrentStatus = %q, want REJECTED", got.CurrentStatus)
	}
}

func TestSQLiteStorage_GetApplicationRecords_Filtering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedRecordMessages(t, store, "m1", "m2", "m3")

	records := []*model.ApplicationRecord{
		{
			ApplicationID: "app-1", BucketKey: "acme", Company: "Acme",
			CurrentStatus: model.StatusRejected,
			LastUpdatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			StatusHistory: []model.StatusEvent{
				{Status: model.StatusRejected, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), SourceMessageID: "m1"},
			},
			SourceMessageIDs: []string{"m1"},
		},
		{
			ApplicationID: "app-2", BucketKey: "globex", Company: "Globex",
			CurrentStatus: model.StatusOffer,
			LastUpdatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			StatusHistory: []model.StatusEvent{
				{Status: model.StatusOffer, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), SourceMessageID: "m2"},
			},
			SourceMessageIDs: []string{"m2"},
		},
		{
			ApplicationID: "app-3", BucketKey: "initech", Company: "Initech",
			CurrentStatus: model.StatusRejected,
			LastUpdatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			StatusHistory: []model.StatusEvent{
				{Status: model.StatusRejected, Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), SourceMessageID: "m3"},
			},
			SourceMessageIDs: []string{"m3"},
		},
	}
	for _, r := range records {
		if err := store.SaveApplicationRecord(ctx, r); err != nil {
			t.Fatalf("SaveApplicationRecord failed: %v", err)
		}
	}

	rejected, err := store.GetApplicationRecords(ctx, service.RecordFilter{Status: model.StatusRejected})
	if err != nil {
		t.Fatalf("GetApplicationRecords failed: %v", err)
	}
	if len(rejected) != 2 {
		t.Errorf("Rejected records = %d, want 2", len(rejected))
	}

	byCompany, err := store.GetApplicationRecords(ctx, service.RecordFilter{Company: "Globex"})
	if err != nil {
		t.Fatalf("GetApplicationRecords by company failed: %v", err)
	}
	if len(byCompany) != 1 || byCompany[0].ApplicationID != "app-2" {
		t.Errorf("Company filter returned %v", byCompany)
	}

	// Most recently updated first.
	all, err := store.GetApplicationRecords(ctx, service.RecordFilter{})
	if err != nil {
		t.Fatalf("GetApplicationRecords (all) failed: %v", err)
	}
	if len(all) != 3 || all[0].ApplicationID != "app-3" {
		t.Errorf("Expected app-3 first, got %v", all)
	}
}

func TestSQLiteStorage_GetRecordsWithStatusEventsBetween(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedRecordMessages(t, store, "m1", "m2")

	feb := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	records := []*model.ApplicationRecord{
		{
			ApplicationID: "app-1", BucketKey: "acme", Company: "Acme",
			CurrentStatus: model.StatusInterview, LastUpdatedAt: feb,
			StatusHistory: []model.StatusEvent{
				{Status: model.StatusInterview, Date: feb, SourceMessageID: "m1"},
			},
			SourceMessageIDs: []string{"m1"},
		},
		{
			ApplicationID: "app-2", BucketKey: "globex", Company: "Globex",
			CurrentStatus: model.StatusRejected, LastUpdatedAt: mar,
			StatusHistory: []model.StatusEvent{
				{Status: model.StatusRejected, Date: mar, SourceMessageID: "m2"},
			},
			SourceMessageIDs: []string{"m2"},
		},
	}
	for _, r := range records {
		if err := store.SaveApplicationRecord(ctx, r); err != nil {
			t.Fatalf("SaveApplicationRecord failed: %v", err)
		}
	}

	febStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	marStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	inFeb, err := store.GetRecordsWithStatusEventsBetween(ctx, febStart, marStart)
	if err != nil {
		t.Fatalf("GetRecordsWithStatusEventsBetween failed: %v", err)
	}
	if len(inFeb) != 1 || inFeb[0].ApplicationID != "app-1" {
		t.Errorf("February window returned %v", inFeb)
	}

	if _, err := store.GetRecordsWithStatusEventsBetween(ctx, marStart, febStart); err == nil {
		t.Error("Expected error for inverted date range")
	}
}

func TestSQLiteStorage_GetApplicationRecord_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.GetApplicationRecord(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
