package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_RecordAndRecentForFile(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	defer func() { _ = s.Close() }()

	if err := s.Record(ctx, KindIngest, "file-1", "law.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record ingest: %v", err)
	}
	if err := s.Record(ctx, KindDelete, "file-1", "law.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record delete: %v", err)
	}

	records, err := s.RecentForFile(ctx, "file-1", 10)
	if err != nil {
		t.Fatalf("RecentForFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Kind != KindDelete {
		t.Fatalf("expected most recent first (delete), got %v", records[0].Kind)
	}
}

func TestStore_RecordFailureStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	defer func() { _ = s.Close() }()

	if err := s.Record(ctx, KindIngest, "file-2", "bad.txt", StatusError, "embed backend unavailable"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	records, err := s.RecentForFile(ctx, "file-2", 10)
	if err != nil {
		t.Fatalf("RecentForFile: %v", err)
	}
	if len(records) != 1 || records[0].Status != StatusError || records[0].Detail == "" {
		t.Fatalf("unexpected record: %+v", records)
	}
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestStore_RecentAcrossFilesOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	defer func() { _ = s.Close() }()

	if err := s.Record(ctx, KindIngest, "file-a", "a.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record a: %v", err)
	}
	if err := s.Record(ctx, KindIngest, "file-b", "b.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record b: %v", err)
	}

	records, err := s.RecentAcrossFiles(ctx, 1)
	if err != nil {
		t.Fatalf("RecentAcrossFiles: %v", err)
	}
	if len(records) != 1 || records[0].FileID != "file-b" {
		t.Fatalf("expected newest record (file-b) with limit 1, got %+v", records)
	}
}

func TestStore_ReopensAfterClose(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")
	s := NewStore(path)
	if err := s.Record(ctx, KindIngest, "file-3", "x.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// A store is safe to reuse after Close: the next operation reopens the
	// same database file rather than erroring permanently.
	if err := s.Record(ctx, KindIngest, "file-3", "x.txt", StatusOK, ""); err != nil {
		t.Fatalf("Record after Close: %v", err)
	}
	_ = s.Close()
}
