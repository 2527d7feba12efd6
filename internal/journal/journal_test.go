package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stitchcast/internal/journal"
	"stitchcast/internal/testsupport"
)

func TestAppendAndListNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if j.Path() != filepath.Join(cfg.Paths.StateDir, "journal.db") {
		t.Fatalf("unexpected journal path %q", j.Path())
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := j.Append(ctx, journal.Entry{SessionID: "s1", At: at, Mode: "recording", Outcome: "vetoed", Detail: "Please stop the preview before recording."})
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected id assigned")
	}
	if _, err := j.Append(ctx, journal.Entry{SessionID: "s1", Mode: "recording", Outcome: "suppressed", Signal: "stop-record"}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	entries, err := j.List(ctx, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Outcome != "suppressed" || entries[0].Signal != "stop-record" {
		t.Fatalf("expected newest first, got %+v", entries[0])
	}
	if entries[1].Detail != "Please stop the preview before recording." || entries[1].Signal != "" {
		t.Fatalf("unexpected oldest entry: %+v", entries[1])
	}
	if !entries[1].At.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, entries[1].At)
	}
	if entries[0].At.IsZero() {
		t.Fatal("expected default timestamp")
	}
}

func TestAppendValidates(t *testing.T) {
	j := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	if _, err := j.Append(context.Background(), journal.Entry{Mode: "recording"}); err == nil {
		t.Fatal("expected error for entry without outcome")
	}
}

func TestListLimitAndPrune(t *testing.T) {
	j := testsupport.MustOpenJournal(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := j.Append(ctx, journal.Entry{Mode: "previewing", Outcome: "started", Signal: "start-preview"}); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	entries, err := j.List(ctx, 3)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected limit honoured, got %d", len(entries))
	}

	removed, err := j.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 rows pruned, got %d", removed)
	}
	count, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows left, got %d", count)
	}
	remaining, _ := j.List(ctx, 0)
	if remaining[0].ID != entries[0].ID {
		t.Fatalf("expected newest entry kept, got %d want %d", remaining[0].ID, entries[0].ID)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := j.Append(context.Background(), journal.Entry{Mode: "video", Outcome: "received", Signal: "conversion-started"}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened := testsupport.MustOpenJournal(t, cfg)
	count, err := reopened.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected entry to survive reopen, got %d", count)
	}
}

func TestOpenRejectsNilConfig(t *testing.T) {
	if _, err := journal.Open(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestOpenDetectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	j, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	_ = j.Close()

	db, err := sql.Open("sqlite", cfg.JournalPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
