package sqlite_test

import (
	"context"
	"testing"
	"time"

	sqlitestore "github.com/attendlabs/attendd/internal/attend/store/sqlite"
	"github.com/attendlabs/attendd/internal/attend/types"
)

func TestSyncRunStore_RecordAndLatest(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewSyncRunStore(conn, w)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	older := types.SyncRun{
		RunID:      "run-older",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Fetched:    10, Stored: 9, Failed: 1,
	}
	newer := types.SyncRun{
		RunID:      "run-newer",
		StartedAt:  start.Add(24 * time.Hour),
		FinishedAt: start.Add(24*time.Hour + time.Second),
		Fetched:    4, Stored: 4,
	}

	if err := rs.RecordRun(ctx, older); err != nil {
		t.Fatalf("RecordRun older: %v", err)
	}
	if err := rs.RecordRun(ctx, newer); err != nil {
		t.Fatalf("RecordRun newer: %v", err)
	}

	got, ok, err := rs.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if !ok {
		t.Fatal("expected a latest run")
	}
	if got.RunID != "run-newer" {
		t.Errorf("expected run-newer, got %s", got.RunID)
	}
	if got.Fetched != 4 || got.Stored != 4 || got.Failed != 0 {
		t.Errorf("counts mismatch: %+v", got)
	}
	if !got.StartedAt.Equal(newer.StartedAt) {
		t.Errorf("expected started_at %s, got %s", newer.StartedAt, got.StartedAt)
	}
}

func TestSyncRunStore_LatestRun_EmptyTable(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewSyncRunStore(conn, w)

	_, ok, err := rs.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if ok {
		t.Error("expected no run on an empty table")
	}
}

func TestSyncRunStore_RecordRun_RequiresID(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	rs := sqlitestore.NewSyncRunStore(conn, w)

	if err := rs.RecordRun(context.Background(), types.SyncRun{}); err == nil {
		t.Error("expected an error for a run without an id")
	}
}
