package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/attendlabs/attendd/internal/attend/device"
	"github.com/attendlabs/attendd/internal/attend/service"
	"github.com/attendlabs/attendd/internal/attend/store"
	"github.com/attendlabs/attendd/internal/attend/store/memory"
	"github.com/attendlabs/attendd/internal/attend/types"
)

func newTestReconciler(sess *fakeSession) (*service.Reconciler, *memory.RecordStore, *memory.SyncRunStore) {
	records := memory.NewRecordStore()
	runs := memory.NewSyncRunStore()
	rec := service.NewReconciler(sess, records, runs, service.ReconcilerConfig{
		CheckoutGapMinutes: 5,
		Location:           time.UTC,
	}, silentLogger())
	return rec, records, runs
}

func TestReconciler_ClassifiesAndStores(t *testing.T) {
	sess := &fakeSession{fetchEvents: []types.ScanEvent{
		scan("P1", at(8, 0, 0)),
		scan("P1", at(17, 30, 0)),
		scan("P2", at(9, 0, 0)),
	}}
	rec, records, runs := newTestReconciler(sess)

	run, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Fetched != 3 {
		t.Errorf("expected fetched=3, got %d", run.Fetched)
	}
	if run.Stored != 3 || run.Failed != 0 {
		t.Errorf("expected stored=3 failed=0, got %d/%d", run.Stored, run.Failed)
	}
	if run.RunID == "" {
		t.Error("expected a run id")
	}

	recs := records.Records()
	if len(recs) != 3 {
		t.Fatalf("expected 3 stored records, got %d", len(recs))
	}

	// The session is released even on success.
	if sess.disconnectCount() != 1 {
		t.Errorf("expected one disconnect, got %d", sess.disconnectCount())
	}

	// The run report is persisted.
	stored := runs.Runs()
	if len(stored) != 1 || stored[0].RunID != run.RunID {
		t.Errorf("expected the run report to be recorded, got %+v", stored)
	}
}

func TestReconciler_EmptyLog_ZeroStoredNoError(t *testing.T) {
	sess := &fakeSession{}
	rec, records, _ := newTestReconciler(sess)

	run, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("an empty device log is not a failure: %v", err)
	}
	if run.Fetched != 0 || run.Stored != 0 {
		t.Errorf("expected empty run, got fetched=%d stored=%d", run.Fetched, run.Stored)
	}
	if len(records.Records()) != 0 {
		t.Error("expected no records stored")
	}
}

func TestReconciler_MalformedEvents_DiscardedWithoutPersistence(t *testing.T) {
	// A terminal log can contain junk rows; they must be dropped, not
	// stored, and not counted as stored.
	sess := &fakeSession{fetchEvents: []types.ScanEvent{
		scan("P1", at(8, 0, 0)),
		scan("", at(9, 0, 0)),
		{PersonRef: "P2", DeviceID: testDevice}, // zero timestamp
	}}
	rec, records, _ := newTestReconciler(sess)

	run, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Fetched != 3 {
		t.Errorf("expected fetched=3, got %d", run.Fetched)
	}
	if run.Stored != 1 || run.Failed != 0 {
		t.Errorf("expected stored=1 failed=0, got %d/%d", run.Stored, run.Failed)
	}

	recs := records.Records()
	if len(recs) != 1 {
		t.Fatalf("expected only the valid scan persisted, got %d: %+v", len(recs), recs)
	}
	if recs[0].PersonID != "P1" || recs[0].Timestamp.IsZero() {
		t.Errorf("unexpected persisted record: %+v", recs[0])
	}
}

func TestReconciler_ConnectFailure_Surfaced(t *testing.T) {
	sess := &fakeSession{connectErr: fmt.Errorf("%w: timeout", device.ErrConnection)}
	rec, _, _ := newTestReconciler(sess)

	_, err := rec.Run(context.Background())
	if err == nil {
		t.Fatal("expected connect failure to fail the run")
	}
	if !errors.Is(err, device.ErrConnection) {
		t.Errorf("expected a connection error, got %v", err)
	}
}

func TestReconciler_FetchFailure_Surfaced(t *testing.T) {
	sess := &fakeSession{fetchErr: fmt.Errorf("%w: read timeout", device.ErrConnection)}
	rec, _, _ := newTestReconciler(sess)

	_, err := rec.Run(context.Background())
	if !errors.Is(err, device.ErrConnection) {
		t.Fatalf("expected a connection error, got %v", err)
	}

	// Best-effort disconnect still happens after a fetch failure.
	if sess.disconnectCount() != 1 {
		t.Errorf("expected one disconnect, got %d", sess.disconnectCount())
	}
}

func TestReconciler_StorageFailure_SkipAndContinue(t *testing.T) {
	sess := &fakeSession{fetchEvents: []types.ScanEvent{
		scan("P1", at(8, 0, 0)),
		scan("P2", at(9, 0, 0)),
		scan("P3", at(10, 0, 0)),
	}}
	records := memory.NewRecordStore()
	fs := &flakyStore{inner: records, failures: 1}
	runs := memory.NewSyncRunStore()

	rec := service.NewReconciler(sess, fs, runs, service.ReconcilerConfig{
		CheckoutGapMinutes: 5,
		Location:           time.UTC,
	}, silentLogger())

	run, err := rec.Run(context.Background())
	if err != nil {
		t.Fatalf("storage failures are skipped, not fatal: %v", err)
	}
	if run.Failed != 1 || run.Stored != 2 {
		t.Errorf("expected stored=2 failed=1, got %d/%d", run.Stored, run.Failed)
	}
	if len(records.Records()) != 2 {
		t.Errorf("expected 2 surviving records, got %d", len(records.Records()))
	}
}

func TestReconciler_Rerun_Idempotent(t *testing.T) {
	events := []types.ScanEvent{
		scan("P1", at(8, 0, 0)),
		scan("P1", at(12, 0, 0)),
		scan("P1", at(17, 30, 0)),
	}
	sess := &fakeSession{fetchEvents: events}
	rec, records, _ := newTestReconciler(sess)

	if _, err := rec.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := records.Records()

	if _, err := rec.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := records.Records()

	if len(first) != len(second) {
		t.Fatalf("re-run changed row count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("re-run drifted at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestReconciler_OverwritesLiveCheckIn(t *testing.T) {
	// Live ingestion stored the evening scan as a check-in; the batch pass
	// is authoritative and rewrites it as the day's check-out.
	evening := at(17, 30, 0)

	sess := &fakeSession{fetchEvents: []types.ScanEvent{
		scan("P1", at(8, 0, 0)),
		scan("P1", evening),
	}}
	rec, records, _ := newTestReconciler(sess)

	pre := types.Record{PersonID: "P1", Timestamp: evening, Kind: types.KindCheckIn, DeviceID: testDevice}
	if err := records.Upsert(context.Background(), pre, store.OnConflictIgnore); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := rec.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs := records.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1].Kind != types.KindCheckOut {
		t.Errorf("expected the evening scan rewritten to CHECK_OUT, got %s", recs[1].Kind)
	}
}
