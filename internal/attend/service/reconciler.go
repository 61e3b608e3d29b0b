package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/attendlabs/attendd/internal/attend/device"
	"github.com/attendlabs/attendd/internal/attend/store"
	"github.com/attendlabs/attendd/internal/attend/types"
)

// ReconcilerConfig holds the parameters for NewReconciler.
type ReconcilerConfig struct {
	// CheckoutGapMinutes is the whole-minute spread a day's scans must
	// strictly exceed before a check-out is emitted.  Defaults to 5.
	CheckoutGapMinutes int

	// Location is the terminal's reporting timezone used to derive
	// calendar dates.  Defaults to time.Local.
	Location *time.Location
}

// Reconciler pulls the terminal's full attendance log once, classifies it
// into check-in/check-out pairs, and upserts the result.  It runs to
// completion and reports a SyncRun; it has no retry loop of its own.
type Reconciler struct {
	session device.Session
	records store.AttendanceStore
	runs    store.SyncRunStore
	gap     int
	loc     *time.Location
	logger  *log.Logger
}

func NewReconciler(sess device.Session, records store.AttendanceStore, runs store.SyncRunStore, cfg ReconcilerConfig, logger *log.Logger) *Reconciler {
	gap := cfg.CheckoutGapMinutes
	if gap <= 0 {
		gap = 5
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{
		session: sess,
		records: records,
		runs:    runs,
		gap:     gap,
		loc:     loc,
		logger:  logger,
	}
}

// Run performs one reconciliation pass.  Connection and fetch failures fail
// the run; storage failures are skipped per record and counted, since
// upserts are idempotent and a later run repairs any gap.  An empty log is
// a normal zero-stored result.
func (r *Reconciler) Run(ctx context.Context) (types.SyncRun, error) {
	run := types.SyncRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	if err := r.session.Connect(ctx); err != nil {
		return run, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = r.session.Disconnect() }()

	events, err := r.session.FetchAllScans(ctx)
	if err != nil {
		return run, fmt.Errorf("fetch attendance log: %w", err)
	}
	run.Fetched = len(events)

	processed := Classify(events, r.gap, r.loc)

	for _, rec := range processed {
		// Reconciliation is authoritative: a re-run over the same data
		// must converge on the freshly computed kinds.
		if err := r.records.Upsert(ctx, rec, store.OnConflictOverwrite); err != nil {
			r.logger.Printf("upsert person=%s at=%s: %v", rec.PersonID, rec.Timestamp.Format(time.RFC3339), err)
			run.Failed++
			continue
		}
		run.Stored++
	}

	run.FinishedAt = time.Now().UTC()

	if err := r.runs.RecordRun(ctx, run); err != nil {
		r.logger.Printf("record sync run %s: %v", run.RunID, err)
	}

	r.logger.Printf("sync complete run=%s fetched=%d stored=%d failed=%d",
		run.RunID, run.Fetched, run.Stored, run.Failed)

	return run, nil
}
