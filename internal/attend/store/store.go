package store

import (
	"context"
	"time"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// ConflictPolicy selects what an Upsert does when the (PersonID, Timestamp)
// key already exists.  The policy is a parameter of the call, not of the
// store: live ingestion leaves existing rows alone, reconciliation is
// authoritative and overwrites the classification.
type ConflictPolicy int

const (
	// OnConflictIgnore keeps the existing row untouched.
	OnConflictIgnore ConflictPolicy = iota

	// OnConflictOverwrite replaces kind and device id with the new values.
	OnConflictOverwrite
)

// ListFilter narrows a List call.  Zero values mean "no constraint".
type ListFilter struct {
	PersonID string
	Since    time.Time
	Limit    int
}

// AttendanceStore persists attendance records keyed by (PersonID, Timestamp).
type AttendanceStore interface {
	Upsert(ctx context.Context, rec types.Record, policy ConflictPolicy) error
	List(ctx context.Context, f ListFilter) ([]types.Record, error)
}

// SyncRunStore keeps the audit log of batch reconciliation runs.
type SyncRunStore interface {
	RecordRun(ctx context.Context, run types.SyncRun) error
	LatestRun(ctx context.Context) (types.SyncRun, bool, error)
}
