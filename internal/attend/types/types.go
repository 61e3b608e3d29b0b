package types

import "time"

// Kind classifies an attendance record.
type Kind string

const (
	KindCheckIn  Kind = "CHECK_IN"
	KindCheckOut Kind = "CHECK_OUT"
)

// ScanEvent is a single observation reported by the terminal, either pushed
// over the live stream or returned by a bulk log fetch.  It is never stored
// directly; both engines transform it into a Record first.
type ScanEvent struct {
	PersonRef  string    // terminal-assigned identifier of the enrolled person
	OccurredAt time.Time // scan time, terminal-local, second precision
	DeviceID   string    // address of the terminal that produced the scan
}

// Record is the persisted attendance fact.  (PersonID, Timestamp) is the
// uniqueness key for persistence; re-ingesting the same physical scan must
// not create a duplicate row.
type Record struct {
	PersonID  string    `json:"person_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	DeviceID  string    `json:"device_id"`
}

// SyncRun reports one batch reconciliation pass.
type SyncRun struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Stored     int       `json:"stored"`
	Failed     int       `json:"failed"`
}
