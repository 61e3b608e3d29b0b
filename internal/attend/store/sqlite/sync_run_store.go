package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/attendlabs/attendd/internal/db"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// SyncRunStore persists reconciliation run reports.
type SyncRunStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewSyncRunStore(conn *sql.DB, writer *dbpkg.Worker) *SyncRunStore {
	return &SyncRunStore{conn: conn, writer: writer}
}

func (s *SyncRunStore) RecordRun(ctx context.Context, run types.SyncRun) error {
	if run.RunID == "" {
		return fmt.Errorf("RecordRun: run id is required")
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO sync_runs(run_id, started_at_ms, finished_at_ms, fetched, stored, failed)
VALUES (?, ?, ?, ?, ?, ?);
`,
			run.RunID,
			run.StartedAt.UTC().UnixMilli(),
			run.FinishedAt.UTC().UnixMilli(),
			run.Fetched, run.Stored, run.Failed,
		); err != nil {
			return fmt.Errorf("RecordRun insert: %w", err)
		}
		return nil
	})
}

func (s *SyncRunStore) LatestRun(ctx context.Context) (types.SyncRun, bool, error) {
	var (
		run        types.SyncRun
		startedMs  int64
		finishedMs int64
	)
	err := s.conn.QueryRowContext(ctx, `
SELECT run_id, started_at_ms, finished_at_ms, fetched, stored, failed
FROM sync_runs
ORDER BY started_at_ms DESC
LIMIT 1;
`).Scan(&run.RunID, &startedMs, &finishedMs, &run.Fetched, &run.Stored, &run.Failed)

	if err == sql.ErrNoRows {
		return types.SyncRun{}, false, nil
	}
	if err != nil {
		return types.SyncRun{}, false, fmt.Errorf("LatestRun query: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedMs).UTC()
	run.FinishedAt = time.UnixMilli(finishedMs).UTC()
	return run, true, nil
}
