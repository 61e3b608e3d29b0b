package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/attendlabs/attendd/internal/db"

	"github.com/attendlabs/attendd/internal/attend/store"
	"github.com/attendlabs/attendd/internal/attend/types"
)

// RecordStore persists attendance records in SQLite.  Writes go through the
// single-writer worker; reads use the shared connection directly.
type RecordStore struct {
	conn   *sql.DB
	writer *dbpkg.Worker
}

func NewRecordStore(conn *sql.DB, writer *dbpkg.Worker) *RecordStore {
	return &RecordStore{conn: conn, writer: writer}
}

func (s *RecordStore) Upsert(ctx context.Context, rec types.Record, policy store.ConflictPolicy) error {
	personID := strings.TrimSpace(rec.PersonID)
	if personID == "" {
		return nil
	}

	tsMs := rec.Timestamp.UTC().UnixMilli()
	nowMs := time.Now().UTC().UnixMilli()

	var conflict string
	switch policy {
	case store.OnConflictOverwrite:
		conflict = `ON CONFLICT(person_id, ts_ms) DO UPDATE SET
  kind = excluded.kind,
  device_id = excluded.device_id,
  updated_at_ms = excluded.updated_at_ms`
	default:
		conflict = `ON CONFLICT(person_id, ts_ms) DO NOTHING`
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO attendance_records(
  person_id, ts_ms, kind, device_id, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?)
%s;
`, conflict),
			personID, tsMs, string(rec.Kind), rec.DeviceID, nowMs, nowMs,
		); err != nil {
			return fmt.Errorf("Upsert insert: %w", err)
		}
		return nil
	})
}

func (s *RecordStore) List(ctx context.Context, f store.ListFilter) ([]types.Record, error) {
	q := `
SELECT person_id, ts_ms, kind, device_id
FROM attendance_records
WHERE 1=1`
	var args []any

	if f.PersonID != "" {
		q += ` AND person_id = ?`
		args = append(args, f.PersonID)
	}
	if !f.Since.IsZero() {
		q += ` AND ts_ms >= ?`
		args = append(args, f.Since.UTC().UnixMilli())
	}

	q += ` ORDER BY ts_ms, person_id`

	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("List query: %w", err)
	}
	defer rows.Close()

	var out []types.Record
	for rows.Next() {
		var (
			rec  types.Record
			tsMs int64
			kind string
		)
		if err := rows.Scan(&rec.PersonID, &tsMs, &kind, &rec.DeviceID); err != nil {
			return nil, fmt.Errorf("List scan: %w", err)
		}
		rec.Timestamp = time.UnixMilli(tsMs).UTC()
		rec.Kind = types.Kind(kind)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List rows: %w", err)
	}
	return out, nil
}
