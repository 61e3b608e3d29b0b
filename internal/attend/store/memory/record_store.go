package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/attendlabs/attendd/internal/attend/store"
	"github.com/attendlabs/attendd/internal/attend/types"
)

// key mirrors the sqlite primary key: (person_id, ts_ms).
type key struct {
	personID string
	tsMilli  int64
}

// RecordStore is an in-memory AttendanceStore for tests and dev.
type RecordStore struct {
	mu   sync.Mutex
	data map[key]types.Record
}

func NewRecordStore() *RecordStore {
	return &RecordStore{data: make(map[key]types.Record)}
}

func (s *RecordStore) Upsert(_ context.Context, rec types.Record, policy store.ConflictPolicy) error {
	k := key{personID: rec.PersonID, tsMilli: rec.Timestamp.UnixMilli()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[k]; exists && policy == store.OnConflictIgnore {
		return nil
	}
	s.data[k] = rec
	return nil
}

func (s *RecordStore) List(_ context.Context, f store.ListFilter) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Record
	for _, rec := range s.data {
		if f.PersonID != "" && rec.PersonID != f.PersonID {
			continue
		}
		if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].PersonID < out[j].PersonID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Records returns a copy of every stored record ordered by time.  Test-only
// helper.
func (s *RecordStore) Records() []types.Record {
	out, _ := s.List(context.Background(), store.ListFilter{})
	return out
}
