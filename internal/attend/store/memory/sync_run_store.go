package memory

import (
	"context"
	"sync"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// SyncRunStore is an in-memory SyncRunStore for tests and dev.
type SyncRunStore struct {
	mu   sync.Mutex
	runs []types.SyncRun
}

func NewSyncRunStore() *SyncRunStore {
	return &SyncRunStore{}
}

func (s *SyncRunStore) RecordRun(_ context.Context, run types.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *SyncRunStore) LatestRun(_ context.Context) (types.SyncRun, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.runs) == 0 {
		return types.SyncRun{}, false, nil
	}

	latest := s.runs[0]
	for _, r := range s.runs[1:] {
		if r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	return latest, true, nil
}

// Runs returns a copy of all recorded runs.  Test-only helper.
func (s *SyncRunStore) Runs() []types.SyncRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SyncRun, len(s.runs))
	copy(out, s.runs)
	return out
}
