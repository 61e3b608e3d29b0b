// Package sim provides an in-process terminal simulator implementing the
// device.Session capability.  It is the "sim" driver: it lets the daemon and
// the batch sync run end-to-end without hardware, emitting synthetic scans
// for a small fixed population.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/attendlabs/attendd/internal/attend/device"
	"github.com/attendlabs/attendd/internal/attend/types"
)

type Config struct {
	// DeviceID is the identifier reported on every scan.  Defaults to
	// "sim:4370".
	DeviceID string

	// People is the simulated population.  Defaults to three synthetic
	// person refs.
	People []string

	// ScanPeriod is how often the live stream emits a scan.  Defaults to
	// 15 seconds.
	ScanPeriod time.Duration

	// HistoryDays is how many days of synthetic history FetchAllScans
	// returns.  Defaults to 3.
	HistoryDays int
}

// Session simulates one terminal.  It is reusable across
// Connect/Disconnect cycles like a real driver.
type Session struct {
	cfg Config
	rnd *rand.Rand

	mu        sync.Mutex
	connected bool
	closed    chan error
	stop      chan struct{}
}

func New(cfg Config) *Session {
	if cfg.DeviceID == "" {
		cfg.DeviceID = "sim:4370"
	}
	if len(cfg.People) == 0 {
		cfg.People = []string{"1001", "1002", "1003"}
	}
	if cfg.ScanPeriod <= 0 {
		cfg.ScanPeriod = 15 * time.Second
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 3
	}
	return &Session{
		cfg: cfg,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Session) Connect(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}
	s.connected = true
	s.closed = make(chan error, 1)
	return nil
}

func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.connected = false
	return nil
}

func (s *Session) Closed() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Activate satisfies device.Activator.  The simulator auto-activates, so
// this is a no-op kept to exercise the activation path.
func (s *Session) Activate(_ context.Context) error {
	return nil
}

// StreamScans emits a scan from a random person every ScanPeriod until the
// session is disconnected or ctx is cancelled.
func (s *Session) StreamScans(ctx context.Context, h device.ScanHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return fmt.Errorf("%w: stream on closed session", device.ErrConnection)
	}
	if s.stop != nil {
		return fmt.Errorf("%w: stream already registered", device.ErrConnection)
	}

	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.cfg.ScanPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case t := <-ticker.C:
				h(types.ScanEvent{
					PersonRef:  s.cfg.People[s.rnd.Intn(len(s.cfg.People))],
					OccurredAt: t.Truncate(time.Second),
					DeviceID:   s.cfg.DeviceID,
				})
			}
		}
	}()

	return nil
}

// FetchAllScans returns a synthetic history: for each person and each of the
// last HistoryDays days, a morning scan around 08:00 and an evening scan
// around 17:30, with some days collapsing to a single brief visit.
func (s *Session) FetchAllScans(_ context.Context) ([]types.ScanEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, fmt.Errorf("%w: fetch on closed session", device.ErrConnection)
	}

	var out []types.ScanEvent
	now := time.Now()

	for day := s.cfg.HistoryDays; day >= 1; day-- {
		date := now.AddDate(0, 0, -day)
		for _, person := range s.cfg.People {
			morning := time.Date(date.Year(), date.Month(), date.Day(),
				8, s.rnd.Intn(30), s.rnd.Intn(60), 0, now.Location())

			out = append(out, types.ScanEvent{
				PersonRef:  person,
				OccurredAt: morning,
				DeviceID:   s.cfg.DeviceID,
			})

			// Roughly one day in five is a brief visit with no
			// evening scan.
			if s.rnd.Intn(5) == 0 {
				continue
			}

			evening := time.Date(date.Year(), date.Month(), date.Day(),
				17, 30+s.rnd.Intn(25), s.rnd.Intn(60), 0, now.Location())

			out = append(out, types.ScanEvent{
				PersonRef:  person,
				OccurredAt: evening,
				DeviceID:   s.cfg.DeviceID,
			})
		}
	}

	return out, nil
}
