package service

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/attendlabs/attendd/internal/attend/device"
	"github.com/attendlabs/attendd/internal/attend/store"
	"github.com/attendlabs/attendd/internal/attend/types"
)

// State is the monitor's connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Notifier receives each record the monitor stores.  Implementations must
// not block for long; delivery is best-effort.
type Notifier interface {
	NotifyRecord(rec types.Record)
}

// MonitorConfig holds the parameters for NewMonitor.
type MonitorConfig struct {
	// ReconnectInterval is the fixed delay between reconnection attempts.
	// Defaults to 5 seconds.
	ReconnectInterval time.Duration

	// Notifier, when non-nil, is invoked after every successful store.
	Notifier Notifier
}

// Monitor keeps one persistent session to the terminal and stores every
// pushed scan immediately as a check-in.  It retries forever on connection
// loss with a fixed interval and terminates only when its context is
// cancelled.
type Monitor struct {
	session  device.Session
	store    store.AttendanceStore
	notifier Notifier
	interval time.Duration
	logger   *log.Logger

	state atomic.Int32
	ctx   context.Context
}

func NewMonitor(sess device.Session, st store.AttendanceStore, cfg MonitorConfig, logger *log.Logger) *Monitor {
	interval := cfg.ReconnectInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{
		session:  sess,
		store:    st,
		notifier: cfg.Notifier,
		interval: interval,
		logger:   logger,
	}
}

// State reports the current lifecycle state.  Safe to call from any
// goroutine.
func (m *Monitor) State() State {
	return State(m.state.Load())
}

func (m *Monitor) setState(s State) {
	m.state.Store(int32(s))
}

// Run drives the connection state machine until ctx is cancelled.  All
// connection and per-event failures are recovered locally; Run only returns
// on shutdown.
func (m *Monitor) Run(ctx context.Context) error {
	m.ctx = ctx
	defer m.setState(StateShuttingDown)

	for {
		m.setState(StateConnecting)
		m.logger.Printf("connecting to device")

		if err := m.session.Connect(ctx); err != nil {
			m.logger.Printf("connect: %v", err)
			m.setState(StateDisconnected)
			if !m.waitReconnect(ctx) {
				return nil
			}
			continue
		}

		if err := m.session.StreamScans(ctx, m.handleScan); err != nil {
			m.logger.Printf("register scan stream: %v", err)
			m.teardown()
			if !m.waitReconnect(ctx) {
				return nil
			}
			continue
		}

		// Some firmware will not push events until explicitly enabled.
		// Failure here is tolerated: many terminals auto-activate.
		if act, ok := m.session.(device.Activator); ok {
			if err := act.Activate(ctx); err != nil {
				m.logger.Printf("warning: device activation failed: %v", err)
			}
		}

		m.setState(StateStreaming)
		m.logger.Printf("streaming scan events")

		select {
		case <-ctx.Done():
			m.teardown()
			return nil
		case err := <-m.session.Closed():
			m.logger.Printf("session lost: %v", err)
			m.teardown()
			if !m.waitReconnect(ctx) {
				return nil
			}
		}
	}
}

// teardown disconnects best-effort and marks the monitor disconnected.
func (m *Monitor) teardown() {
	_ = m.session.Disconnect()
	m.setState(StateDisconnected)
}

// waitReconnect sleeps for the fixed reconnect interval.  Exactly one timer
// is pending at a time; returns false if ctx was cancelled while waiting.
func (m *Monitor) waitReconnect(ctx context.Context) bool {
	m.logger.Printf("retrying in %s", m.interval)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// handleScan stores one pushed scan as a check-in.  A failure affects only
// this event; the stream stays up either way.
func (m *Monitor) handleScan(ev types.ScanEvent) {
	if strings.TrimSpace(ev.PersonRef) == "" {
		m.logger.Printf("discarding scan without person ref from %s", ev.DeviceID)
		return
	}
	if ev.OccurredAt.IsZero() {
		m.logger.Printf("discarding scan without timestamp for person %s", ev.PersonRef)
		return
	}

	rec := types.Record{
		PersonID:  ev.PersonRef,
		Timestamp: ev.OccurredAt,
		Kind:      types.KindCheckIn,
		DeviceID:  ev.DeviceID,
	}

	// A live stream has no lookahead, so every scan defaults to a
	// check-in; reconciliation rewrites kinds later.  Ignore-on-conflict
	// keeps re-delivered scans from churning existing rows.
	if err := m.store.Upsert(m.ctx, rec, store.OnConflictIgnore); err != nil {
		m.logger.Printf("store scan person=%s: %v", rec.PersonID, err)
		return
	}

	m.logger.Printf("stored check-in person=%s at=%s", rec.PersonID, rec.Timestamp.Format(time.RFC3339))

	if m.notifier != nil {
		m.notifier.NotifyRecord(rec)
	}
}
