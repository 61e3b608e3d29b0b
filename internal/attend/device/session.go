package device

import (
	"context"
	"errors"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// ErrConnection marks transport-level failures from a Session.  Drivers wrap
// it so callers can classify failures with errors.Is without knowing the
// underlying transport.
var ErrConnection = errors.New("device connection error")

// ScanHandler receives one pushed scan event.  Handlers are invoked one at a
// time per session and should not perform unbounded blocking work.
type ScanHandler func(ev types.ScanEvent)

// Session is the capability this system consumes to talk to one terminal.
// The wire protocol behind it is a driver concern; the engines only rely on
// the operations below.
//
// A Session is reusable: after Disconnect (or a transport loss reported via
// Closed) it may be connected again.
type Session interface {
	// Connect opens the session.  Failures wrap ErrConnection.
	Connect(ctx context.Context) error

	// Disconnect tears the session down.  Callers treat it as best-effort
	// and ignore the returned error.
	Disconnect() error

	// StreamScans registers the push callback for live scan events.
	// Failures wrap ErrConnection.
	StreamScans(ctx context.Context, h ScanHandler) error

	// FetchAllScans pulls the terminal's full attendance log.
	// Failures wrap ErrConnection.
	FetchAllScans(ctx context.Context) ([]types.ScanEvent, error)

	// Closed reports an unexpected transport loss while streaming.  The
	// channel yields at most one error per connected session.
	Closed() <-chan error
}

// Activator is implemented by sessions whose terminal firmware needs an
// explicit enable command before it will push events.  Activation failure is
// non-fatal; some terminals auto-activate.
type Activator interface {
	Activate(ctx context.Context) error
}
