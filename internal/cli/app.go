package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/attendlabs/attendd/internal/attend/device"
	"github.com/attendlabs/attendd/internal/attend/device/sim"
	"github.com/attendlabs/attendd/internal/attend/store"
	sqlitestore "github.com/attendlabs/attendd/internal/attend/store/sqlite"
	"github.com/attendlabs/attendd/internal/config"
	"github.com/attendlabs/attendd/internal/db"
)

// app bundles the shared wiring every command needs: config, logger,
// database, and the worker-backed stores.
type app struct {
	cfg    config.Config
	logger *log.Logger

	conn    *sql.DB
	writer  *db.Worker
	records store.AttendanceStore
	runs    store.SyncRunStore
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stdout, "attendd ", log.LstdFlags|log.LUTC)

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	writer := db.NewWorker(conn)

	return &app{
		cfg:     cfg,
		logger:  logger,
		conn:    conn,
		writer:  writer,
		records: sqlitestore.NewRecordStore(conn, writer),
		runs:    sqlitestore.NewSyncRunStore(conn, writer),
	}, nil
}

func (a *app) close() {
	a.writer.Close()
	_ = a.conn.Close()
}

// session builds the device session for the configured driver.  The
// hardware terminal driver plugs in here behind device.Session; "sim" is
// the only driver shipped so far.
func (a *app) session() (device.Session, error) {
	switch a.cfg.Driver {
	case "sim":
		return sim.New(sim.Config{
			DeviceID: fmt.Sprintf("%s:%d", a.cfg.DeviceAddr, a.cfg.DevicePort),
		}), nil
	default:
		return nil, fmt.Errorf("unknown device driver %q", a.cfg.Driver)
	}
}

// location resolves the configured reporting timezone, falling back to the
// host zone on a bad name.
func (a *app) location() *time.Location {
	if a.cfg.Timezone == "" || a.cfg.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.cfg.Timezone)
	if err != nil {
		a.logger.Printf("bad timezone %q, using host zone: %v", a.cfg.Timezone, err)
		return time.Local
	}
	return loc
}
