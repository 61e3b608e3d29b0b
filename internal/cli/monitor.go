package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/attendlabs/attendd/internal/attend/service"
	"github.com/attendlabs/attendd/internal/httpapi"
	"github.com/attendlabs/attendd/internal/notify"
)

// NewMonitorCommand creates the live ingestion command.  It runs until
// interrupted, maintaining the device session and storing every pushed scan
// as a check-in, with the status API alongside.
func NewMonitorCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the live scan ingestion daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := a.session()
			if err != nil {
				return err
			}

			mcfg := service.MonitorConfig{
				ReconnectInterval: time.Duration(a.cfg.ReconnectIntervalMs) * time.Millisecond,
			}

			if a.cfg.MQTTBroker != "" {
				n, err := notify.NewMQTTNotifier(a.cfg.MQTTBroker, "attendd-monitor", a.cfg.MQTTTopic, a.logger)
				if err != nil {
					// The notifier is an optional side channel; run
					// without it rather than refusing to ingest.
					a.logger.Printf("warning: mqtt notifier disabled: %v", err)
				} else {
					defer n.Close()
					mcfg.Notifier = n
				}
			}

			monitor := service.NewMonitor(sess, a.records, mcfg, a.logger)

			srv := httpapi.NewServer(httpapi.Dependencies{
				Logger:       a.logger,
				Addr:         a.cfg.HTTPAddr,
				Records:      a.records,
				Runs:         a.runs,
				MonitorState: func() string { return monitor.State().String() },
			})

			go func() {
				a.logger.Printf("api listening on %s", a.cfg.HTTPAddr)
				if err := srv.Start(); err != nil {
					a.logger.Printf("api server: %v", err)
				}
			}()

			err = monitor.Run(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)

			return err
		},
	}
}
