package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/attendlabs/attendd/internal/httpapi"
)

// NewServeCommand creates the standalone API server command, for
// deployments where ingestion runs on a separate host.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only attendance API without ingesting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			srv := httpapi.NewServer(httpapi.Dependencies{
				Logger:  a.logger,
				Addr:    a.cfg.HTTPAddr,
				Records: a.records,
				Runs:    a.runs,
			})

			go func() {
				a.logger.Printf("api listening on %s", a.cfg.HTTPAddr)
				if err := srv.Start(); err != nil {
					a.logger.Printf("api server: %v", err)
					stop()
				}
			}()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
