package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/attendlabs/attendd/internal/attend/service"
)

// NewSyncCommand creates the one-shot batch reconciliation command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the terminal's full log and reconcile check-ins/check-outs",
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

			rec := service.NewReconciler(sess, a.records, a.runs, service.ReconcilerConfig{
				CheckoutGapMinutes: a.cfg.CheckoutGapMinutes,
				Location:           a.location(),
			}, a.logger)

			run, err := rec.Run(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Sync complete. run=%s fetched=%d stored=%d failed=%d\n",
				run.RunID, run.Fetched, run.Stored, run.Failed)
			return nil
		},
	}
}
