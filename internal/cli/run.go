package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command: the periodic reconciliation
// daemon.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation loop",
		Long: `Run the periodic reconciliation loop over every configured scope.

Each tick fetches new bank records since each scope's cursor, classifies
them, applies their effects to the ledgers exactly once, and advances the
cursor. Scopes are independent: one scope's upstream failure only skips
that scope until the next tick.

Example:
  warchest run --config warchest.yaml
  warchest run -c /etc/warchest.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(rootOpts, cmd)
		},
	}

	return cmd
}

func runLoop(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	interval := time.Duration(a.cfg.Interval)
	slog.Info("reconciler starting",
		"db", a.cfg.Database,
		"scopes", len(a.eng.Scopes()),
		"interval", interval,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "Reconciler started. Press Ctrl-C to stop.")

	if err := a.eng.Loop(ctx, interval); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "reconciler error", err)
	}

	slog.Info("reconciler stopped gracefully")
	return nil
}
