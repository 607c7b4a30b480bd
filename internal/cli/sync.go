package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command: one tick over every scope.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation tick over all scopes",
		Long: `Run a single reconciliation tick over every configured scope and
print one result per scope. Skipped scopes keep their cursor and are
retried on the next sync.

Example:
  warchest sync --config warchest.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			results := a.eng.Tick(cmd.Context())

			skipped := 0
			out := cmd.OutOrStdout()
			for i, res := range results {
				if i > 0 && rootOpts.Format != "json" {
					fmt.Fprintln(out)
				}
				if res.Err != nil {
					skipped++
					if rootOpts.Format != "json" {
						fmt.Fprintf(out, "Scope:    %s\n", res.Scope.Key())
						fmt.Fprintf(out, "Skipped:  %v\n", res.Err)
					}
					continue
				}
				if err := renderResult(out, rootOpts.Format, res); err != nil {
					return err
				}
			}

			if skipped > 0 {
				return WrapExitError(ExitFailure,
					fmt.Sprintf("%d of %d scopes skipped, will retry next sync", skipped, len(results)), nil)
			}
			return nil
		},
	}

	return cmd
}
