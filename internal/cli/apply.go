package cli

import (
	"github.com/spf13/cobra"
)

// NewApplyCommand creates the apply command: an immediate sync for one
// scope.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <scope>",
		Short: "Apply pending records for a scope now",
		Long: `Run one immediate pass for a single scope: fetch new records since
the cursor, apply their ledger effects exactly once, and advance the
cursor. Safe to re-run; records applied before report as already applied
and the balances do not move again.

The scope is alliance:<id> or offshore:<owner>:<offshore>.

Example:
  warchest apply alliance:1234`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid scope", err)
			}

			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.eng.ApplyNow(cmd.Context(), scope)
			if err != nil {
				return WrapExitError(ExitFailure, "nothing applied, will retry next tick", err)
			}
			return renderResult(cmd.OutOrStdout(), rootOpts.Format, res)
		},
	}

	return cmd
}
