package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBalanceCommand creates the balance command: print a target's current
// holdings.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <target>",
		Short: "Show the current balance of a target",
		Long: `Show the current resource holdings of a balance target.

Targets are member:<nationID> (safekeeping), alliance:<id> (treasury),
or offshore:<owner>:<offshore> (net offshore holding).

Example:
  warchest balance member:98765
  warchest balance offshore:1234:5678`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID := args[0]

			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			v, ok, err := a.store.Balance(cmd.Context(), targetID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read balance", err)
			}
			if !ok {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("no balance recorded for %s", targetID), nil)
			}
			return renderBalance(cmd.OutOrStdout(), rootOpts.Format, targetID, v)
		},
	}

	return cmd
}
