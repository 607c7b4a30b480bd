package cli

import (
	"github.com/spf13/cobra"
)

// NewLedgerCommand creates the ledger command: list the applied entries
// behind a target's balance.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger <target>",
		Short: "List the applied ledger entries for a target",
		Long: `List every (resource, source record) entry applied to a target, in
record order. The entries sum to the target's current balance; use this
to audit where a balance came from.

Targets are member:<nationID>, alliance:<id>, or
offshore:<owner>:<offshore>.

Example:
  warchest ledger member:98765`,
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

			entries, err := a.store.LedgerEntries(cmd.Context(), targetID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read ledger", err)
			}
			return renderLedger(cmd.OutOrStdout(), rootOpts.Format, targetID, entries)
		},
	}

	return cmd
}
