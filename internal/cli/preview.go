package cli

import (
	"github.com/spf13/cobra"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	Since int64
}

// NewPreviewCommand creates the preview command: a read-only dry run for
// one scope.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts, Since: -1}

	cmd := &cobra.Command{
		Use:   "preview <scope>",
		Short: "Preview what a sync would apply for a scope",
		Long: `Fetch and classify new records for one scope without writing
anything. The cursor does not move; running preview twice shows the same
pending records.

The scope is alliance:<id> or offshore:<owner>:<offshore>.

Example:
  warchest preview alliance:1234
  warchest preview offshore:1234:5678 --since 100`,
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

			var override *int64
			if opts.Since >= 0 {
				override = &opts.Since
			}

			res, err := a.eng.PreviewSince(cmd.Context(), scope, override)
			if err != nil {
				return WrapExitError(ExitFailure, "nothing previewed, upstream unavailable", err)
			}
			return renderResult(cmd.OutOrStdout(), rootOpts.Format, res)
		},
	}

	cmd.Flags().Int64Var(&opts.Since, "since", -1, "override the cursor lower bound (record id)")

	return cmd
}
