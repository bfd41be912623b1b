package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "types",
		Short:         "List configured transaction types",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd)
		},
	}
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command) error {
	_, st, err := openHandler(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	types, err := st.ListTransactionTypes(cmd.Context())
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), types)
	}

	if len(types) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transaction types configured")
		return nil
	}
	for _, tt := range types {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\ttarget=%s\ttransactor=%s\n",
			tt.ID, tt.Label, tt.TargetEntityType, tt.Transactor)
		if opts.Verbose {
			ops, err := st.ListOperations(cmd.Context(), tt.ID)
			if err != nil {
				return err
			}
			for _, op := range ops {
				fmt.Fprintf(cmd.OutOrStdout(), "  operation %s: %s\n", op.ID, op.Description)
			}
			if len(tt.Bundles) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  bundles: %s\n", strings.Join(tt.Bundles, ", "))
			}
		}
	}
	return nil
}
