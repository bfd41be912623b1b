package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <id>",
		Short: "Execute a pending transaction",
		Long: `Execute a pending transaction by id.

Execution runs the type's transactor against the current chain state
and, on success, permanently stamps the transaction as executed. A
validation refusal leaves the transaction pending and reports it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExecute(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", arg)
	}

	h, st, err := openHandler(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	tx, err := h.LoadTransaction(ctx, id)
	if err != nil {
		return err
	}

	code, err := tx.Execute(ctx, true, opts.User)
	if err != nil {
		return err
	}
	switch {
	case code == 0:
		fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d was not executed: validation refused\n", id)
		return nil
	case code < 0:
		fmt.Fprintf(cmd.OutOrStdout(), "Transaction %d failed with code %d\n", id, code)
	}
	return printTransaction(cmd.OutOrStdout(), opts, tx)
}
