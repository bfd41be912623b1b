package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show a transaction",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid transaction id %q", arg)
	}

	h, st, err := openHandler(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	tx, err := h.LoadTransaction(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printTransaction(cmd.OutOrStdout(), opts, tx)
}
