package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ChainOptions holds flags for the chain command.
type ChainOptions struct {
	*RootOptions
	All bool
}

// NewChainCommand creates the chain command.
func NewChainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chain <type> <entity-type>/<id>",
		Short: "List the execution chain for a type and target",
		Long: `List the executed transactions of a type against a target, in
execution order. With --all, pending transactions are included after
the executed chain.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include pending transactions")

	return cmd
}

func runChain(opts *ChainOptions, typeID, targetRef string, cmd *cobra.Command) error {
	entityType, id, err := splitTargetRef(targetRef)
	if err != nil {
		return err
	}

	h, st, err := openHandler(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var list = st.ListExecuted
	if opts.All {
		list = st.ListTransactions
	}
	txs, err := list(ctx, typeID, entityType, id)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		views := make([]*transactionView, 0, len(txs))
		for _, tx := range txs {
			if err := h.Attach(ctx, tx); err != nil {
				return err
			}
			v, err := viewOf(tx)
			if err != nil {
				return err
			}
			views = append(views, v)
		}
		return printJSON(cmd.OutOrStdout(), views)
	}

	if len(txs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No transactions")
		return nil
	}
	for _, tx := range txs {
		if err := h.Attach(ctx, tx); err != nil {
			return err
		}
		desc, err := tx.Description(false)
		if err != nil {
			return err
		}
		if tx.IsPending() {
			fmt.Fprintf(cmd.OutOrStdout(), "%6d  pending               %s\n", tx.ID, desc)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %s\n",
			tx.ID, tx.Executed.UTC().Format("2006-01-02T15:04:05Z"), desc)
	}
	return nil
}
