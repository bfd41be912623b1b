package cli

import (
	"github.com/spf13/cobra"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Operation string
	Fields    []string
	Execute   bool
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <type> <entity-type>/<id>",
		Short: "Create a pending transaction",
		Long: `Create a pending transaction of the given type against a target record.

The target record must already exist (see 'reckon target'). Plugin
fields are set with repeated --field flags using the concrete field
names from the type settings.

Example:
  reckon create payment account/alice --field amount=-30 --operation withdrawal
  reckon create payment account/alice --field amount=50 --execute`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Operation, "operation", "", "operation template id")
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "field value as name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "execute immediately after creating")

	return cmd
}

func runCreate(opts *CreateOptions, typeID, targetRef string, cmd *cobra.Command) error {
	entityType, id, err := splitTargetRef(targetRef)
	if err != nil {
		return err
	}
	fields, err := parseFields(opts.Fields)
	if err != nil {
		return err
	}

	h, st, err := openHandler(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	target, err := st.LoadTarget(ctx, entityType, id)
	if err != nil {
		return err
	}

	tx, err := h.NewTransaction(ctx, typeID, target, opts.User)
	if err != nil {
		return err
	}
	for name, value := range fields {
		tx.SetField(name, value)
	}
	if opts.Operation != "" {
		if err := h.AttachOperation(ctx, tx, opts.Operation); err != nil {
			return err
		}
	}

	if err := h.SaveTransaction(ctx, tx); err != nil {
		return err
	}

	if opts.Execute {
		if _, err := tx.Execute(ctx, true, opts.User); err != nil {
			return err
		}
	}
	return printTransaction(cmd.OutOrStdout(), opts.RootOptions, tx)
}
