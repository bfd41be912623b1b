package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	File string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database and load type definitions",
		Long: `Initialize the database and load transaction type definitions.

Opens (creating if needed) the sqlite database and applies the type and
operation definitions from a YAML file. Re-running with the same file is
safe: definitions are upserted.

Example:
  reckon init -f types.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML definitions file")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	_, st, err := openHandler(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.File == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", opts.DBPath)
		return nil
	}

	defs, err := LoadDefinitions(opts.File)
	if err != nil {
		return err
	}
	if err := defs.Apply(cmd.Context(), st); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d type(s) and %d operation(s)\n",
		len(defs.Types), len(defs.Operations))
	return nil
}
