package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reckon-io/reckon/internal/config"
	"github.com/reckon-io/reckon/internal/engine"
	"github.com/reckon-io/reckon/internal/store"
	"github.com/reckon-io/reckon/internal/transactor"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DBPath  string
	User    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reckon CLI.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reckon",
		Short: "Reckon - transaction execution engine",
		Long:  "Records and executes ordered, immutable transactions against target records.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg.SetupLogger()
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", cfg.DBPath, "sqlite database path")
	cmd.PersistentFlags().StringVar(&opts.User, "user", cfg.User, "acting user recorded on transactions")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewTargetCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewChainCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// openHandler opens the store and wires the execution handler with the
// default transactor registry. The caller closes the returned store.
func openHandler(opts *RootOptions) (*engine.Handler, *store.Store, error) {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	h := engine.New(st, transactor.DefaultRegistry(), engine.WithPrincipal(opts.User))
	return h, st, nil
}
