package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reckon-io/reckon/internal/entity"
)

// TargetOptions holds flags for the target command.
type TargetOptions struct {
	*RootOptions
	Bundle string
	Name   string
	Fields []string
}

// NewTargetCommand creates the target command.
func NewTargetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TargetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "target <entity-type>/<id>",
		Short: "Create or update a target record",
		Long: `Create or update a target record.

Example:
  reckon target account/alice --name "Alice" --field balance=100.00`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTarget(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bundle, "bundle", "", "target bundle")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "field value as name=value (repeatable)")

	return cmd
}

func runTarget(opts *TargetOptions, ref string, cmd *cobra.Command) error {
	entityType, id, err := splitTargetRef(ref)
	if err != nil {
		return err
	}
	fields, err := parseFields(opts.Fields)
	if err != nil {
		return err
	}

	_, st, err := openHandler(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	target := &entity.TargetRecord{
		EntityType: entityType,
		ID:         id,
		Bundle:     opts.Bundle,
		Name:       opts.Name,
		Fields:     fields,
	}
	if err := st.SaveTarget(cmd.Context(), target); err != nil {
		return err
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), target)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved target %s/%s\n", entityType, id)
	return nil
}

// splitTargetRef parses "entity-type/id" references.
func splitTargetRef(ref string) (entityType, id string, err error) {
	entityType, id, ok := strings.Cut(ref, "/")
	if !ok || entityType == "" || id == "" {
		return "", "", fmt.Errorf("invalid target reference %q: want <entity-type>/<id>", ref)
	}
	return entityType, id, nil
}

// parseFields parses repeated name=value flags.
func parseFields(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q: want name=value", p)
		}
		fields[name] = value
	}
	return fields, nil
}
