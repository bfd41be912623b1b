package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reckon-io/reckon/internal/entity"
	"github.com/reckon-io/reckon/internal/store"
	"github.com/reckon-io/reckon/internal/transactor"
)

// Definitions is the YAML schema for transaction type and operation
// configuration applied by `reckon init`.
type Definitions struct {
	Types      []TypeDefinition      `yaml:"types"`
	Operations []OperationDefinition `yaml:"operations"`
}

// TypeDefinition declares one transaction type.
type TypeDefinition struct {
	ID               string            `yaml:"id"`
	Label            string            `yaml:"label"`
	TargetEntityType string            `yaml:"target_entity_type"`
	Transactor       string            `yaml:"transactor"`
	Settings         map[string]string `yaml:"settings"`
	Bundles          []string          `yaml:"bundles"`
}

// OperationDefinition declares one operation template.
type OperationDefinition struct {
	ID              string   `yaml:"id"`
	TransactionType string   `yaml:"transaction_type"`
	Description     string   `yaml:"description"`
	Details         []string `yaml:"details"`
}

// LoadDefinitions parses a definitions file.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}

	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse definitions %s: %w", path, err)
	}
	if err := defs.Validate(); err != nil {
		return nil, fmt.Errorf("definitions %s: %w", path, err)
	}
	return &defs, nil
}

// Validate checks the definitions for structural problems before any of
// them hit the store: missing identifiers, unknown transactor plugins,
// operations referencing undeclared types.
func (d *Definitions) Validate() error {
	registry := transactor.DefaultRegistry()

	types := make(map[string]bool, len(d.Types))
	for i, t := range d.Types {
		if t.ID == "" {
			return fmt.Errorf("type %d: missing id", i)
		}
		if types[t.ID] {
			return fmt.Errorf("type %s: declared twice", t.ID)
		}
		types[t.ID] = true
		if t.TargetEntityType == "" {
			return fmt.Errorf("type %s: missing target_entity_type", t.ID)
		}
		if t.Transactor == "" {
			return fmt.Errorf("type %s: missing transactor", t.ID)
		}
		if _, err := registry.New(t.Transactor, t.Settings); err != nil {
			return fmt.Errorf("type %s: %w", t.ID, err)
		}
	}

	for i, op := range d.Operations {
		if op.ID == "" {
			return fmt.Errorf("operation %d: missing id", i)
		}
		if op.TransactionType == "" {
			return fmt.Errorf("operation %s: missing transaction_type", op.ID)
		}
		if !types[op.TransactionType] {
			return fmt.Errorf("operation %s: unknown transaction_type %s", op.ID, op.TransactionType)
		}
	}
	return nil
}

// Apply upserts all declared types and operations.
func (d *Definitions) Apply(ctx context.Context, st *store.Store) error {
	for _, t := range d.Types {
		tt := &entity.TransactionType{
			ID:               t.ID,
			Label:            t.Label,
			TargetEntityType: t.TargetEntityType,
			Transactor:       t.Transactor,
			Settings:         t.Settings,
			Bundles:          t.Bundles,
		}
		if err := st.SaveTransactionType(ctx, tt); err != nil {
			return fmt.Errorf("save type %s: %w", t.ID, err)
		}
	}
	for _, op := range d.Operations {
		o := &entity.Operation{
			ID:              op.ID,
			TransactionType: op.TransactionType,
			Description:     op.Description,
			Details:         op.Details,
		}
		if err := st.SaveOperation(ctx, o); err != nil {
			return fmt.Errorf("save operation %s: %w", op.ID, err)
		}
	}
	return nil
}
