package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reckon-io/reckon/internal/entity"
)

// SaveTransactionType inserts or replaces a transaction type.
func (s *Store) SaveTransactionType(ctx context.Context, tt *entity.TransactionType) error {
	settings, err := marshalMap(tt.Settings)
	if err != nil {
		return fmt.Errorf("save transaction type: %w", err)
	}
	bundles, err := marshalList(tt.Bundles)
	if err != nil {
		return fmt.Errorf("save transaction type: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transaction_types (id, label, target_entity_type, transactor, settings, bundles)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			target_entity_type = excluded.target_entity_type,
			transactor = excluded.transactor,
			settings = excluded.settings,
			bundles = excluded.bundles
	`, tt.ID, tt.Label, tt.TargetEntityType, tt.Transactor, settings, bundles)
	if err != nil {
		return fmt.Errorf("save transaction type %s: %w", tt.ID, err)
	}
	return nil
}

// LoadTransactionType retrieves a transaction type by id.
// Returns ErrNotFound if no row matches.
func (s *Store) LoadTransactionType(ctx context.Context, id string) (*entity.TransactionType, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, target_entity_type, transactor, settings, bundles
		FROM transaction_types
		WHERE id = ?
	`, id)

	tt, err := scanTransactionType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction type %s: %w", id, ErrNotFound)
	}
	return tt, err
}

// ListTransactionTypes returns all transaction types ordered by id.
func (s *Store) ListTransactionTypes(ctx context.Context) ([]*entity.TransactionType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, target_entity_type, transactor, settings, bundles
		FROM transaction_types
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list transaction types: %w", err)
	}
	defer rows.Close()

	var types []*entity.TransactionType
	for rows.Next() {
		tt, err := scanTransactionType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction types: %w", err)
	}
	return types, nil
}

// DeleteTransactionType removes a transaction type. Types referenced by
// transactions or operations are protected: deletion fails with
// ErrTypeInUse rather than cascading.
func (s *Store) DeleteTransactionType(ctx context.Context, id string) error {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE type = ?)
		     + (SELECT COUNT(*) FROM operations WHERE transaction_type = ?)
	`, id, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("delete transaction type %s: %w", id, err)
	}
	if count > 0 {
		return fmt.Errorf("delete transaction type %s: %w", id, ErrTypeInUse)
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM transaction_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction type %s: %w", id, err)
	}
	return nil
}

func scanTransactionType(row scanner) (*entity.TransactionType, error) {
	var (
		tt       entity.TransactionType
		settings string
		bundles  string
	)
	if err := row.Scan(&tt.ID, &tt.Label, &tt.TargetEntityType, &tt.Transactor, &settings, &bundles); err != nil {
		return nil, err
	}

	var err error
	if tt.Settings, err = unmarshalMap(settings); err != nil {
		return nil, fmt.Errorf("scan transaction type %s: %w", tt.ID, err)
	}
	if tt.Bundles, err = unmarshalList(bundles); err != nil {
		return nil, fmt.Errorf("scan transaction type %s: %w", tt.ID, err)
	}
	return &tt, nil
}

// SaveOperation inserts or replaces an operation template.
func (s *Store) SaveOperation(ctx context.Context, op *entity.Operation) error {
	details, err := marshalList(op.Details)
	if err != nil {
		return fmt.Errorf("save operation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO operations (id, transaction_type, description, details)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id, transaction_type) DO UPDATE SET
			description = excluded.description,
			details = excluded.details
	`, op.ID, op.TransactionType, op.Description, details)
	if err != nil {
		return fmt.Errorf("save operation %s: %w", op.ID, err)
	}
	return nil
}

// LoadOperation retrieves an operation template by (id, type).
// Returns ErrNotFound if no row matches.
func (s *Store) LoadOperation(ctx context.Context, id, typeID string) (*entity.Operation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, transaction_type, description, details
		FROM operations
		WHERE id = ? AND transaction_type = ?
	`, id, typeID)

	var (
		op      entity.Operation
		details string
	)
	err := row.Scan(&op.ID, &op.TransactionType, &op.Description, &details)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("operation %s/%s: %w", typeID, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load operation %s: %w", id, err)
	}

	if op.Details, err = unmarshalList(details); err != nil {
		return nil, fmt.Errorf("load operation %s: %w", id, err)
	}
	return &op, nil
}

// ListOperations returns the operation templates of a transaction type
// ordered by id.
func (s *Store) ListOperations(ctx context.Context, typeID string) ([]*entity.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_type, description, details
		FROM operations
		WHERE transaction_type = ?
		ORDER BY id ASC
	`, typeID)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []*entity.Operation
	for rows.Next() {
		var (
			op      entity.Operation
			details string
		)
		if err := rows.Scan(&op.ID, &op.TransactionType, &op.Description, &details); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if op.Details, err = unmarshalList(details); err != nil {
			return nil, fmt.Errorf("scan operation %s: %w", op.ID, err)
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}
