package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reckon-io/reckon/internal/entity"
)

// SaveTarget inserts or replaces a target record.
func (s *Store) SaveTarget(ctx context.Context, target *entity.TargetRecord) error {
	if err := upsertTarget(ctx, s.db, target); err != nil {
		return fmt.Errorf("save target %s/%s: %w", target.EntityType, target.ID, err)
	}
	return nil
}

// upsertTarget writes a target row through db or an open transaction.
// SaveExecuted uses it to persist mutated targets in the same storage
// transaction as the executed transaction.
func upsertTarget(ctx context.Context, db execer, target *entity.TargetRecord) error {
	fields, err := marshalMap(target.Fields)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO target_records (entity_type, id, bundle, name, fields)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, id) DO UPDATE SET
			bundle = excluded.bundle,
			name = excluded.name,
			fields = excluded.fields
	`, target.EntityType, target.ID, target.Bundle, target.Name, fields)
	return err
}

// LoadTarget retrieves a target record by (entity type, id).
// Returns ErrNotFound if no row matches.
func (s *Store) LoadTarget(ctx context.Context, entityType, id string) (*entity.TargetRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT entity_type, id, bundle, name, fields
		FROM target_records
		WHERE entity_type = ? AND id = ?
	`, entityType, id)

	var (
		target entity.TargetRecord
		fields string
	)
	err := row.Scan(&target.EntityType, &target.ID, &target.Bundle, &target.Name, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("target %s/%s: %w", entityType, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load target %s/%s: %w", entityType, id, err)
	}

	if target.Fields, err = unmarshalMap(fields); err != nil {
		return nil, fmt.Errorf("load target %s/%s: %w", entityType, id, err)
	}
	return &target, nil
}
