package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reckon-io/reckon/internal/entity"
)

// Chain resolution. The chain of a (type, target) pair is the sequence
// of its executed transactions ordered by (executed, id). Execution
// timestamps have second-level granularity, so equal timestamps are
// routine; the id component breaks ties, highest id (most recently
// created) winning head position.

// LastExecuted returns the chain head for a (type, target) pair: the
// executed transaction with the greatest execution timestamp, ties
// broken by highest id. Nil if the chain is empty.
func (s *Store) LastExecuted(ctx context.Context, typeID, targetType, targetID string) (*entity.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ? AND executed IS NOT NULL
		ORDER BY executed DESC, id DESC
		LIMIT 1
	`, typeID, targetType, targetID)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last executed: %w", err)
	}
	return tx, nil
}

// PreviousExecuted returns the executed transaction of the same chain
// immediately before the given position, nil if the position is the
// chain's first. The position is a (executed, id) pair so transactions
// sharing an execution timestamp keep consistent neighbor relations.
func (s *Store) PreviousExecuted(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	if tx.Executed == nil {
		return nil, fmt.Errorf("previous executed: transaction %d is pending", tx.ID)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ? AND executed IS NOT NULL
		  AND (executed < ? OR (executed = ? AND id < ?))
		ORDER BY executed DESC, id DESC
		LIMIT 1
	`, tx.Type, tx.TargetType, tx.TargetID, tx.Executed.Unix(), tx.Executed.Unix(), tx.ID)

	prev, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous executed: %w", err)
	}
	return prev, nil
}

// NextExecuted returns the executed transaction of the same chain
// immediately after the given position, nil if the position is the
// chain's last. Symmetric to PreviousExecuted.
func (s *Store) NextExecuted(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	if tx.Executed == nil {
		return nil, fmt.Errorf("next executed: transaction %d is pending", tx.ID)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ? AND executed IS NOT NULL
		  AND (executed > ? OR (executed = ? AND id > ?))
		ORDER BY executed ASC, id ASC
		LIMIT 1
	`, tx.Type, tx.TargetType, tx.TargetID, tx.Executed.Unix(), tx.Executed.Unix(), tx.ID)

	next, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next executed: %w", err)
	}
	return next, nil
}

// ListExecuted returns the full chain for a (type, target) pair in chain
// order (oldest first).
func (s *Store) ListExecuted(ctx context.Context, typeID, targetType, targetID string) ([]*entity.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ? AND executed IS NOT NULL
		ORDER BY executed ASC, id ASC
	`, typeID, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("list executed: %w", err)
	}
	defer rows.Close()

	var txs []*entity.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executed: %w", err)
	}
	return txs, nil
}
