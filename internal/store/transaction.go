package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/reckon-io/reckon/internal/entity"
)

const transactionColumns = `id, uuid, type, target_type, target_id, operation, uid,
	created, executed, executor, result_code, properties, fields`

// SaveTransaction persists a pending transaction: inserts when the
// transaction has no id yet (assigning one), updates otherwise.
//
// Executed transactions are only ever written through SaveExecuted,
// which verifies the chain head first. A transaction carrying execution
// metadata is rejected with ErrImmutable whether or not it has a row
// yet, and so is a rewrite of a row that is executed durably.
func (s *Store) SaveTransaction(ctx context.Context, tx *entity.Transaction) error {
	if !tx.IsPending() {
		return fmt.Errorf("save transaction: %w", ErrImmutable)
	}

	if tx.ID == 0 {
		id, err := s.insertTransaction(ctx, s.db, tx)
		if err != nil {
			return err
		}
		tx.ID = id
		return nil
	}

	var executed sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT executed FROM transactions WHERE id = ?`, tx.ID).Scan(&executed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("save transaction %d: %w", tx.ID, ErrNotFound)
	case err != nil:
		return fmt.Errorf("save transaction %d: %w", tx.ID, err)
	case executed.Valid:
		return fmt.Errorf("save transaction %d: %w", tx.ID, ErrImmutable)
	}

	return s.updateTransaction(ctx, s.db, tx)
}

// execer abstracts *sql.DB and *sql.Tx for the write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertTransaction(ctx context.Context, db execer, tx *entity.Transaction) (int64, error) {
	props, err := marshalMap(tx.Properties)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	fields, err := marshalMap(tx.Fields)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	result, err := db.ExecContext(ctx, `
		INSERT INTO transactions
		(uuid, type, target_type, target_id, operation, uid, created, executed, executor, result_code, properties, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.UUID,
		tx.Type,
		tx.TargetType,
		tx.TargetID,
		tx.Operation,
		tx.OwnerID,
		tx.Created.Unix(),
		executedArg(tx),
		executorArg(tx),
		tx.ResultCode,
		props,
		fields,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction: last insert id: %w", err)
	}
	return id, nil
}

func (s *Store) updateTransaction(ctx context.Context, db execer, tx *entity.Transaction) error {
	props, err := marshalMap(tx.Properties)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	fields, err := marshalMap(tx.Fields)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		UPDATE transactions
		SET operation = ?, uid = ?, created = ?, executed = ?, executor = ?,
		    result_code = ?, properties = ?, fields = ?
		WHERE id = ?
	`,
		tx.Operation,
		tx.OwnerID,
		tx.Created.Unix(),
		executedArg(tx),
		executorArg(tx),
		tx.ResultCode,
		props,
		fields,
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	return nil
}

// SaveExecuted persists an executed transaction and its mutated target
// record in one storage transaction, after re-verifying the chain head.
//
// predecessorID is the id of the last executed transaction of the same
// (type, target) observed at chain-resolution time, 0 when the chain was
// empty. If another writer advanced the chain head in the meantime, the
// save fails with ErrChainConflict and nothing is written: the caller
// must retry the full validate/execute sequence.
//
// When the transaction carries the target-updated property and a target
// record is attached, the target row is written in the same storage
// transaction. A configured last-transaction field receives the
// transaction id once assigned.
func (s *Store) SaveExecuted(ctx context.Context, tx *entity.Transaction, predecessorID int64) error {
	if tx.IsPending() {
		return fmt.Errorf("save executed: transaction is pending")
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save executed: begin tx: %w", err)
	}
	defer dbTx.Rollback() // No-op if committed

	// Optimistic chain check: the head must still be the predecessor we
	// executed against.
	var headID int64
	err = dbTx.QueryRowContext(ctx, `
		SELECT id FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ? AND executed IS NOT NULL
		ORDER BY executed DESC, id DESC
		LIMIT 1
	`, tx.Type, tx.TargetType, tx.TargetID).Scan(&headID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		headID = 0
	case err != nil:
		return fmt.Errorf("save executed: chain head: %w", err)
	}
	if headID != predecessorID {
		return fmt.Errorf("save executed: head moved from %d to %d: %w", predecessorID, headID, ErrChainConflict)
	}

	// The last-transaction reference needs the row id, so resolve it
	// before writing the target fields.
	if tx.ID == 0 {
		id, err := s.insertTransaction(ctx, dbTx, tx)
		if err != nil {
			return err
		}
		tx.ID = id
	} else {
		if err := s.updateTransaction(ctx, dbTx, tx); err != nil {
			return err
		}
	}

	if tx.Property(entity.PropertyTargetUpdated) != "" {
		target := tx.Target()
		if target == nil {
			return fmt.Errorf("save executed %d: target marked updated but not attached", tx.ID)
		}
		if field := tx.Property(entity.PropertyLastTransactionField); field != "" {
			target.SetField(field, strconv.FormatInt(tx.ID, 10))
		}
		if err := upsertTarget(ctx, dbTx, target); err != nil {
			return fmt.Errorf("save executed %d: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("save executed %d: commit: %w", tx.ID, err)
	}
	return nil
}

// LoadTransaction retrieves a transaction by id.
// Returns ErrNotFound if no row matches. The returned transaction has no
// type configuration, target, operation or handler attached; the engine
// attaches those on load.
func (s *Store) LoadTransaction(ctx context.Context, id int64) (*entity.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?
	`, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	return tx, err
}

// ListTransactions returns all transactions for a (type, target) pair,
// pending and executed, in creation order (id ascending).
func (s *Store) ListTransactions(ctx context.Context, typeID, targetType, targetID string) ([]*entity.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE type = ? AND target_type = ? AND target_id = ?
		ORDER BY id ASC
	`, typeID, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
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
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*entity.Transaction, error) {
	var (
		tx       entity.Transaction
		created  int64
		executed sql.NullInt64
		executor sql.NullString
		props    string
		fields   string
	)

	if err := row.Scan(
		&tx.ID, &tx.UUID, &tx.Type, &tx.TargetType, &tx.TargetID, &tx.Operation,
		&tx.OwnerID, &created, &executed, &executor, &tx.ResultCode, &props, &fields,
	); err != nil {
		return nil, err
	}

	tx.Created = time.Unix(created, 0).UTC()
	if executed.Valid {
		t := time.Unix(executed.Int64, 0).UTC()
		tx.Executed = &t
	}
	if executor.Valid {
		tx.ExecutorID = executor.String
	}

	var err error
	if tx.Properties, err = unmarshalMap(props); err != nil {
		return nil, fmt.Errorf("scan transaction %d: %w", tx.ID, err)
	}
	if tx.Fields, err = unmarshalMap(fields); err != nil {
		return nil, fmt.Errorf("scan transaction %d: %w", tx.ID, err)
	}

	return &tx, nil
}

func executedArg(tx *entity.Transaction) any {
	if tx.Executed == nil {
		return nil
	}
	return tx.Executed.Unix()
}

func executorArg(tx *entity.Transaction) any {
	if tx.ExecutorID == "" {
		return nil
	}
	return tx.ExecutorID
}
