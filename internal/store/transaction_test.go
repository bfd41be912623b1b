package store

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/reckon-io/reckon/internal/entity"
)

func TestSaveTransaction_InsertAssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := pendingTx(t, "uuid-1")
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("SaveTransaction() failed: %v", err)
	}
	if tx.ID == 0 {
		t.Error("insert did not assign an id")
	}

	loaded, err := s.LoadTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("LoadTransaction() failed: %v", err)
	}
	if loaded.UUID != "uuid-1" {
		t.Errorf("uuid = %q, want uuid-1", loaded.UUID)
	}
	if !loaded.IsPending() {
		t.Error("loaded transaction should be pending")
	}
	if loaded.Created.Unix() != 1600000000 {
		t.Errorf("created = %d, want 1600000000", loaded.Created.Unix())
	}
}

func TestSaveTransaction_UpdatePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := pendingTx(t, "uuid-1")
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	tx.SetField("field_log", "second save")
	if err := s.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	loaded, err := s.LoadTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("LoadTransaction() failed: %v", err)
	}
	if loaded.Field("field_log") != "second save" {
		t.Errorf("field_log = %q, want %q", loaded.Field("field_log"), "second save")
	}
}

func TestSaveTransaction_ExecutedIsImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := pendingTx(t, "uuid-1")
	stampExecuted(tx, 1700000000)
	if err := s.SaveExecuted(ctx, tx, 0); err != nil {
		t.Fatalf("SaveExecuted() failed: %v", err)
	}

	err := s.SaveTransaction(ctx, tx)
	if !errors.Is(err, ErrImmutable) {
		t.Errorf("rewriting an executed row: err = %v, want ErrImmutable", err)
	}

	// Clearing the in-memory metadata does not reopen the durable row.
	tx.ClearExecutionMetadata()
	err = s.SaveTransaction(ctx, tx)
	if !errors.Is(err, ErrImmutable) {
		t.Errorf("rewriting after clearing metadata: err = %v, want ErrImmutable", err)
	}
}

func TestSaveTransaction_RejectsExecutedInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	winner := pendingTx(t, "uuid-1")
	stampExecuted(winner, 1700000000)
	if err := s.SaveExecuted(ctx, winner, 0); err != nil {
		t.Fatalf("winner SaveExecuted() failed: %v", err)
	}

	// A rival stamped against the empty chain loses the head check and
	// must not reach the store through the pending-save path either.
	rival := pendingTx(t, "uuid-2")
	stampExecuted(rival, 1700000000)
	if err := s.SaveExecuted(ctx, rival, 0); !errors.Is(err, ErrChainConflict) {
		t.Fatalf("rival SaveExecuted(): err = %v, want ErrChainConflict", err)
	}

	if err := s.SaveTransaction(ctx, rival); !errors.Is(err, ErrImmutable) {
		t.Errorf("rival SaveTransaction(): err = %v, want ErrImmutable", err)
	}
	if rival.ID != 0 {
		t.Errorf("rival id = %d, want 0 (nothing written)", rival.ID)
	}

	chain, err := s.ListExecuted(ctx, "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("ListExecuted() failed: %v", err)
	}
	if len(chain) != 1 {
		t.Errorf("chain length = %d, want 1", len(chain))
	}
}

func TestSaveTransaction_UpdateMissingRow(t *testing.T) {
	s := newTestStore(t)

	tx := pendingTx(t, "uuid-1")
	tx.ID = 42
	err := s.SaveTransaction(context.Background(), tx)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadTransaction_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadTransaction(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveExecuted_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx := pendingTx(t, "uuid-1")
	tx.SetProperty("note", "kept")
	stampExecuted(tx, 1700000000)

	if err := s.SaveExecuted(ctx, tx, 0); err != nil {
		t.Fatalf("SaveExecuted() failed: %v", err)
	}

	loaded, err := s.LoadTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("LoadTransaction() failed: %v", err)
	}
	if loaded.IsPending() {
		t.Fatal("loaded transaction should be executed")
	}
	if loaded.Executed.Unix() != 1700000000 {
		t.Errorf("executed = %d, want 1700000000", loaded.Executed.Unix())
	}
	if loaded.ExecutorID != "admin" {
		t.Errorf("executor = %q, want admin", loaded.ExecutorID)
	}
	if loaded.ResultCode != entity.ResultOK {
		t.Errorf("result_code = %d, want %d", loaded.ResultCode, entity.ResultOK)
	}
	if loaded.Property("note") != "kept" {
		t.Errorf("property note = %q, want kept", loaded.Property("note"))
	}
}

func TestSaveExecuted_RejectsPending(t *testing.T) {
	s := newTestStore(t)

	tx := pendingTx(t, "uuid-1")
	if err := s.SaveExecuted(context.Background(), tx, 0); err == nil {
		t.Error("expected error for pending transaction, got nil")
	}
}

func TestSaveExecuted_ChainConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Both writers resolved an empty chain (predecessor 0).
	winner := pendingTx(t, "uuid-1")
	stampExecuted(winner, 1700000000)
	if err := s.SaveExecuted(ctx, winner, 0); err != nil {
		t.Fatalf("winner SaveExecuted() failed: %v", err)
	}

	loser := pendingTx(t, "uuid-2")
	stampExecuted(loser, 1700000000)
	err := s.SaveExecuted(ctx, loser, 0)
	if !errors.Is(err, ErrChainConflict) {
		t.Fatalf("err = %v, want ErrChainConflict", err)
	}

	// Nothing of the loser was written.
	chain, err := s.ListExecuted(ctx, "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("ListExecuted() failed: %v", err)
	}
	if len(chain) != 1 {
		t.Errorf("chain length = %d, want 1", len(chain))
	}
}

func TestSaveExecuted_StalePredecessor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := pendingTx(t, "uuid-1")
	stampExecuted(first, 1700000000)
	if err := s.SaveExecuted(ctx, first, 0); err != nil {
		t.Fatalf("first SaveExecuted() failed: %v", err)
	}

	second := pendingTx(t, "uuid-2")
	stampExecuted(second, 1700000100)
	if err := s.SaveExecuted(ctx, second, first.ID); err != nil {
		t.Fatalf("second SaveExecuted() failed: %v", err)
	}

	// A writer that still believes first is the head loses.
	stale := pendingTx(t, "uuid-3")
	stampExecuted(stale, 1700000200)
	if err := s.SaveExecuted(ctx, stale, first.ID); !errors.Is(err, ErrChainConflict) {
		t.Errorf("err = %v, want ErrChainConflict", err)
	}
}

func TestSaveExecuted_WritesTargetAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	target := &entity.TargetRecord{EntityType: "account", ID: "alice", Name: "Alice"}
	if err := s.SaveTarget(ctx, target); err != nil {
		t.Fatalf("SaveTarget() failed: %v", err)
	}

	tx := pendingTx(t, "uuid-1")
	if err := tx.AttachTarget(target); err != nil {
		t.Fatalf("AttachTarget() failed: %v", err)
	}
	target.SetField("balance", "70")
	tx.SetProperty(entity.PropertyTargetUpdated, "1")
	tx.SetProperty(entity.PropertyLastTransactionField, "last_tx")
	stampExecuted(tx, 1700000000)

	if err := s.SaveExecuted(ctx, tx, 0); err != nil {
		t.Fatalf("SaveExecuted() failed: %v", err)
	}

	loaded, err := s.LoadTarget(ctx, "account", "alice")
	if err != nil {
		t.Fatalf("LoadTarget() failed: %v", err)
	}
	if loaded.Field("balance") != "70" {
		t.Errorf("balance = %q, want 70", loaded.Field("balance"))
	}
	// The last-transaction reference is filled with the assigned id.
	if want := strconv.FormatInt(tx.ID, 10); loaded.Field("last_tx") != want {
		t.Errorf("last_tx = %q, want %q", loaded.Field("last_tx"), want)
	}
}

func TestListTransactions_IncludesPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	executed := pendingTx(t, "uuid-1")
	stampExecuted(executed, 1700000000)
	if err := s.SaveExecuted(ctx, executed, 0); err != nil {
		t.Fatalf("SaveExecuted() failed: %v", err)
	}

	pending := pendingTx(t, "uuid-2")
	if err := s.SaveTransaction(ctx, pending); err != nil {
		t.Fatalf("SaveTransaction() failed: %v", err)
	}

	all, err := s.ListTransactions(ctx, "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("ListTransactions() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID != executed.ID || all[1].ID != pending.ID {
		t.Error("expected creation order (id ascending)")
	}
}
