package store

import (
	"context"
	"testing"
	"time"

	"github.com/reckon-io/reckon/internal/entity"
)

// seedChain persists three executed transactions: two sharing an
// execution timestamp (tie broken by id) and one later.
func seedChain(t *testing.T, s *Store) (first, second, third *entity.Transaction) {
	t.Helper()
	ctx := context.Background()

	first = pendingTx(t, "uuid-1")
	stampExecuted(first, 1700000000)
	if err := s.SaveExecuted(ctx, first, 0); err != nil {
		t.Fatalf("first SaveExecuted() failed: %v", err)
	}

	second = pendingTx(t, "uuid-2")
	stampExecuted(second, 1700000000) // same instant as first
	if err := s.SaveExecuted(ctx, second, first.ID); err != nil {
		t.Fatalf("second SaveExecuted() failed: %v", err)
	}

	third = pendingTx(t, "uuid-3")
	stampExecuted(third, 1700000100)
	if err := s.SaveExecuted(ctx, third, second.ID); err != nil {
		t.Fatalf("third SaveExecuted() failed: %v", err)
	}
	return first, second, third
}

func TestLastExecuted_EmptyChain(t *testing.T) {
	s := newTestStore(t)

	last, err := s.LastExecuted(context.Background(), "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("LastExecuted() failed: %v", err)
	}
	if last != nil {
		t.Errorf("last = %+v, want nil", last)
	}
}

func TestLastExecuted_IgnoresPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pending := pendingTx(t, "uuid-1")
	if err := s.SaveTransaction(ctx, pending); err != nil {
		t.Fatalf("SaveTransaction() failed: %v", err)
	}

	last, err := s.LastExecuted(ctx, "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("LastExecuted() failed: %v", err)
	}
	if last != nil {
		t.Error("pending transactions must not appear in the chain")
	}
}

func TestLastExecuted_TieBrokenByID(t *testing.T) {
	s := newTestStore(t)
	_, second, third := seedChain(t, s)

	last, err := s.LastExecuted(context.Background(), "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("LastExecuted() failed: %v", err)
	}
	if last == nil || last.ID != third.ID {
		t.Fatalf("last = %+v, want id %d", last, third.ID)
	}

	// With the latest removed, the head falls back to the higher id of
	// the two sharing a timestamp.
	if _, err := s.db.Exec("DELETE FROM transactions WHERE id = ?", third.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	last, err = s.LastExecuted(context.Background(), "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("LastExecuted() failed: %v", err)
	}
	if last == nil || last.ID != second.ID {
		t.Fatalf("last = %+v, want id %d", last, second.ID)
	}
}

func TestPreviousExecuted(t *testing.T) {
	s := newTestStore(t)
	first, second, third := seedChain(t, s)
	ctx := context.Background()

	prev, err := s.PreviousExecuted(ctx, third)
	if err != nil {
		t.Fatalf("PreviousExecuted() failed: %v", err)
	}
	if prev == nil || prev.ID != second.ID {
		t.Errorf("previous of third = %+v, want id %d", prev, second.ID)
	}

	// Equal timestamps: the lower id is the predecessor.
	prev, err = s.PreviousExecuted(ctx, second)
	if err != nil {
		t.Fatalf("PreviousExecuted() failed: %v", err)
	}
	if prev == nil || prev.ID != first.ID {
		t.Errorf("previous of second = %+v, want id %d", prev, first.ID)
	}

	prev, err = s.PreviousExecuted(ctx, first)
	if err != nil {
		t.Fatalf("PreviousExecuted() failed: %v", err)
	}
	if prev != nil {
		t.Errorf("previous of first = %+v, want nil", prev)
	}
}

func TestNextExecuted(t *testing.T) {
	s := newTestStore(t)
	first, second, third := seedChain(t, s)
	ctx := context.Background()

	next, err := s.NextExecuted(ctx, first)
	if err != nil {
		t.Fatalf("NextExecuted() failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Errorf("next of first = %+v, want id %d", next, second.ID)
	}

	next, err = s.NextExecuted(ctx, second)
	if err != nil {
		t.Fatalf("NextExecuted() failed: %v", err)
	}
	if next == nil || next.ID != third.ID {
		t.Errorf("next of second = %+v, want id %d", next, third.ID)
	}

	next, err = s.NextExecuted(ctx, third)
	if err != nil {
		t.Fatalf("NextExecuted() failed: %v", err)
	}
	if next != nil {
		t.Errorf("next of third = %+v, want nil", next)
	}
}

func TestPreviousExecuted_PendingInput(t *testing.T) {
	s := newTestStore(t)

	pending := pendingTx(t, "uuid-1")
	if _, err := s.PreviousExecuted(context.Background(), pending); err == nil {
		t.Error("expected error for pending input, got nil")
	}
	if _, err := s.NextExecuted(context.Background(), pending); err == nil {
		t.Error("expected error for pending input, got nil")
	}
}

func TestListExecuted_ChainOrder(t *testing.T) {
	s := newTestStore(t)
	first, second, third := seedChain(t, s)

	chain, err := s.ListExecuted(context.Background(), "test_generic", "account", "alice")
	if err != nil {
		t.Fatalf("ListExecuted() failed: %v", err)
	}
	want := []int64{first.ID, second.ID, third.ID}
	if len(chain) != len(want) {
		t.Fatalf("chain length = %d, want %d", len(chain), len(want))
	}
	for i, tx := range chain {
		if tx.ID != want[i] {
			t.Errorf("chain[%d].ID = %d, want %d", i, tx.ID, want[i])
		}
	}
}

func TestChains_IsolatedByTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedChain(t, s)

	// A different target of the same type has its own chain.
	other, err := entity.NewTransaction(
		&entity.TransactionType{ID: "test_generic", TargetEntityType: "account"},
		&entity.TargetRecord{EntityType: "account", ID: "bob"},
		"admin",
		time.Unix(1600000000, 0).UTC(),
	)
	if err != nil {
		t.Fatalf("NewTransaction() failed: %v", err)
	}
	other.UUID = "uuid-bob"
	stampExecuted(other, 1700000050)
	if err := s.SaveExecuted(ctx, other, 0); err != nil {
		t.Fatalf("SaveExecuted() failed: %v", err)
	}

	chain, err := s.ListExecuted(ctx, "test_generic", "account", "bob")
	if err != nil {
		t.Fatalf("ListExecuted() failed: %v", err)
	}
	if len(chain) != 1 || chain[0].ID != other.ID {
		t.Errorf("bob's chain = %d entries, want exactly the one transaction", len(chain))
	}
}
