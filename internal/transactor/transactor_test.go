package transactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reckon-io/reckon/internal/entity"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("custom", NewGeneric))

	err := r.Register("custom", NewGeneric)
	assert.ErrorContains(t, err, "duplicate transactor id")
}

func TestRegistry_New_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.New("nope", nil)
	assert.ErrorContains(t, err, "unknown transactor id")
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.ElementsMatch(t, []string{GenericID, BalanceID}, r.IDs())

	_, err := r.New(GenericID, nil)
	assert.NoError(t, err)
}

// newTx builds a pending transaction bound to an account target for
// plugin tests.
func newTx(t *testing.T, typeCfg *entity.TransactionType, target *entity.TargetRecord) *entity.Transaction {
	t.Helper()
	tx, err := entity.NewTransaction(typeCfg, target, "admin", time.Unix(1600000000, 0).UTC())
	require.NoError(t, err)
	return tx
}

func executedTx(t *testing.T, typeCfg *entity.TransactionType, target *entity.TargetRecord, id int64) *entity.Transaction {
	t.Helper()
	tx := newTx(t, typeCfg, target)
	tx.ID = id
	tx.SetExecutionMetadata(time.Unix(1700000000, 0).UTC(), "admin")
	tx.ResultCode = entity.ResultOK
	return tx
}
