package transactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reckon-io/reckon/internal/entity"
)

func balanceType() *entity.TransactionType {
	return &entity.TransactionType{
		ID:               "test_balance",
		Label:            "Test balance",
		TargetEntityType: "account",
		Transactor:       BalanceID,
		Settings: map[string]string{
			SettingAmount:  "field_amount",
			SettingBalance: "field_balance",
		},
	}
}

func TestNewBalance_RequiredSettings(t *testing.T) {
	_, err := NewBalance(map[string]string{SettingAmount: "field_amount"})
	assert.ErrorContains(t, err, "required setting")

	_, err = NewBalance(map[string]string{SettingBalance: "field_balance"})
	assert.ErrorContains(t, err, "required setting")

	_, err = NewBalance(balanceType().Settings)
	assert.NoError(t, err)
}

func TestBalance_Validate(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	target := &entity.TargetRecord{EntityType: "account", ID: "a"}

	tx := newTx(t, balanceType(), target)
	assert.False(t, b.Validate(tx, nil), "missing amount")

	tx.SetField("field_amount", "not-a-number")
	assert.False(t, b.Validate(tx, nil))

	tx.SetField("field_amount", "-30.50")
	assert.True(t, b.Validate(tx, nil))

	tx.SetField("field_balance", "oops")
	assert.False(t, b.Validate(tx, nil))

	tx.SetField("field_balance", "100.00")
	assert.True(t, b.Validate(tx, nil))
}

func TestBalance_Execute_OpeningBalance(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	// First transaction of the chain: its own balance field is the
	// opening balance.
	tx := newTx(t, balanceType(), &entity.TargetRecord{EntityType: "account", ID: "a"})
	tx.SetField("field_amount", "-30")
	tx.SetField("field_balance", "100")

	code, ok := b.Execute(tx, nil)
	require.True(t, ok)
	assert.Equal(t, entity.ResultOK, code)
	assert.Equal(t, "70", tx.Field("field_balance"))
}

func TestBalance_Execute_NoOpeningBalance(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	tx := newTx(t, balanceType(), &entity.TargetRecord{EntityType: "account", ID: "a"})
	tx.SetField("field_amount", "25.05")

	_, ok := b.Execute(tx, nil)
	require.True(t, ok)
	assert.Equal(t, "25.05", tx.Field("field_balance"))
}

func TestBalance_Execute_ChainsFromPredecessor(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	target := &entity.TargetRecord{EntityType: "account", ID: "a"}

	last := executedTx(t, balanceType(), target, 1)
	last.SetField("field_balance", "70")

	tx := newTx(t, balanceType(), target)
	tx.SetField("field_amount", "20.10")
	// A stale balance on the incoming transaction is ignored once a
	// predecessor exists.
	tx.SetField("field_balance", "9999")

	_, ok := b.Execute(tx, last)
	require.True(t, ok)
	assert.Equal(t, "90.1", tx.Field("field_balance"))
}

func TestBalance_Execute_ExactDecimals(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	target := &entity.TargetRecord{EntityType: "account", ID: "a"}

	// 0.1 + 0.2 drifts under binary floats; decimal arithmetic must not.
	last := executedTx(t, balanceType(), target, 1)
	last.SetField("field_balance", "0.1")

	tx := newTx(t, balanceType(), target)
	tx.SetField("field_amount", "0.2")

	_, ok := b.Execute(tx, last)
	require.True(t, ok)
	assert.Equal(t, "0.3", tx.Field("field_balance"))
}

func TestBalance_Execute_TargetMirror(t *testing.T) {
	typeCfg := balanceType()
	typeCfg.Settings[SettingTargetBalance] = "balance"

	b, err := NewBalance(typeCfg.Settings)
	require.NoError(t, err)

	target := &entity.TargetRecord{EntityType: "account", ID: "a"}
	tx := newTx(t, typeCfg, target)
	tx.SetField("field_amount", "50")
	tx.SetField("field_balance", "100")

	_, ok := b.Execute(tx, nil)
	require.True(t, ok)

	assert.Equal(t, "150", target.Field("balance"))
	assert.Equal(t, "1", tx.Property(entity.PropertyTargetUpdated))
}

func TestBalance_Execute_BadAmount(t *testing.T) {
	b, err := NewBalance(balanceType().Settings)
	require.NoError(t, err)

	tx := newTx(t, balanceType(), &entity.TargetRecord{EntityType: "account", ID: "a"})
	tx.SetField("field_amount", "garbage")

	code, ok := b.Execute(tx, nil)
	assert.False(t, ok)
	assert.Equal(t, entity.ResultError, code)
	assert.Equal(t, entity.ResultError, tx.ResultCode)
}
