package transactor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/reckon-io/reckon/internal/entity"
)

// BalanceID is the plugin id of the balance transactor.
const BalanceID = "balance"

// Balance-specific setting names.
const (
	// SettingAmount names the transaction decimal field holding the
	// amount. Required.
	SettingAmount = "amount"

	// SettingBalance names the transaction decimal field holding the
	// running balance after this transaction. Required.
	SettingBalance = "balance"

	// SettingTargetBalance names a target decimal field mirroring the
	// current balance. Optional.
	SettingTargetBalance = "target_balance"
)

// Balance is the transactor for accounting-style transactions. It chains
// a strict running total: each executed transaction's balance is the
// predecessor's balance plus this transaction's amount, computed with
// exact decimal arithmetic so long chains accumulate no drift.
//
// The first transaction of a chain has no predecessor; the balance value
// already present on the incoming transaction is the opening balance.
type Balance struct {
	*Generic
}

// NewBalance is the Factory for the balance transactor. The amount and
// balance field settings are required.
func NewBalance(settings map[string]string) (Transactor, error) {
	for _, required := range []string{SettingAmount, SettingBalance} {
		if settings[required] == "" {
			return nil, fmt.Errorf("balance transactor: required setting %q missing", required)
		}
	}
	return &Balance{Generic: &Generic{settings: settings}}, nil
}

// Validate implements Transactor. The amount field must hold a parseable
// decimal, and the balance field, when set, must too.
func (b *Balance) Validate(tx, lastExecuted *entity.Transaction) bool {
	if !b.Generic.Validate(tx, lastExecuted) {
		return false
	}
	if _, err := decimal.NewFromString(tx.Field(b.Setting(SettingAmount))); err != nil {
		return false
	}
	if v := tx.Field(b.Setting(SettingBalance)); v != "" {
		if _, err := decimal.NewFromString(v); err != nil {
			return false
		}
	}
	return true
}

// Execute implements Transactor.
//
// newBalance = priorBalance + amount, where priorBalance comes from the
// last executed transaction of the same (type, target), or from the
// incoming transaction's own balance field when there is none. The
// result is written to the transaction's balance field and, when the
// type configures a target balance field, mirrored onto the target.
func (b *Balance) Execute(tx, lastExecuted *entity.Transaction) (int, bool) {
	if code, ok := b.Generic.Execute(tx, lastExecuted); !ok {
		return code, false
	}

	balanceField := b.Setting(SettingBalance)

	prior, err := b.priorBalance(tx, lastExecuted, balanceField)
	if err != nil {
		tx.ResultCode = entity.ResultError
		return entity.ResultError, false
	}

	amount, err := decimal.NewFromString(tx.Field(b.Setting(SettingAmount)))
	if err != nil {
		tx.ResultCode = entity.ResultError
		return entity.ResultError, false
	}

	result := prior.Add(amount)
	tx.SetField(balanceField, result.String())

	// Reflect the balance on the target record.
	if targetField := b.Setting(SettingTargetBalance); targetField != "" && tx.Target() != nil {
		tx.Target().SetField(targetField, result.String())
		tx.SetProperty(entity.PropertyTargetUpdated, "1")
	}

	return entity.ResultOK, true
}

// priorBalance resolves the balance to accumulate onto: the chain
// predecessor's balance, or the incoming transaction's opening balance,
// or zero when neither is set.
func (b *Balance) priorBalance(tx, lastExecuted *entity.Transaction, balanceField string) (decimal.Decimal, error) {
	var raw string
	if lastExecuted != nil {
		raw = lastExecuted.Field(balanceField)
	} else {
		raw = tx.Field(balanceField)
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
