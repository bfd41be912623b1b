package transactor

import (
	"fmt"

	"github.com/reckon-io/reckon/internal/entity"
)

// GenericID is the plugin id of the generic transactor.
const GenericID = "generic"

// Logical setting names shared by the built-in plugins. A transaction
// type's settings map binds these to concrete field names.
const (
	// SettingLogMessage names a transaction text field rendered as the
	// first detail line.
	SettingLogMessage = "log_message"

	// SettingLastTransaction names a target field that receives a
	// reference to the last executed transaction at save time.
	SettingLastTransaction = "last_transaction"
)

// Generic is the minimal transactor: validation always succeeds,
// execution always succeeds with the generic OK code, and descriptions
// follow the "Transaction {id} (pending|executed)" form.
//
// Other plugins embed Generic and override the steps they specialize.
type Generic struct {
	settings map[string]string
}

// NewGeneric is the Factory for the generic transactor. It has no
// required settings.
func NewGeneric(settings map[string]string) (Transactor, error) {
	return &Generic{settings: settings}, nil
}

// Setting returns a settings value, "" if unset.
func (g *Generic) Setting(name string) string {
	if g.settings == nil {
		return ""
	}
	return g.settings[name]
}

// Validate implements Transactor. Always true.
func (g *Generic) Validate(tx, lastExecuted *entity.Transaction) bool {
	return true
}

// Execute implements Transactor. Marks the target for the
// last-transaction reference update when configured, and succeeds with
// the generic OK code.
func (g *Generic) Execute(tx, lastExecuted *entity.Transaction) (int, bool) {
	if field := g.Setting(SettingLastTransaction); field != "" && tx.Target() != nil {
		// The reference value is the transaction id, which may not exist
		// yet; the store fills it in at save time.
		tx.SetProperty(entity.PropertyLastTransactionField, field)
		tx.SetProperty(entity.PropertyTargetUpdated, "1")
	}
	return entity.ResultOK, true
}

// Description implements Transactor.
func (g *Generic) Description(tx *entity.Transaction) string {
	switch {
	case tx.ID == 0:
		return entity.UnsavedDescription
	case tx.IsPending():
		return fmt.Sprintf("Transaction %d (pending)", tx.ID)
	default:
		return fmt.Sprintf("Transaction %d", tx.ID)
	}
}

// Details implements Transactor. The configured log message field, when
// set on the transaction, is the single default detail line.
func (g *Generic) Details(tx *entity.Transaction) []string {
	if field := g.Setting(SettingLogMessage); field != "" {
		if msg := tx.Field(field); msg != "" {
			return []string{msg}
		}
	}
	return nil
}

// ResultMessage implements Transactor.
func (g *Generic) ResultMessage(tx *entity.Transaction) string {
	if tx.ResultCode >= entity.ResultOK {
		return "Transaction executed successfully."
	}
	return "Transaction execution failed."
}
