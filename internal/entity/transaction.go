package entity

import (
	"context"
	"time"
)

// Generic result codes. Transactor plugins may use codes beyond +-1:
// any code >= 1 is the success family, any code <= -1 the failure family.
// 0 means "not yet executed".
const (
	ResultOK    = 1
	ResultError = -1
)

// Well-known property keys managed by transactor plugins.
const (
	// PropertyTargetUpdated marks that the target record was mutated
	// during execution and must be persisted along with the transaction.
	PropertyTargetUpdated = "target_entity_updated"

	// PropertyLastTransactionField names the target field that receives a
	// reference to the last executed transaction at save time. Set by
	// plugins whose type settings configure a last-transaction field.
	PropertyLastTransactionField = "last_transaction_field"
)

// AnonymousUser is the executor recorded when no acting principal and no
// explicit override is available.
const AnonymousUser = "anonymous"

// UnsavedDescription is the description label used before the
// transaction has been persisted and assigned an id.
const UnsavedDescription = "Unsaved transaction (pending)"

// TransactorHandler is the capability set a Transaction delegates to for
// everything that needs the bound transactor plugin or the store:
// composing text, resolving chain neighbors, and executing.
//
// Implemented by engine.Handler. The entity package defines the
// interface so transactions stay free of storage concerns.
type TransactorHandler interface {
	// ComposeDescription renders the transaction description, using the
	// attached operation template when set, else the transactor default.
	ComposeDescription(tx *Transaction) (string, error)

	// ComposeDetails renders the detail lines: transactor details first,
	// then operation detail templates when an operation is attached.
	ComposeDetails(tx *Transaction) ([]string, error)

	// ComposeResultMessage maps the recorded result code to text.
	// Returns InvalidStateError if the transaction is pending.
	ComposeResultMessage(tx *Transaction) (string, error)

	// PreviousTransaction resolves the executed transaction of the same
	// (type, target) immediately before this one in chain order.
	// Nil if this is the first.
	PreviousTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)

	// NextTransaction resolves the executed transaction of the same
	// (type, target) immediately after this one. Nil if this is the last.
	NextTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)

	// DoExecute drives the pending -> executed transition. See the
	// engine package for the algorithm.
	DoExecute(ctx context.Context, tx *Transaction, save bool, executor string) (int, error)
}

// Transaction is a discrete, immutable-once-executed record of a
// business event against a target record.
//
// INVARIANTS:
//   - Executed and ExecutorID are both unset, or both set.
//   - ResultCode is 0 while pending, non-zero once executed.
//   - Executed transactions never change their execution fields again.
type Transaction struct {
	// ID is the storage identity, 0 until saved.
	ID int64

	// UUID is assigned at creation and stable across saves.
	UUID string

	// Type is the transaction type id (bundle discriminator).
	Type string

	// TargetType and TargetID reference the target record.
	TargetType string
	TargetID   string

	// Operation is the operation code, optionally resolving to an
	// Operation template of the same id.
	Operation string

	// OwnerID is the authoring user.
	OwnerID string

	// Created is the creation time, always set.
	Created time.Time

	// Executed is nil while pending. Its nil-ness IS the state
	// discriminator.
	Executed *time.Time

	// ExecutorID is empty while pending.
	ExecutorID string

	// ResultCode is 0 while pending; >= 1 success, <= -1 failure.
	ResultCode int

	// Properties is an open string-keyed map managed by the transactor.
	Properties map[string]string

	// Fields holds the plugin-owned custom fields (amount, balance, log
	// message, ...) keyed by the concrete field names from the type
	// settings. Decimal values are exact decimal strings.
	Fields map[string]string

	typeCfg   *TransactionType
	target    *TargetRecord
	operation *Operation
	handler   TransactorHandler

	// Lazily computed caches. Explicit cells rather than magic getters:
	// composed on first read, recomputable with reset.
	description   string
	details       []string
	resultMessage string
	haveDesc      bool
	haveDetails   bool
	haveResultMsg bool
}

// NewTransaction creates a pending transaction of the given type against
// a target record. The target's entity type must match the type's
// configured target entity type, and its bundle must be accepted;
// mismatches fail here, at assignment time.
func NewTransaction(typeCfg *TransactionType, target *TargetRecord, owner string, created time.Time) (*Transaction, error) {
	tx := &Transaction{
		Type:    typeCfg.ID,
		OwnerID: owner,
		Created: created,
		typeCfg: typeCfg,
	}
	if err := tx.AttachTarget(target); err != nil {
		return nil, err
	}
	return tx, nil
}

// IsPending reports whether the transaction is pending execution.
func (t *Transaction) IsPending() bool {
	return t.Executed == nil
}

// SetExecutionMetadata stamps the execution fields together, preserving
// the both-or-neither invariant.
func (t *Transaction) SetExecutionMetadata(at time.Time, executor string) {
	t.Executed = &at
	t.ExecutorID = executor
}

// ClearExecutionMetadata reverts a stamp that never became durable (e.g.
// the optimistic save lost the chain race). The transaction returns to
// pending and all caches are invalidated.
func (t *Transaction) ClearExecutionMetadata() {
	t.Executed = nil
	t.ExecutorID = ""
	t.ResultCode = 0
	t.InvalidateCaches()
}

// Property returns a property value, "" if unset.
func (t *Transaction) Property(key string) string {
	if t.Properties == nil {
		return ""
	}
	return t.Properties[key]
}

// SetProperty sets a property value.
func (t *Transaction) SetProperty(key, value string) {
	if t.Properties == nil {
		t.Properties = make(map[string]string)
	}
	t.Properties[key] = value
}

// DeleteProperty removes a property key.
func (t *Transaction) DeleteProperty(key string) {
	delete(t.Properties, key)
}

// Field returns a plugin-owned field value, "" if unset.
func (t *Transaction) Field(name string) string {
	if t.Fields == nil {
		return ""
	}
	return t.Fields[name]
}

// SetField sets a plugin-owned field value.
func (t *Transaction) SetField(name, value string) {
	if t.Fields == nil {
		t.Fields = make(map[string]string)
	}
	t.Fields[name] = value
}

// TypeConfig returns the attached type configuration, nil if detached.
func (t *Transaction) TypeConfig() *TransactionType {
	return t.typeCfg
}

// AttachType binds the type configuration. The store returns raw rows;
// the handler attaches configuration on load.
func (t *Transaction) AttachType(typeCfg *TransactionType) {
	t.typeCfg = typeCfg
}

// Target returns the attached target record, nil if not attached.
func (t *Transaction) Target() *TargetRecord {
	return t.target
}

// AttachTarget binds the target record, failing fast on an entity type
// or bundle the transaction type does not accept.
func (t *Transaction) AttachTarget(target *TargetRecord) error {
	if t.typeCfg != nil {
		if target.EntityType != t.typeCfg.TargetEntityType {
			return &TargetMismatchError{Expected: t.typeCfg.TargetEntityType, Got: target.EntityType}
		}
		if !t.typeCfg.AcceptsBundle(target.Bundle) {
			return &TargetMismatchError{Expected: t.typeCfg.TargetEntityType, Got: target.EntityType + ":" + target.Bundle}
		}
	}
	t.target = target
	t.TargetType = target.EntityType
	t.TargetID = target.ID
	return nil
}

// OperationTemplate returns the attached operation, nil if none.
func (t *Transaction) OperationTemplate() *Operation {
	return t.operation
}

// AttachOperation binds an operation template and sets the operation
// code. The operation must belong to the transaction's type. Passing nil
// clears the operation.
func (t *Transaction) AttachOperation(op *Operation) error {
	if op == nil {
		t.operation = nil
		t.Operation = ""
		return nil
	}
	if op.TransactionType != t.Type {
		return ErrOperationMismatch
	}
	t.operation = op
	t.Operation = op.ID
	return nil
}

// AttachHandler binds the transactor handler the transaction delegates
// to. Attached by the engine on creation and on load.
func (t *Transaction) AttachHandler(h TransactorHandler) {
	t.handler = h
}

// Description returns the cached description, composing it through the
// bound transactor on first read or when reset is true. Tolerates being
// called before the transaction is persisted.
func (t *Transaction) Description(reset bool) (string, error) {
	if t.haveDesc && !reset {
		return t.description, nil
	}
	if t.handler == nil {
		return "", ErrNoHandler
	}
	desc, err := t.handler.ComposeDescription(t)
	if err != nil {
		return "", err
	}
	t.description = desc
	t.haveDesc = true
	return desc, nil
}

// Details returns the cached detail lines, composing them on first read
// or when reset is true.
func (t *Transaction) Details(reset bool) ([]string, error) {
	if t.haveDetails && !reset {
		return t.details, nil
	}
	if t.handler == nil {
		return nil, ErrNoHandler
	}
	details, err := t.handler.ComposeDetails(t)
	if err != nil {
		return nil, err
	}
	t.details = details
	t.haveDetails = true
	return details, nil
}

// ResultMessage returns the execution result message. While pending it
// returns "" without error; requesting a recompose (reset) on a pending
// transaction is an InvalidStateError.
func (t *Transaction) ResultMessage(reset bool) (string, error) {
	if t.IsPending() {
		if reset {
			return "", &InvalidStateError{Op: "compose the result message of", TransactionID: t.ID, Pending: true}
		}
		return "", nil
	}
	if t.haveResultMsg && !reset {
		return t.resultMessage, nil
	}
	if t.handler == nil {
		return "", ErrNoHandler
	}
	msg, err := t.handler.ComposeResultMessage(t)
	if err != nil {
		return "", err
	}
	t.resultMessage = msg
	t.haveResultMsg = true
	return msg, nil
}

// InvalidateCaches drops the computed description, details and result
// message so the next read recomposes them. Called after execution.
func (t *Transaction) InvalidateCaches() {
	t.haveDesc = false
	t.haveDetails = false
	t.haveResultMsg = false
	t.description = ""
	t.details = nil
	t.resultMessage = ""
}

// Previous resolves the chain predecessor. Chain relations are undefined
// for a pending transaction: calling this while pending is an
// InvalidStateError, not an empty result.
func (t *Transaction) Previous(ctx context.Context) (*Transaction, error) {
	if t.IsPending() {
		return nil, &InvalidStateError{Op: "resolve the previous transaction of", TransactionID: t.ID, Pending: true}
	}
	if t.handler == nil {
		return nil, ErrNoHandler
	}
	return t.handler.PreviousTransaction(ctx, t)
}

// Next resolves the chain successor. Same state guard as Previous.
func (t *Transaction) Next(ctx context.Context) (*Transaction, error) {
	if t.IsPending() {
		return nil, &InvalidStateError{Op: "resolve the next transaction of", TransactionID: t.ID, Pending: true}
	}
	if t.handler == nil {
		return nil, ErrNoHandler
	}
	return t.handler.NextTransaction(ctx, t)
}

// Execute drives the pending -> executed transition through the bound
// handler. The sole mutation entry point for execution state.
//
// executorOverride, when non-empty, is recorded as the executor instead
// of the handler's acting principal.
func (t *Transaction) Execute(ctx context.Context, save bool, executorOverride string) (int, error) {
	if t.handler == nil {
		return 0, ErrNoHandler
	}
	return t.handler.DoExecute(ctx, t, save, executorOverride)
}
