package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/reckon-io/reckon/internal/entity"
	"github.com/reckon-io/reckon/internal/store"
	"github.com/reckon-io/reckon/internal/token"
	"github.com/reckon-io/reckon/internal/transactor"
)

// Handler is the execution orchestrator: it drives the single
// pending -> executed transition, delegating business logic to the
// transactor plugin bound to the transaction's type.
//
// It implements entity.TransactorHandler, so transactions created or
// loaded through it delegate their Description/Details/Previous/Next/
// Execute calls back here.
//
// Concurrency model: the handler itself holds no lock around execution.
// Correctness under concurrent executes against the same target rests
// on the store's optimistic chain check - the later writer gets
// store.ErrChainConflict and must retry from a fresh pending
// transaction.
type Handler struct {
	store    *store.Store
	registry *transactor.Registry
	clock    Clock

	// principal is the acting user recorded as executor when no explicit
	// override is given. Empty falls back to the anonymous principal.
	principal string

	newUUID   func() string
	listeners []ExecutionListener

	mu          sync.Mutex
	types       map[string]*entity.TransactionType
	transactors map[string]transactor.Transactor
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock replaces the execution timestamp source.
func WithClock(c Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithPrincipal sets the acting user recorded as executor when
// DoExecute receives no override.
func WithPrincipal(user string) Option {
	return func(h *Handler) { h.principal = user }
}

// WithUUIDGenerator replaces the transaction UUID source. Tests use a
// fixed sequence for deterministic output.
func WithUUIDGenerator(gen func() string) Option {
	return func(h *Handler) { h.newUUID = gen }
}

// New creates a Handler over a store and a transactor registry.
func New(s *store.Store, registry *transactor.Registry, opts ...Option) *Handler {
	h := &Handler{
		store:    s,
		registry: registry,
		clock:    SystemClock{},
		newUUID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
		types:       make(map[string]*entity.TransactionType),
		transactors: make(map[string]transactor.Transactor),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Store returns the handler's store.
func (h *Handler) Store() *store.Store {
	return h.store
}

// NewTransaction creates a pending transaction of the named type against
// a target record. The target must match the type's configured target
// entity type; mismatches fail here, not at execution time. The owner
// defaults to the handler's principal, then to the anonymous user.
func (h *Handler) NewTransaction(ctx context.Context, typeID string, target *entity.TargetRecord, owner string) (*entity.Transaction, error) {
	typeCfg, err := h.typeFor(ctx, typeID)
	if err != nil {
		return nil, err
	}

	if owner == "" {
		owner = h.principal
	}
	if owner == "" {
		owner = entity.AnonymousUser
	}

	tx, err := entity.NewTransaction(typeCfg, target, owner, h.clock.Now())
	if err != nil {
		return nil, err
	}
	tx.UUID = h.newUUID()
	tx.AttachHandler(h)
	return tx, nil
}

// LoadTransaction loads a transaction by id and attaches its type
// configuration, target record, operation template and this handler.
func (h *Handler) LoadTransaction(ctx context.Context, id int64) (*entity.Transaction, error) {
	tx, err := h.store.LoadTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.attachLoaded(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Attach wires a transaction loaded outside the handler (batch listing,
// chain queries) for use: same treatment LoadTransaction applies.
func (h *Handler) Attach(ctx context.Context, tx *entity.Transaction) error {
	return h.attachLoaded(ctx, tx)
}

// attachLoaded wires a raw store row for use: type configuration, target
// record (when persisted), operation template (when referenced), and the
// handler itself.
func (h *Handler) attachLoaded(ctx context.Context, tx *entity.Transaction) error {
	typeCfg, err := h.typeFor(ctx, tx.Type)
	if err != nil {
		return err
	}
	tx.AttachType(typeCfg)

	target, err := h.store.LoadTarget(ctx, tx.TargetType, tx.TargetID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Target records may live outside the local store.
	case err != nil:
		return err
	default:
		if err := tx.AttachTarget(target); err != nil {
			return err
		}
	}

	if tx.Operation != "" {
		op, err := h.store.LoadOperation(ctx, tx.Operation, tx.Type)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Operation codes without a stored template render through
			// the transactor defaults.
		case err != nil:
			return err
		default:
			if err := tx.AttachOperation(op); err != nil {
				return err
			}
		}
	}

	tx.AttachHandler(h)
	return nil
}

// SaveTransaction persists a pending transaction. Computed caches are
// invalidated after an id is first assigned, since the generic
// description embeds it.
func (h *Handler) SaveTransaction(ctx context.Context, tx *entity.Transaction) error {
	unsaved := tx.ID == 0
	if err := h.store.SaveTransaction(ctx, tx); err != nil {
		return err
	}
	if unsaved {
		tx.InvalidateCaches()
	}
	return nil
}

// AttachOperation resolves an operation template by code and binds it to
// the transaction.
func (h *Handler) AttachOperation(ctx context.Context, tx *entity.Transaction, operationID string) error {
	op, err := h.store.LoadOperation(ctx, operationID, tx.Type)
	if err != nil {
		return err
	}
	return tx.AttachOperation(op)
}

// DoValidate runs the transactor's precondition check against the
// current chain head. False is a normal business refusal.
func (h *Handler) DoValidate(ctx context.Context, tx *entity.Transaction) (bool, error) {
	tr, err := h.transactorFor(ctx, tx.Type)
	if err != nil {
		return false, err
	}
	last, err := h.store.LastExecuted(ctx, tx.Type, tx.TargetType, tx.TargetID)
	if err != nil {
		return false, err
	}
	return tr.Validate(tx, last), nil
}

// DoExecute drives the pending -> executed transition:
//
//  1. Guard: executing a non-pending transaction is an InvalidStateError.
//  2. Validate via the transactor; refusal returns (0, nil) with the
//     transaction untouched and still pending.
//  3. Resolve the chain predecessor.
//  4. Delegate to the transactor; failure returns its (non-positive)
//     diagnostic code with the transaction still pending.
//  5. Stamp result code (defaulting to the generic OK), execution time
//     from the clock, and executor (override, else principal, else
//     anonymous).
//  6. Notify execution listeners - before persistence.
//  7. Persist transaction and mutated target in one storage transaction
//     (when save is requested). A lost chain race reverts the stamp and
//     surfaces store.ErrChainConflict; the caller retries with a fresh
//     pending transaction.
//
// The returned code is positive on success.
func (h *Handler) DoExecute(ctx context.Context, tx *entity.Transaction, save bool, executorOverride string) (int, error) {
	if !tx.IsPending() {
		return 0, &entity.InvalidStateError{Op: "execute", TransactionID: tx.ID, Pending: false}
	}

	tr, err := h.transactorFor(ctx, tx.Type)
	if err != nil {
		return 0, err
	}

	last, err := h.store.LastExecuted(ctx, tx.Type, tx.TargetType, tx.TargetID)
	if err != nil {
		return 0, err
	}

	if !tr.Validate(tx, last) {
		slog.Info("transaction validation refused",
			"type", tx.Type,
			"target", tx.TargetType+"/"+tx.TargetID,
			"operation", tx.Operation,
		)
		return 0, nil
	}

	code, ok := tr.Execute(tx, last)
	if !ok {
		slog.Info("transaction execution failed",
			"type", tx.Type,
			"target", tx.TargetType+"/"+tx.TargetID,
			"result_code", code,
		)
		return code, nil
	}
	if code == 0 {
		code = entity.ResultOK
	}
	tx.ResultCode = code

	executor := executorOverride
	if executor == "" {
		executor = h.principal
	}
	if executor == "" {
		executor = entity.AnonymousUser
	}
	tx.SetExecutionMetadata(h.clock.Now(), executor)
	tx.InvalidateCaches()

	// Listeners observe the executed transaction before it is durable,
	// while validation-time properties are still in place.
	h.notifyExecuted(tx)

	if save {
		var predecessorID int64
		if last != nil {
			predecessorID = last.ID
		}
		if err := h.store.SaveExecuted(ctx, tx, predecessorID); err != nil {
			if errors.Is(err, store.ErrChainConflict) {
				// The stamp never became durable; the transaction
				// returns to pending so the caller can retry.
				tx.ClearExecutionMetadata()
			}
			return 0, err
		}
		tx.InvalidateCaches()
	}

	slog.Info("transaction executed",
		"id", tx.ID,
		"type", tx.Type,
		"target", tx.TargetType+"/"+tx.TargetID,
		"executor", executor,
		"result_code", code,
	)
	return code, nil
}

// ComposeDescription implements entity.TransactorHandler. An attached
// operation template overrides the transactor's default text.
func (h *Handler) ComposeDescription(tx *entity.Transaction) (string, error) {
	if op := tx.OperationTemplate(); op != nil {
		return token.Render(op.Description, tx, tx.Target()), nil
	}

	tr, err := h.transactorFor(context.Background(), tx.Type)
	if err != nil {
		return "", err
	}
	return tr.Description(tx), nil
}

// ComposeDetails implements entity.TransactorHandler: transactor details
// first, then the operation's detail templates when one is attached.
func (h *Handler) ComposeDetails(tx *entity.Transaction) ([]string, error) {
	tr, err := h.transactorFor(context.Background(), tx.Type)
	if err != nil {
		return nil, err
	}
	details := tr.Details(tx)

	if op := tx.OperationTemplate(); op != nil {
		for _, tmpl := range op.Details {
			details = append(details, token.Render(tmpl, tx, tx.Target()))
		}
	}
	return details, nil
}

// ComposeResultMessage implements entity.TransactorHandler.
// Pending transactions have no result to describe.
func (h *Handler) ComposeResultMessage(tx *entity.Transaction) (string, error) {
	if tx.IsPending() {
		return "", &entity.InvalidStateError{Op: "compose the result message of", TransactionID: tx.ID, Pending: true}
	}
	tr, err := h.transactorFor(context.Background(), tx.Type)
	if err != nil {
		return "", err
	}
	return tr.ResultMessage(tx), nil
}

// PreviousTransaction implements entity.TransactorHandler.
func (h *Handler) PreviousTransaction(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	if tx.IsPending() {
		return nil, &entity.InvalidStateError{Op: "resolve the previous transaction of", TransactionID: tx.ID, Pending: true}
	}
	prev, err := h.store.PreviousExecuted(ctx, tx)
	if err != nil || prev == nil {
		return nil, err
	}
	if err := h.attachLoaded(ctx, prev); err != nil {
		return nil, err
	}
	return prev, nil
}

// NextTransaction implements entity.TransactorHandler.
func (h *Handler) NextTransaction(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	if tx.IsPending() {
		return nil, &entity.InvalidStateError{Op: "resolve the next transaction of", TransactionID: tx.ID, Pending: true}
	}
	next, err := h.store.NextExecuted(ctx, tx)
	if err != nil || next == nil {
		return nil, err
	}
	if err := h.attachLoaded(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// typeFor loads and caches a transaction type configuration.
func (h *Handler) typeFor(ctx context.Context, typeID string) (*entity.TransactionType, error) {
	h.mu.Lock()
	typeCfg, ok := h.types[typeID]
	h.mu.Unlock()
	if ok {
		return typeCfg, nil
	}

	typeCfg, err := h.store.LoadTransactionType(ctx, typeID)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.types[typeID] = typeCfg
	h.mu.Unlock()
	return typeCfg, nil
}

// transactorFor builds and caches the transactor instance bound to a
// transaction type.
func (h *Handler) transactorFor(ctx context.Context, typeID string) (transactor.Transactor, error) {
	h.mu.Lock()
	tr, ok := h.transactors[typeID]
	h.mu.Unlock()
	if ok {
		return tr, nil
	}

	typeCfg, err := h.typeFor(ctx, typeID)
	if err != nil {
		return nil, err
	}

	tr, err = h.registry.New(typeCfg.Transactor, typeCfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("transaction type %s: %w", typeID, err)
	}

	h.mu.Lock()
	h.transactors[typeID] = tr
	h.mu.Unlock()
	return tr, nil
}
