// Package transactor defines the pluggable business-logic strategy bound
// to each transaction type, and the registry that resolves plugin ids to
// factories.
//
// A transactor owns validation, execution, and the default human-readable
// rendering for one transaction type. Variants ship with the engine:
// Generic (minimal bookkeeping) and Balance (running-total accumulation).
package transactor

import (
	"fmt"
	"sync"

	"github.com/reckon-io/reckon/internal/entity"
)

// Transactor is the polymorphic capability set shared by all plugin
// variants: {validate, execute, describe, detail, message}.
//
// Validate and Execute receive the last executed transaction of the same
// (type, target) chain, nil if there is none. Neither is ever invoked on
// an executed transaction - the orchestrator's pending guard ensures
// exactly one execution attempt per transition.
type Transactor interface {
	// Validate is a pure precondition check. Must not mutate the
	// transaction or the target. False refuses the execution: a normal
	// business rejection, not an error.
	Validate(tx, lastExecuted *entity.Transaction) bool

	// Execute performs the business-logic step: reads the predecessor's
	// state, computes new state, writes it onto the transaction (and
	// optionally the target record). Returns a result code >= 1 with
	// ok=true on success. On failure returns ok=false, optionally with a
	// negative code for diagnostics.
	Execute(tx, lastExecuted *entity.Transaction) (code int, ok bool)

	// Description renders the default description used when no operation
	// template is bound.
	Description(tx *entity.Transaction) string

	// Details renders the default detail lines.
	Details(tx *entity.Transaction) []string

	// ResultMessage maps the transaction's recorded result code to text.
	// Only called on executed transactions (the handler guards).
	ResultMessage(tx *entity.Transaction) string
}

// Factory builds a transactor instance from a transaction type's
// settings map. Factories validate required settings and fail fast on
// missing ones.
type Factory func(settings map[string]string) (Transactor, error)

// Registry maps plugin ids to factories.
//
// Thread-safety: safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a plugin id. Duplicate ids are an error.
func (r *Registry) Register(id string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("duplicate transactor id: %s", id)
	}
	r.factories[id] = f
	return nil
}

// New builds a transactor for a plugin id with the given settings.
func (r *Registry) New(id string, settings map[string]string) (Transactor, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transactor id: %s", id)
	}
	return f(settings)
}

// IDs returns the registered plugin ids. Order is unspecified.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}

// DefaultRegistry returns a registry with the built-in plugins
// registered: "generic" and "balance".
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Built-in registrations cannot collide.
	_ = r.Register(GenericID, NewGeneric)
	_ = r.Register(BalanceID, NewBalance)
	return r
}
