package engine

import "github.com/reckon-io/reckon/internal/entity"

// ExecutionListener observes completed executions.
//
// Listeners run synchronously, after the transactor's business step and
// metadata stamping but BEFORE persistence: they may inspect transient
// validation-time properties, and must not assume the transaction is
// durable yet. Listener ordering follows registration order.
type ExecutionListener func(tx *entity.Transaction)

// OnExecution registers a listener for execution-completed events.
// Not safe to call concurrently with DoExecute.
func (h *Handler) OnExecution(l ExecutionListener) {
	h.listeners = append(h.listeners, l)
}

// notifyExecuted fires all registered listeners in order.
func (h *Handler) notifyExecuted(tx *entity.Transaction) {
	for _, l := range h.listeners {
		l(tx)
	}
}
