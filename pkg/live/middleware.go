package live

import "context"

// EventCtx carries a single client event through the dispatch chain.
// It is only valid for the duration of the dispatch; handlers must not
// retain it.
type EventCtx struct {
	// Session is the session the event arrived on.
	Session *Session

	// Event is the DOM event type ("click", "input", "submit", ...).
	Event string

	// Path is the target's child-index path from the body root.
	Path []int

	// Data is the event payload sent by the client (input values, form
	// fields). May be nil.
	Data map[string]any

	ctx context.Context
}

// Context returns the context for this dispatch. It starts as the session's
// base context and may be replaced by middleware (e.g. to carry a trace span).
func (ec *EventCtx) Context() context.Context {
	if ec.ctx == nil {
		return context.Background()
	}
	return ec.ctx
}

// SetContext replaces the dispatch context. Middleware uses this to propagate
// derived contexts to the rest of the chain.
func (ec *EventCtx) SetContext(ctx context.Context) {
	ec.ctx = ctx
}

// EventFunc handles one client event.
type EventFunc func(*EventCtx) error

// Middleware wraps an EventFunc with cross-cutting behavior. Middleware
// registered on a Server runs for every event on every session, outermost
// first, with the session's DOM dispatch at the end of the chain.
type Middleware func(EventFunc) EventFunc

// chain composes middleware around a terminal EventFunc.
func chain(mw []Middleware, final EventFunc) EventFunc {
	h := final
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
