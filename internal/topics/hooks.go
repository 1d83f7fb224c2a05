package topics

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// FilterFn is a synchronous hook that may alter or veto a pending
// transition by mutating the payload it receives and passes on.
type FilterFn func(ctx context.Context, payload interface{}) (interface{}, error)

// ActionFn is a fire-and-forget hook notified after a transition has been
// persisted.
type ActionFn func(ctx context.Context, payload interface{})

// Hooks is the registry external policy and notification collaborators
// attach to.
type Hooks struct {
	mu      sync.RWMutex
	filters map[string][]FilterFn
	actions map[string][]ActionFn
	logger  *zap.Logger
}

// NewHooks creates an empty hook registry
func NewHooks(logger *zap.Logger) *Hooks {
	return &Hooks{
		filters: make(map[string][]FilterFn),
		actions: make(map[string][]ActionFn),
		logger:  logger.With(zap.String("component", "topic-hooks")),
	}
}

// RegisterFilter attaches a filter hook
func (h *Hooks) RegisterFilter(name string, fn FilterFn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filters[name] = append(h.filters[name], fn)
}

// RegisterAction attaches an action hook
func (h *Hooks) RegisterAction(name string, fn ActionFn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions[name] = append(h.actions[name], fn)
}

// FireFilter runs the filter chain for a hook, threading the payload
// through each handler in registration order
func (h *Hooks) FireFilter(ctx context.Context, name string, payload interface{}) (interface{}, error) {
	h.mu.RLock()
	chain := h.filters[name]
	h.mu.RUnlock()

	var err error
	for _, fn := range chain {
		payload, err = fn(ctx, payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// FireAction notifies every action handler for a hook. Handlers run in
// their own goroutines; a panicking handler is logged, never propagated.
func (h *Hooks) FireAction(ctx context.Context, name string, payload interface{}) {
	h.mu.RLock()
	handlers := h.actions[name]
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn := fn
		go func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("Action hook panicked",
						zap.String("hook", name),
						zap.Any("panic", r))
				}
			}()
			fn(ctx, payload)
		}()
	}
}
