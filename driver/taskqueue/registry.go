// Package taskqueue implements the asynchronous task dispatcher on
// Redis Streams, plus an inline executor for deterministic tests.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Handler executes one task body. Bodies run with a fresh context, may
// execute more than once (at-least-once delivery) and must treat "the
// entity no longer exists" as a no-op rather than a failure.
type Handler func(ctx context.Context, args json.RawMessage) error

// Registry maps task names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("no handler registered for task %q", name)
	}
	return h, nil
}
