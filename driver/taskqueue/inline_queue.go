package taskqueue

import (
	"context"
	"log/slog"
	"sync"

	"inkwell/domain"
)

// InlineQueue executes the task body synchronously at enqueue time.
// It is the deterministic executor strategy used by tests and small
// single-process deployments; the enqueue-side policy code is the same
// as with the durable queue.
type InlineQueue struct {
	registry *Registry
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewInlineQueue(registry *Registry, logger *slog.Logger) *InlineQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineQueue{
		registry: registry,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

func (q *InlineQueue) Enqueue(ctx context.Context, task domain.Task) error {
	if task.Unique && task.Key != "" {
		q.mu.Lock()
		if _, dup := q.pending[task.Key]; dup {
			q.mu.Unlock()
			return nil
		}
		q.pending[task.Key] = struct{}{}
		q.mu.Unlock()
	}

	handler, err := q.registry.Resolve(task.Name)
	if err != nil {
		q.release(task)
		return err
	}

	// Release the marker at pickup, as the durable queue does: an
	// enqueue arriving while the handler runs must schedule a fresh
	// run against the newer state, not be collapsed into this one.
	q.release(task)

	// Failures are logged, not returned: the caller must observe the
	// same fire-and-forget contract as with the durable queue.
	if err := handler(ctx, task.Args); err != nil {
		q.logger.Error("inline task failed",
			"task", task.Name,
			"error", err,
		)
	}
	return nil
}

func (q *InlineQueue) release(task domain.Task) {
	if !task.Unique || task.Key == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, task.Key)
	q.mu.Unlock()
}
