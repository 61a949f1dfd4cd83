package port

import (
	"context"

	"inkwell/domain"
)

// TaskQueue hands tasks to an at-least-once executor. The production
// implementation enqueues to a durable Redis stream consumed by a
// worker pool; the inline implementation executes the task body
// synchronously for deterministic tests. Enqueue-side policy code is
// identical for both.
//
// For unique tasks a second Enqueue with the same idempotency key
// while the first is still pending collapses into the pending task.
type TaskQueue interface {
	Enqueue(ctx context.Context, task domain.Task) error
}
