package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/domain"
	"inkwell/port"
)

// IndexSyncPolicy turns committed entity changes into queued index
// tasks. Inserts and updates collapse to the same "index this row"
// task because the task body re-reads the row anyway; deletes get a
// plain removal task. The policy never touches the engine directly.
type IndexSyncPolicy struct {
	queue  port.TaskQueue
	logger *slog.Logger
}

func NewIndexSyncPolicy(queue port.TaskQueue, logger *slog.Logger) *IndexSyncPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexSyncPolicy{queue: queue, logger: logger}
}

// Apply enqueues one task per changed entity. Individual enqueue
// failures do not stop the remaining entities; the caller decides
// whether a partial failure matters. The store already committed, so
// a lost task is repaired by the next write or the nightly rebuild.
func (p *IndexSyncPolicy) Apply(ctx context.Context, changes *domain.ChangeSet) error {
	if changes == nil || changes.Empty() {
		return nil
	}

	var errs []error
	for _, s := range changes.Added() {
		errs = append(errs, p.enqueueIndex(ctx, s))
	}
	for _, s := range changes.Updated() {
		errs = append(errs, p.enqueueIndex(ctx, s))
	}
	for _, s := range changes.Deleted() {
		errs = append(errs, p.enqueueRemove(ctx, s))
	}

	return errors.Join(errs...)
}

func (p *IndexSyncPolicy) enqueueIndex(ctx context.Context, s domain.Searchable) error {
	args, err := json.Marshal(domain.IndexPostArgs{PostID: s.SearchID()})
	if err != nil {
		return fmt.Errorf("marshal index args: %w", err)
	}

	err = p.queue.Enqueue(ctx, domain.Task{
		Name:   domain.TaskIndexPost,
		Args:   args,
		Retry:  true,
		Unique: true,
		Key:    uniqueIndexKey(s),
	})
	if err != nil {
		p.logger.Error("failed to enqueue index task",
			"namespace", s.SearchNamespace(),
			"id", s.SearchID(),
			"error", err,
		)
		return err
	}
	return nil
}

func (p *IndexSyncPolicy) enqueueRemove(ctx context.Context, s domain.Searchable) error {
	args, err := json.Marshal(domain.RemovePostArgs{PostID: s.SearchID()})
	if err != nil {
		return fmt.Errorf("marshal remove args: %w", err)
	}

	err = p.queue.Enqueue(ctx, domain.Task{
		Name:  domain.TaskRemovePost,
		Args:  args,
		Retry: true,
	})
	if err != nil {
		p.logger.Error("failed to enqueue remove task",
			"namespace", s.SearchNamespace(),
			"id", s.SearchID(),
			"error", err,
		)
		return err
	}
	return nil
}

// uniqueIndexKey collapses bursty writes to the same row into one
// pending task per row.
func uniqueIndexKey(s domain.Searchable) string {
	return fmt.Sprintf("index:%s:%d", s.SearchNamespace(), s.SearchID())
}
