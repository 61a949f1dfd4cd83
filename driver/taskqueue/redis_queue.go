package taskqueue

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"inkwell/config"
	"inkwell/domain"
)

const dedupKeyPrefix = "inkwell:task:pending:"

// RedisQueue enqueues tasks onto a Redis stream consumed by the worker
// pool. Unique tasks are guarded by a pending marker: while a task
// with the same idempotency key is queued but not yet picked up, a
// second enqueue collapses into it. The marker is released the moment
// a worker claims the delivery, so an enqueue racing with execution
// schedules a fresh run against then-current state.
type RedisQueue struct {
	client *redis.Client
	cfg    config.QueueConfig
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, cfg config.QueueConfig, logger *slog.Logger) *RedisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisQueue{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// NewRedisClient creates a client from the configured URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, task domain.Task) error {
	if task.Unique && task.Key != "" {
		ok, err := q.client.SetNX(ctx, dedupKeyPrefix+task.Key, "1", q.cfg.DedupTTL).Result()
		if err != nil {
			return &domain.DriverError{Op: "Enqueue", Err: err.Error()}
		}
		if !ok {
			q.logger.Debug("task collapsed into pending duplicate",
				"task", task.Name,
				"key", task.Key,
			)
			return nil
		}
	}

	values := map[string]interface{}{
		"task_id": uuid.New().String(),
		"name":    task.Name,
		"args":    string(task.Args),
		"retry":   boolField(task.Retry),
		"unique":  boolField(task.Unique),
		"key":     task.Key,
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.StreamKey,
		Values: values,
	}).Result()
	if err != nil {
		// The marker must not outlive a failed enqueue, or the task
		// would be locked out until the TTL expires.
		if task.Unique && task.Key != "" {
			q.client.Del(ctx, dedupKeyPrefix+task.Key)
		}
		return &domain.DriverError{Op: "Enqueue", Err: err.Error()}
	}

	q.logger.Info("task enqueued",
		"task", task.Name,
		"message_id", id,
	)
	return nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
