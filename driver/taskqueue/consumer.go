package taskqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"inkwell/config"
	"inkwell/domain"
	applog "inkwell/logger"
)

const taskTimeout = 30 * time.Second

// Consumer pulls task deliveries from the stream with a consumer
// group. Delivery is at-least-once: a task is acknowledged only after
// its handler returns nil, failed retryable deliveries stay pending
// until the reclaimer redelivers them, and after MaxDeliveries the
// delivery is acknowledged anyway and the failure logged. Terminal
// failures never surface to a user; the enqueuing request is long
// gone by then.
type Consumer struct {
	client       *redis.Client
	cfg          config.QueueConfig
	registry     *Registry
	logger       *slog.Logger
	shutdownChan chan struct{}
	doneChan     chan struct{}
}

func NewConsumer(client *redis.Client, cfg config.QueueConfig, registry *Registry, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		client:       client,
		cfg:          cfg,
		registry:     registry,
		logger:       logger,
		shutdownChan: make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins consuming tasks from the stream.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureConsumerGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("starting task consumer",
		"stream", c.cfg.StreamKey,
		"group", c.cfg.GroupName,
		"consumer", c.cfg.ConsumerName,
	)

	go func() {
		defer close(c.doneChan)
		c.consumeLoop(ctx)
	}()
	return nil
}

// Stop requests shutdown and waits for the consume loop to finish its
// in-flight delivery, so a task is never cut off before its ack.
// Only valid after a successful Start.
func (c *Consumer) Stop() {
	close(c.shutdownChan)
	<-c.doneChan
}

func (c *Consumer) ensureConsumerGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.StreamKey, c.cfg.GroupName, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return err
	}
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("task consumer context cancelled, stopping")
			return
		case <-c.shutdownChan:
			c.logger.Info("task consumer shutdown requested, stopping")
			return
		default:
			if err := c.readAndProcess(ctx); err != nil {
				c.logger.Error("error processing tasks", "error", err)
				time.Sleep(bo.NextBackOff())
				continue
			}
			bo.Reset()
		}
	}
}

func (c *Consumer) readAndProcess(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.GroupName,
		Consumer: c.cfg.ConsumerName,
		Streams:  []string{c.cfg.StreamKey, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.BlockTimeout,
	}).Result()

	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			c.processMessage(ctx, message, 1)
		}
	}

	return nil
}

// processMessage executes one delivery. delivery is the attempt count
// reported by the queue, 1 for a first delivery.
func (c *Consumer) processMessage(ctx context.Context, message redis.XMessage, delivery int64) {
	task := parseTask(message)

	// Release the dedup marker before running the body: from here on a
	// new enqueue must schedule a fresh task, because this execution
	// may read state older than that enqueue's write.
	if task.Unique && task.Key != "" {
		c.client.Del(ctx, dedupKeyPrefix+task.Key)
	}

	// Tasks run in a fresh context, never the request's: in production
	// the worker is a different process reached much later.
	taskCtx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	taskCtx = applog.WithTaskName(taskCtx, task.Name)
	taskCtx = applog.WithTaskID(taskCtx, message.ID)
	defer cancel()

	err := c.execute(taskCtx, task)
	if err == nil {
		c.ack(ctx, message.ID)
		return
	}

	if !task.Retry {
		c.logger.Error("task failed, not retryable",
			"task", task.Name,
			"message_id", message.ID,
			"error", err,
		)
		c.ack(ctx, message.ID)
		return
	}

	if delivery >= c.cfg.MaxDeliveries {
		c.logger.Error("task abandoned after max deliveries",
			"task", task.Name,
			"message_id", message.ID,
			"deliveries", delivery,
			"error", err,
		)
		c.ack(ctx, message.ID)
		return
	}

	// Leave the delivery pending; the reclaimer redelivers it.
	c.logger.Warn("task failed, will retry",
		"task", task.Name,
		"message_id", message.ID,
		"delivery", delivery,
		"error", err,
	)
}

func (c *Consumer) execute(ctx context.Context, task domain.Task) error {
	handler, err := c.registry.Resolve(task.Name)
	if err != nil {
		return err
	}
	return handler(ctx, task.Args)
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.cfg.StreamKey, c.cfg.GroupName, messageID).Err(); err != nil {
		c.logger.Error("failed to acknowledge task",
			"message_id", messageID,
			"error", err,
		)
	}
}

// ReclaimStale redelivers pending tasks whose consumer went quiet.
// Run periodically by the job scheduler.
func (c *Consumer) ReclaimStale(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.StreamKey,
		Group:  c.cfg.GroupName,
		Idle:   c.cfg.ReclaimMinIdle,
		Start:  "-",
		End:    "+",
		Count:  c.cfg.BatchSize,
	}).Result()
	if err != nil {
		return err
	}

	for _, p := range pending {
		messages, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.cfg.StreamKey,
			Group:    c.cfg.GroupName,
			Consumer: c.cfg.ConsumerName,
			MinIdle:  c.cfg.ReclaimMinIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			c.logger.Error("failed to claim stale task", "message_id", p.ID, "error", err)
			continue
		}

		for _, message := range messages {
			// RetryCount counts deliveries before this claim; the
			// claim itself is one more.
			c.processMessage(ctx, message, p.RetryCount+1)
		}
	}

	return nil
}

func parseTask(message redis.XMessage) domain.Task {
	task := domain.Task{}

	if v, ok := message.Values["name"].(string); ok {
		task.Name = v
	}
	if v, ok := message.Values["args"].(string); ok {
		task.Args = json.RawMessage(v)
	}
	if v, ok := message.Values["retry"].(string); ok {
		task.Retry = v == "1"
	}
	if v, ok := message.Values["unique"].(string); ok {
		task.Unique = v == "1"
	}
	if v, ok := message.Values["key"].(string); ok {
		task.Key = v
	}

	return task
}
