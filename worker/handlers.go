// Package worker holds the task bodies executed by the queue consumer.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/domain"
	"inkwell/driver/taskqueue"
	"inkwell/port"
)

// Handlers are the task bodies. Each one re-reads current state at
// execution time instead of trusting the enqueued payload, so a task
// delivered late or twice converges on the present truth.
type Handlers struct {
	postRepo     port.PostRepository
	searchEngine port.SearchEngine
	mailer       port.Mailer
	baseURL      string
	logger       *slog.Logger
}

func NewHandlers(postRepo port.PostRepository, searchEngine port.SearchEngine, mailer port.Mailer, baseURL string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		postRepo:     postRepo,
		searchEngine: searchEngine,
		mailer:       mailer,
		baseURL:      baseURL,
		logger:       logger,
	}
}

func (h *Handlers) Register(registry *taskqueue.Registry) {
	registry.Register(domain.TaskIndexPost, h.IndexPost)
	registry.Register(domain.TaskRemovePost, h.RemovePost)
	registry.Register(domain.TaskSendResetMail, h.SendResetMail)
}

// IndexPost mirrors the current row into the index. A row deleted
// between enqueue and execution makes the task a no-op; the separate
// removal task owns cleanup.
func (h *Handlers) IndexPost(ctx context.Context, rawArgs json.RawMessage) error {
	var args domain.IndexPostArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Errorf("decode index args: %w", err)
	}

	post, err := h.postRepo.GetPostByID(ctx, args.PostID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.logger.Info("post gone before indexing, skipping", "post_id", args.PostID)
			return nil
		}
		return err
	}

	if err := h.searchEngine.Index(ctx, post); err != nil {
		return err
	}

	h.logger.Info("post indexed", "post_id", post.ID)
	return nil
}

func (h *Handlers) RemovePost(ctx context.Context, rawArgs json.RawMessage) error {
	var args domain.RemovePostArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Errorf("decode remove args: %w", err)
	}

	if err := h.searchEngine.Remove(ctx, domain.PostNamespace, args.PostID); err != nil {
		return err
	}

	h.logger.Info("post removed from index", "post_id", args.PostID)
	return nil
}

func (h *Handlers) SendResetMail(ctx context.Context, rawArgs json.RawMessage) error {
	var args domain.SendResetMailArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Errorf("decode reset mail args: %w", err)
	}

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"To reset your password, visit the following link:\n\n"+
			"%s/reset_password/%s\n\n"+
			"If you did not make this request then simply ignore this email and no changes will be made.\n",
		args.Username, h.baseURL, args.Token,
	)

	return h.mailer.Send(ctx, args.Recipient, "Password Reset Request", body)
}
