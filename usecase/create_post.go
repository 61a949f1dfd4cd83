package usecase

import (
	"context"
	"log/slog"

	"inkwell/domain"
	"inkwell/port"
)

type CreatePostUsecase struct {
	txRunner port.TxRunner
	postRepo port.PostRepository
	policy   *IndexSyncPolicy
	logger   *slog.Logger
}

func NewCreatePostUsecase(txRunner port.TxRunner, postRepo port.PostRepository, policy *IndexSyncPolicy, logger *slog.Logger) *CreatePostUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreatePostUsecase{
		txRunner: txRunner,
		postRepo: postRepo,
		policy:   policy,
		logger:   logger,
	}
}

func (u *CreatePostUsecase) Execute(ctx context.Context, title, content, category string, userID int64) (*domain.Post, error) {
	var created *domain.Post

	changes, err := u.txRunner.RunInTx(ctx, func(ctx context.Context, changes *domain.ChangeSet) error {
		post, err := domain.NewPost(title, content, category, userID)
		if err != nil {
			return err
		}
		if err := u.postRepo.CreatePost(ctx, post); err != nil {
			return err
		}
		changes.Add(post)
		created = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The row is durable; a failed enqueue only delays the index until
	// the next write or rebuild.
	if err := u.policy.Apply(ctx, changes); err != nil {
		u.logger.Warn("post created but index sync not queued",
			"post_id", created.ID,
			"error", err,
		)
	}

	return created, nil
}
