package usecase

import (
	"context"
	"log/slog"

	"inkwell/domain"
	"inkwell/port"
)

type UpdatePostUsecase struct {
	txRunner port.TxRunner
	postRepo port.PostRepository
	policy   *IndexSyncPolicy
	logger   *slog.Logger
}

func NewUpdatePostUsecase(txRunner port.TxRunner, postRepo port.PostRepository, policy *IndexSyncPolicy, logger *slog.Logger) *UpdatePostUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdatePostUsecase{
		txRunner: txRunner,
		postRepo: postRepo,
		policy:   policy,
		logger:   logger,
	}
}

// Execute rewrites a post. Only the author may edit it.
func (u *UpdatePostUsecase) Execute(ctx context.Context, postID, userID int64, title, content, category string) (*domain.Post, error) {
	var updated *domain.Post

	changes, err := u.txRunner.RunInTx(ctx, func(ctx context.Context, changes *domain.ChangeSet) error {
		post, err := u.postRepo.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return domain.ErrForbidden
		}

		next, err := domain.NewPost(title, content, category, post.UserID)
		if err != nil {
			return err
		}
		post.Title = next.Title
		post.Content = next.Content
		post.Category = next.Category

		if err := u.postRepo.UpdatePost(ctx, post); err != nil {
			return err
		}
		changes.Update(post)
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := u.policy.Apply(ctx, changes); err != nil {
		u.logger.Warn("post updated but index sync not queued",
			"post_id", updated.ID,
			"error", err,
		)
	}

	return updated, nil
}
