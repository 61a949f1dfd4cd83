package usecase

import (
	"context"
	"log/slog"

	"inkwell/domain"
	"inkwell/port"
)

type DeletePostUsecase struct {
	txRunner port.TxRunner
	postRepo port.PostRepository
	policy   *IndexSyncPolicy
	logger   *slog.Logger
}

func NewDeletePostUsecase(txRunner port.TxRunner, postRepo port.PostRepository, policy *IndexSyncPolicy, logger *slog.Logger) *DeletePostUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeletePostUsecase{
		txRunner: txRunner,
		postRepo: postRepo,
		policy:   policy,
		logger:   logger,
	}
}

// Execute removes a post. Only the author may delete it.
func (u *DeletePostUsecase) Execute(ctx context.Context, postID, userID int64) error {
	changes, err := u.txRunner.RunInTx(ctx, func(ctx context.Context, changes *domain.ChangeSet) error {
		post, err := u.postRepo.GetPostByID(ctx, postID)
		if err != nil {
			return err
		}
		if post.UserID != userID {
			return domain.ErrForbidden
		}

		if err := u.postRepo.DeletePost(ctx, post.ID); err != nil {
			return err
		}
		changes.Delete(post)
		return nil
	})
	if err != nil {
		return err
	}

	if err := u.policy.Apply(ctx, changes); err != nil {
		u.logger.Warn("post deleted but index removal not queued",
			"post_id", postID,
			"error", err,
		)
	}

	return nil
}
