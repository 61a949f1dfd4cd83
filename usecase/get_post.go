package usecase

import (
	"context"

	"inkwell/domain"
	"inkwell/port"
)

type GetPostUsecase struct {
	postRepo port.PostRepository
}

func NewGetPostUsecase(postRepo port.PostRepository) *GetPostUsecase {
	return &GetPostUsecase{postRepo: postRepo}
}

func (u *GetPostUsecase) Execute(ctx context.Context, id int64) (*domain.Post, error) {
	return u.postRepo.GetPostByID(ctx, id)
}
