package usecase

import (
	"context"

	"inkwell/domain"
	"inkwell/port"
)

const (
	defaultPageSize = 5
	maxPageSize     = 100
)

// PostPage is one page of the reverse-chronological feed.
type PostPage struct {
	Posts    []*domain.Post
	Total    int64
	Page     int
	PageSize int
	HasNext  bool
	HasPrev  bool
}

type ListPostsUsecase struct {
	postRepo port.PostRepository
}

func NewListPostsUsecase(postRepo port.PostRepository) *ListPostsUsecase {
	return &ListPostsUsecase{postRepo: postRepo}
}

func (u *ListPostsUsecase) Execute(ctx context.Context, page, pageSize int) (*PostPage, error) {
	page, pageSize = normalizePaging(page, pageSize)

	posts, total, err := u.postRepo.ListPosts(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Posts:    posts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  total > int64(page)*int64(pageSize),
		HasPrev:  page > 1,
	}, nil
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
