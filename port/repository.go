package port

import (
	"context"
	"time"

	"inkwell/domain"
)

// PostRepository is the relational store for posts. Write methods are
// transaction-aware: inside TxRunner.RunInTx they operate on the
// transaction, outside they run on the pool directly.
type PostRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	UpdatePost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, id int64) error
	GetPostByID(ctx context.Context, id int64) (*domain.Post, error)
	// GetPostsByIDs fetches the rows for an identifier set. Order is
	// unspecified; missing identifiers are silently absent.
	GetPostsByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error)
	// ListPosts returns one page ordered by created_at descending plus
	// the total row count.
	ListPosts(ctx context.Context, page, pageSize int) ([]*domain.Post, int64, error)
	// IteratePosts walks all posts with keyset pagination for the
	// administrative reindex. Returns the batch plus the next cursor.
	IteratePosts(ctx context.Context, lastCreatedAt *time.Time, lastID int64, limit int) ([]*domain.Post, *time.Time, int64, error)
}

// UserRepository is the relational store for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateImageFile(ctx context.Context, id int64, imageFile string) error
}

// TxRunner runs fn inside one relational transaction and hands it a
// recorder for searchable changes. The returned ChangeSet is only
// produced after the commit is durable; on error or rollback it is
// nil. Acting on the changes before commit would risk indexing data
// that never became visible.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, changes *domain.ChangeSet) error) (*domain.ChangeSet, error)
}
