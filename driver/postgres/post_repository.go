package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"inkwell/domain"
)

type PostRepository struct {
	db DB
}

func NewPostRepository(db DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (title, content, category, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := querier(ctx, r.db).QueryRow(ctx, query,
		post.Title, post.Content, post.Category, post.UserID,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return &domain.RepositoryError{Op: "CreatePost", Err: err.Error()}
	}

	return nil
}

func (r *PostRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, category = $3
		WHERE id = $4
	`

	tag, err := querier(ctx, r.db).Exec(ctx, query,
		post.Title, post.Content, post.Category, post.ID,
	)
	if err != nil {
		return &domain.RepositoryError{Op: "UpdatePost", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id int64) error {
	tag, err := querier(ctx, r.db).Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return &domain.RepositoryError{Op: "DeletePost", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	query := `
		SELECT id, title, content, category, user_id, created_at
		FROM posts
		WHERE id = $1
	`

	var post domain.Post
	err := querier(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Content, &post.Category, &post.UserID, &post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.RepositoryError{Op: "GetPostByID", Err: err.Error()}
	}

	return &post, nil
}

// GetPostsByIDs fetches the rows for an identifier set. Order is
// whatever the store returns; callers needing relevance order re-sort
// themselves. Missing identifiers are simply absent from the result.
func (r *PostRepository) GetPostsByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error) {
	if len(ids) == 0 {
		return []*domain.Post{}, nil
	}

	query := `
		SELECT id, title, content, category, user_id, created_at
		FROM posts
		WHERE id = ANY($1)
	`

	rows, err := querier(ctx, r.db).Query(ctx, query, ids)
	if err != nil {
		return nil, &domain.RepositoryError{Op: "GetPostsByIDs", Err: err.Error()}
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) ListPosts(ctx context.Context, page, pageSize int) ([]*domain.Post, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := querier(ctx, r.db).QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, &domain.RepositoryError{Op: "ListPosts", Err: err.Error()}
	}

	query := `
		SELECT id, title, content, category, user_id, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := querier(ctx, r.db).Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, &domain.RepositoryError{Op: "ListPosts", Err: err.Error()}
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// IteratePosts walks all posts with keyset pagination. The first call
// passes a nil cursor; subsequent calls pass the returned cursor back
// in. Used by the administrative reindex.
func (r *PostRepository) IteratePosts(ctx context.Context, lastCreatedAt *time.Time, lastID int64, limit int) ([]*domain.Post, *time.Time, int64, error) {
	var query string
	var args []any

	if lastCreatedAt == nil || lastCreatedAt.IsZero() {
		query = `
			SELECT id, title, content, category, user_id, created_at
			FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		args = []any{limit}
	} else {
		query = `
			SELECT id, title, content, category, user_id, created_at
			FROM posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []any{*lastCreatedAt, lastID, limit}
	}

	rows, err := querier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, 0, &domain.RepositoryError{Op: "IteratePosts", Err: err.Error()}
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, nil, 0, err
	}

	if len(posts) == 0 {
		return posts, lastCreatedAt, lastID, nil
	}

	last := posts[len(posts)-1]
	cursor := last.CreatedAt
	return posts, &cursor, last.ID, nil
}

func scanPosts(rows pgx.Rows) ([]*domain.Post, error) {
	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(
			&post.ID, &post.Title, &post.Content, &post.Category, &post.UserID, &post.CreatedAt,
		); err != nil {
			return nil, &domain.RepositoryError{Op: "scanPosts", Err: err.Error()}
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.RepositoryError{Op: "scanPosts", Err: err.Error()}
	}
	if posts == nil {
		posts = []*domain.Post{}
	}
	return posts, nil
}
