package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"inkwell/domain"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, image_file)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := querier(ctx, r.db).QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.ImageFile,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return &domain.RepositoryError{Op: "CreateUser", Err: err.Error()}
	}

	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, image_file, created_at
		FROM users
	` + where

	var user domain.User
	err := querier(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ImageFile, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, &domain.RepositoryError{Op: "getUser", Err: err.Error()}
	}

	return &user, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := querier(ctx, r.db).Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id,
	)
	if err != nil {
		return &domain.RepositoryError{Op: "UpdatePasswordHash", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *UserRepository) UpdateImageFile(ctx context.Context, id int64, imageFile string) error {
	tag, err := querier(ctx, r.db).Exec(ctx,
		`UPDATE users SET image_file = $1 WHERE id = $2`, imageFile, id,
	)
	if err != nil {
		return &domain.RepositoryError{Op: "UpdateImageFile", Err: err.Error()}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
