package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"inkwell/domain"
)

func newMockUserRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("corey", "corey@example.com", "hash", "default.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))

	user := &domain.User{
		Username: "corey", Email: "corey@example.com",
		PasswordHash: "hash", ImageFile: "default.jpg",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID != 1 {
		t.Errorf("CreateUser() id = %d, want 1", user.ID)
	}
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("corey", "corey@example.com", "hash", "default.jpg").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	user := &domain.User{
		Username: "corey", Email: "corey@example.com",
		PasswordHash: "hash", ImageFile: "default.jpg",
	}
	err := repo.CreateUser(context.Background(), user)
	if !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("CreateUser() error = %v, want ErrDuplicate", err)
	}
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	repo, mock := newMockUserRepo(t)
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "image_file", "created_at"}).
		AddRow(int64(2), "corey", "corey@example.com", "hash", "default.jpg", now)
	mock.ExpectQuery(`SELECT id, username, email, password_hash, image_file, created_at`).
		WithArgs("corey@example.com").
		WillReturnRows(rows)

	user, err := repo.GetUserByEmail(context.Background(), "corey@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if user.Username != "corey" {
		t.Errorf("GetUserByEmail() username = %q", user.Username)
	}
}

func TestUserRepository_GetUserByID_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery(`SELECT id, username, email, password_hash, image_file, created_at`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "image_file", "created_at"}))

	_, err := repo.GetUserByID(context.Background(), 9)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserRepository_UpdatePasswordHash_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("newhash", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePasswordHash(context.Background(), 5, "newhash")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdatePasswordHash() error = %v, want ErrNotFound", err)
	}
}

func TestUserRepository_UpdateImageFile(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectExec(`UPDATE users SET image_file`).
		WithArgs("abc.jpg", int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdateImageFile(context.Background(), 5, "abc.jpg"); err != nil {
		t.Fatalf("UpdateImageFile() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
