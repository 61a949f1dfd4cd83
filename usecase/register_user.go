package usecase

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"inkwell/domain"
	"inkwell/port"
)

const minPasswordLength = 8

type RegisterUserUsecase struct {
	userRepo port.UserRepository
}

func NewRegisterUserUsecase(userRepo port.UserRepository) *RegisterUserUsecase {
	return &RegisterUserUsecase{userRepo: userRepo}
}

func (u *RegisterUserUsecase) Execute(ctx context.Context, username, email, password string) (*domain.User, error) {
	if len(password) < minPasswordLength {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(username, email, string(hash))
	if err != nil {
		return nil, err
	}

	if err := u.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
