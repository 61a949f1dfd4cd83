package usecase

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"inkwell/auth"
	"inkwell/domain"
	"inkwell/port"
)

type LoginUserUsecase struct {
	userRepo port.UserRepository
	tokens   *auth.TokenManager
}

func NewLoginUserUsecase(userRepo port.UserRepository, tokens *auth.TokenManager) *LoginUserUsecase {
	return &LoginUserUsecase{userRepo: userRepo, tokens: tokens}
}

// Execute verifies the credentials and issues a session token. Unknown
// email and wrong password collapse into the same error so the response
// does not reveal which accounts exist.
func (u *LoginUserUsecase) Execute(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
