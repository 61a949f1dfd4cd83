package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"inkwell/auth"
	"inkwell/domain"
	"inkwell/port"
)

// RequestPasswordResetUsecase issues a short-lived reset token and
// queues the notification mail. It reports success for unknown email
// addresses too, so the endpoint cannot be used to probe for accounts.
type RequestPasswordResetUsecase struct {
	userRepo port.UserRepository
	tokens   *auth.TokenManager
	queue    port.TaskQueue
	logger   *slog.Logger
}

func NewRequestPasswordResetUsecase(userRepo port.UserRepository, tokens *auth.TokenManager, queue port.TaskQueue, logger *slog.Logger) *RequestPasswordResetUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestPasswordResetUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		queue:    queue,
		logger:   logger,
	}
}

func (u *RequestPasswordResetUsecase) Execute(ctx context.Context, email string) error {
	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			u.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := u.tokens.IssueReset(user.ID)
	if err != nil {
		return err
	}

	args, err := json.Marshal(domain.SendResetMailArgs{
		Recipient: user.Email,
		Username:  user.Username,
		Token:     token,
	})
	if err != nil {
		return err
	}

	// Unique per account: rapid repeat requests collapse into one
	// pending mail task instead of flooding the recipient.
	return u.queue.Enqueue(ctx, domain.Task{
		Name:   domain.TaskSendResetMail,
		Args:   args,
		Retry:  true,
		Unique: true,
		Key:    fmt.Sprintf("mail:reset:%d", user.ID),
	})
}

// ConfirmPasswordResetUsecase exchanges a valid reset token for a new
// password.
type ConfirmPasswordResetUsecase struct {
	userRepo port.UserRepository
	tokens   *auth.TokenManager
}

func NewConfirmPasswordResetUsecase(userRepo port.UserRepository, tokens *auth.TokenManager) *ConfirmPasswordResetUsecase {
	return &ConfirmPasswordResetUsecase{userRepo: userRepo, tokens: tokens}
}

func (u *ConfirmPasswordResetUsecase) Execute(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	userID, err := u.tokens.ParseReset(token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return u.userRepo.UpdatePasswordHash(ctx, userID, string(hash))
}
