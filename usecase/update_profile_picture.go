package usecase

import (
	"context"
	"io"
	"log/slog"

	"inkwell/domain"
	"inkwell/port"
)

type UpdateProfilePictureUsecase struct {
	userRepo port.UserRepository
	pictures port.PictureStore
	logger   *slog.Logger
}

func NewUpdateProfilePictureUsecase(userRepo port.UserRepository, pictures port.PictureStore, logger *slog.Logger) *UpdateProfilePictureUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateProfilePictureUsecase{
		userRepo: userRepo,
		pictures: pictures,
		logger:   logger,
	}
}

// Execute stores the uploaded picture, points the account at it and
// removes the previous file. The stock default picture is shared by
// all accounts and never deleted.
func (u *UpdateProfilePictureUsecase) Execute(ctx context.Context, userID int64, upload io.Reader) (string, error) {
	user, err := u.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	filename, err := u.pictures.Save(ctx, upload)
	if err != nil {
		return "", err
	}

	if err := u.userRepo.UpdateImageFile(ctx, userID, filename); err != nil {
		if removeErr := u.pictures.Remove(ctx, filename); removeErr != nil {
			u.logger.Warn("orphaned uploaded picture", "file", filename, "error", removeErr)
		}
		return "", err
	}

	if user.ImageFile != "" && user.ImageFile != domain.DefaultImageFile {
		if err := u.pictures.Remove(ctx, user.ImageFile); err != nil {
			u.logger.Warn("failed to remove previous picture", "file", user.ImageFile, "error", err)
		}
	}

	return filename, nil
}
