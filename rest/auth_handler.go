package rest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"inkwell/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,max=20"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	ImageFile string `json:"image_file"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		ImageFile: user.ImageFile,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.registerUser.Execute(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, token, err := h.loginUser.Execute(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// RequestPasswordReset responds 202 whether or not the email matches
// an account.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.requestReset.Execute(c.Request().Context(), req.Email); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

func (h *Handler) ConfirmPasswordReset(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.confirmReset.Execute(c.Request().Context(), req.Token, req.Password); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}
