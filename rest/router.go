// Package rest exposes the HTTP API.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"inkwell/auth"
	"inkwell/config"
	"inkwell/domain"
	"inkwell/middleware"
	"inkwell/port"
	"inkwell/usecase"
)

// Handler bundles the usecases behind the HTTP surface.
type Handler struct {
	createPost    *usecase.CreatePostUsecase
	updatePost    *usecase.UpdatePostUsecase
	deletePost    *usecase.DeletePostUsecase
	getPost       *usecase.GetPostUsecase
	listPosts     *usecase.ListPostsUsecase
	searchPosts   *usecase.SearchPostsUsecase
	reindexPosts  *usecase.ReindexPostsUsecase
	registerUser  *usecase.RegisterUserUsecase
	loginUser     *usecase.LoginUserUsecase
	requestReset  *usecase.RequestPasswordResetUsecase
	confirmReset  *usecase.ConfirmPasswordResetUsecase
	updatePicture *usecase.UpdateProfilePictureUsecase
	userRepo      port.UserRepository
	logger        *slog.Logger
}

type HandlerDeps struct {
	CreatePost    *usecase.CreatePostUsecase
	UpdatePost    *usecase.UpdatePostUsecase
	DeletePost    *usecase.DeletePostUsecase
	GetPost       *usecase.GetPostUsecase
	ListPosts     *usecase.ListPostsUsecase
	SearchPosts   *usecase.SearchPostsUsecase
	ReindexPosts  *usecase.ReindexPostsUsecase
	RegisterUser  *usecase.RegisterUserUsecase
	LoginUser     *usecase.LoginUserUsecase
	RequestReset  *usecase.RequestPasswordResetUsecase
	ConfirmReset  *usecase.ConfirmPasswordResetUsecase
	UpdatePicture *usecase.UpdateProfilePictureUsecase
	UserRepo      port.UserRepository
	Logger        *slog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		createPost:    deps.CreatePost,
		updatePost:    deps.UpdatePost,
		deletePost:    deps.DeletePost,
		getPost:       deps.GetPost,
		listPosts:     deps.ListPosts,
		searchPosts:   deps.SearchPosts,
		reindexPosts:  deps.ReindexPosts,
		registerUser:  deps.RegisterUser,
		loginUser:     deps.LoginUser,
		requestReset:  deps.RequestReset,
		confirmReset:  deps.ConfirmReset,
		updatePicture: deps.UpdatePicture,
		userRepo:      deps.UserRepo,
		logger:        logger,
	}
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// NewRouter builds the echo instance with all routes registered.
func NewRouter(h *Handler, tokens *auth.TokenManager, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Recover())

	e.Static("/static/profile_pics", cfg.Uploads.Dir)

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/reset_password", h.RequestPasswordReset)
	v1.POST("/auth/reset_password/confirm", h.ConfirmPasswordReset)

	v1.GET("/posts", h.ListPosts)
	v1.GET("/posts/:id", h.GetPost)
	v1.GET("/search/posts", h.SearchPosts)

	authed := v1.Group("", middleware.Auth(tokens))
	authed.POST("/posts", h.CreatePost)
	authed.PUT("/posts/:id", h.UpdatePost)
	authed.DELETE("/posts/:id", h.DeletePost)
	authed.GET("/users/me", h.CurrentUser)
	authed.PUT("/users/me/picture", h.UpdateProfilePicture)
	authed.POST("/admin/search/reindex", h.ReindexPosts)

	return e
}

// respondError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the detail stays in the
// log.
func (h *Handler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, domain.ErrDuplicate):
		return c.JSON(http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody("invalid credentials"))
	default:
		h.logger.Error("request failed",
			"path", c.Request().URL.Path,
			"method", c.Request().Method,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
	}
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}
