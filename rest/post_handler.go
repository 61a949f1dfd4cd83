package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"inkwell/domain"
	"inkwell/middleware"
)

type postRequest struct {
	Title    string `json:"title" validate:"required,max=100"`
	Content  string `json:"content" validate:"required"`
	Category string `json:"category"`
}

type postResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

func toPostResponse(post *domain.Post) postResponse {
	return postResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Category:  post.Category,
		UserID:    post.UserID,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
	}
}

type postPageResponse struct {
	Posts    []postResponse `json:"posts"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasNext  bool           `json:"has_next"`
	HasPrev  bool           `json:"has_prev"`
}

func (h *Handler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.createPost.Execute(c.Request().Context(), req.Title, req.Content, req.Category, middleware.UserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toPostResponse(post))
}

func (h *Handler) UpdatePost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid post id"))
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.updatePost.Execute(c.Request().Context(), postID, middleware.UserID(c), req.Title, req.Content, req.Category)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) DeletePost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid post id"))
	}

	if err := h.deletePost.Execute(c.Request().Context(), postID, middleware.UserID(c)); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPost(c echo.Context) error {
	postID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid post id"))
	}

	post, err := h.getPost.Execute(c.Request().Context(), postID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

func (h *Handler) ListPosts(c echo.Context) error {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 5)

	result, err := h.listPosts.Execute(c.Request().Context(), page, pageSize)
	if err != nil {
		return h.respondError(c, err)
	}

	resp := postPageResponse{
		Posts:    make([]postResponse, 0, len(result.Posts)),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		HasNext:  result.HasNext,
		HasPrev:  result.HasPrev,
	}
	for _, post := range result.Posts {
		resp.Posts = append(resp.Posts, toPostResponse(post))
	}
	return c.JSON(http.StatusOK, resp)
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
