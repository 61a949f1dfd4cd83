package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ReindexPosts wipes and rebuilds the posts index from the relational
// store. Synchronous; meant for operators, not end users.
func (h *Handler) ReindexPosts(c echo.Context) error {
	indexed, err := h.reindexPosts.Execute(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"indexed": indexed})
}
