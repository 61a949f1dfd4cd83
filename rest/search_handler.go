package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/domain"
)

type searchHitResponse struct {
	Post       postResponse        `json:"post"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

type searchResponse struct {
	Query    string              `json:"query"`
	Hits     []searchHitResponse `json:"hits"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	HasNext  bool                `json:"has_next"`
	HasPrev  bool                `json:"has_prev"`
}

// SearchPosts answers GET /v1/search/posts?q=...&page=...&page_size=...
// It always responds 200: a blank query, a disabled engine and an
// engine outage all produce an empty page.
func (h *Handler) SearchPosts(c echo.Context) error {
	query := c.QueryParam("q")
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 5)

	result, err := h.searchPosts.Execute(c.Request().Context(), query, page, pageSize)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSearchResponse(result))
}

func toSearchResponse(result *domain.SearchResult) searchResponse {
	resp := searchResponse{
		Query:    result.Query,
		Hits:     make([]searchHitResponse, 0, len(result.Posts)),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
		HasNext:  result.HasNext,
		HasPrev:  result.HasPrev,
	}
	for _, hit := range result.Posts {
		resp.Hits = append(resp.Hits, searchHitResponse{
			Post:       toPostResponse(hit.Post),
			Highlights: hit.Highlights,
		})
	}
	return resp
}
