package usecase

import (
	"context"
	"log/slog"
	"strings"

	"inkwell/domain"
	"inkwell/port"
)

// SearchPostsUsecase runs a full-text query and hydrates the hits from
// the relational store. The engine ranks, the store is the source of
// truth: identifiers come back in relevance order, the rows are fetched
// by identifier and re-sorted to match, and identifiers whose row has
// vanished since indexing are dropped from the page.
type SearchPostsUsecase struct {
	searchEngine port.SearchEngine
	postRepo     port.PostRepository
	logger       *slog.Logger
}

func NewSearchPostsUsecase(searchEngine port.SearchEngine, postRepo port.PostRepository, logger *slog.Logger) *SearchPostsUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchPostsUsecase{
		searchEngine: searchEngine,
		postRepo:     postRepo,
		logger:       logger,
	}
}

func (u *SearchPostsUsecase) Execute(ctx context.Context, query string, page, pageSize int) (*domain.SearchResult, error) {
	page, pageSize = normalizePaging(page, pageSize)
	query = strings.TrimSpace(query)

	if query == "" || !u.searchEngine.Enabled() {
		return emptySearchResult(query, page, pageSize), nil
	}

	offset := int64(page-1) * int64(pageSize)
	result, err := u.searchEngine.Query(ctx, domain.PostNamespace, query, offset, int64(pageSize))
	if err != nil {
		// Search is a convenience on top of the store. An unreachable
		// engine degrades to an empty page instead of failing the
		// request.
		u.logger.Error("search query failed", "query", query, "error", err)
		return emptySearchResult(query, page, pageSize), nil
	}

	if len(result.IDs) == 0 {
		r := emptySearchResult(query, page, pageSize)
		r.Total = result.Total
		r.HasPrev = page > 1
		return r, nil
	}

	posts, err := u.postRepo.GetPostsByIDs(ctx, result.IDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Post, len(posts))
	for _, post := range posts {
		byID[post.ID] = post
	}
	highlights := make(map[int64]map[string][]string, len(result.Hits))
	for _, hit := range result.Hits {
		highlights[hit.ID] = hit.Highlights
	}

	hits := make([]domain.PostHit, 0, len(result.IDs))
	for _, id := range result.IDs {
		post, ok := byID[id]
		if !ok {
			// Indexed but since deleted; the removal task has not
			// landed yet.
			continue
		}
		hits = append(hits, domain.PostHit{
			Post:       post,
			Highlights: highlights[id],
		})
	}

	return &domain.SearchResult{
		Query:    query,
		Posts:    hits,
		Total:    result.Total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  result.Total > int64(page)*int64(pageSize),
		HasPrev:  page > 1,
	}, nil
}

func emptySearchResult(query string, page, pageSize int) *domain.SearchResult {
	return &domain.SearchResult{
		Query:    query,
		Posts:    []domain.PostHit{},
		Page:     page,
		PageSize: pageSize,
	}
}
