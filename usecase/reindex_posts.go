package usecase

import (
	"context"
	"log/slog"
	"time"

	"inkwell/domain"
	"inkwell/port"
)

const reindexBatchSize = 500

// ReindexPostsUsecase rebuilds the posts index from the relational
// store. The index is wiped first, so a rebuild also purges documents
// whose rows were deleted while the engine was unreachable. Searches
// running during a rebuild see partial results until it finishes.
type ReindexPostsUsecase struct {
	searchEngine port.SearchEngine
	postRepo     port.PostRepository
	logger       *slog.Logger
}

func NewReindexPostsUsecase(searchEngine port.SearchEngine, postRepo port.PostRepository, logger *slog.Logger) *ReindexPostsUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReindexPostsUsecase{
		searchEngine: searchEngine,
		postRepo:     postRepo,
		logger:       logger,
	}
}

// Execute returns the number of posts written to the index.
func (u *ReindexPostsUsecase) Execute(ctx context.Context) (int, error) {
	if !u.searchEngine.Enabled() {
		u.logger.Info("reindex skipped, search engine not configured")
		return 0, nil
	}

	if err := u.searchEngine.EnsureIndex(ctx, domain.PostNamespace); err != nil {
		return 0, err
	}
	if err := u.searchEngine.WipeIndex(ctx, domain.PostNamespace); err != nil {
		return 0, err
	}

	indexed := 0
	var lastCreatedAt *time.Time
	var lastID int64

	for {
		posts, nextCreatedAt, nextID, err := u.postRepo.IteratePosts(ctx, lastCreatedAt, lastID, reindexBatchSize)
		if err != nil {
			return indexed, err
		}
		if len(posts) == 0 {
			break
		}

		for _, post := range posts {
			if err := u.searchEngine.Index(ctx, post); err != nil {
				return indexed, err
			}
			indexed++
		}

		lastCreatedAt = nextCreatedAt
		lastID = nextID
	}

	u.logger.Info("reindex complete", "indexed", indexed)
	return indexed, nil
}
