// Package gateway adapts drivers to the application ports.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/domain"
)

// SearchDriver is the driver-level contract the gateway consumes.
type SearchDriver interface {
	EnsureIndex(ctx context.Context, namespace string, searchableFields []string) error
	IndexDocument(ctx context.Context, namespace string, doc domain.SearchDocument) error
	DeleteDocument(ctx context.Context, namespace string, id int64) error
	DeleteAllDocuments(ctx context.Context, namespace string) error
	Search(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error)
}

// SearchEngineGateway implements port.SearchEngine. A nil driver means
// no search backend is configured for the process: every mutation is a
// silent no-op and every query returns an empty result. Real engine
// errors pass through so the task layer's retry policy sees them.
type SearchEngineGateway struct {
	driver SearchDriver
	fields map[string][]string
	logger *slog.Logger
}

// NewSearchEngineGateway creates the gateway. fields maps each index
// namespace to its searchable field names; driver may be nil for the
// disabled mode.
func NewSearchEngineGateway(driver SearchDriver, fields map[string][]string, logger *slog.Logger) *SearchEngineGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchEngineGateway{
		driver: driver,
		fields: fields,
		logger: logger,
	}
}

func (g *SearchEngineGateway) Enabled() bool {
	return g.driver != nil
}

func (g *SearchEngineGateway) EnsureIndex(ctx context.Context, namespace string) error {
	if !g.Enabled() {
		return nil
	}

	if err := g.driver.EnsureIndex(ctx, namespace, g.fields[namespace]); err != nil {
		return &domain.SearchEngineError{Op: "EnsureIndex", Err: err.Error()}
	}
	return nil
}

func (g *SearchEngineGateway) Index(ctx context.Context, s domain.Searchable) error {
	if !g.Enabled() {
		return nil
	}

	doc := domain.NewSearchDocument(s)
	if err := g.driver.IndexDocument(ctx, s.SearchNamespace(), doc); err != nil {
		return &domain.SearchEngineError{Op: "Index", Err: err.Error()}
	}
	return nil
}

func (g *SearchEngineGateway) Remove(ctx context.Context, namespace string, id int64) error {
	if !g.Enabled() {
		return nil
	}

	err := g.driver.DeleteDocument(ctx, namespace, id)
	if err != nil {
		// Nothing to remove from an index that was never created.
		if errors.Is(err, domain.ErrIndexNotFound) {
			return nil
		}
		return &domain.SearchEngineError{Op: "Remove", Err: err.Error()}
	}
	return nil
}

func (g *SearchEngineGateway) Query(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error) {
	if !g.Enabled() {
		return emptyResult(), nil
	}

	result, err := g.driver.Search(ctx, namespace, phrase, offset, limit)
	if err != nil {
		// Self-healing on first use: create the missing index and let
		// this call see zero results.
		if errors.Is(err, domain.ErrIndexNotFound) {
			g.logger.Info("search index missing, creating", "namespace", namespace)
			if ensureErr := g.EnsureIndex(ctx, namespace); ensureErr != nil {
				g.logger.Error("failed to create missing index",
					"namespace", namespace,
					"error", ensureErr,
				)
			}
			return emptyResult(), nil
		}
		return nil, &domain.SearchEngineError{Op: "Query", Err: err.Error()}
	}

	return result, nil
}

func (g *SearchEngineGateway) WipeIndex(ctx context.Context, namespace string) error {
	if !g.Enabled() {
		return nil
	}

	err := g.driver.DeleteAllDocuments(ctx, namespace)
	if err != nil {
		if errors.Is(err, domain.ErrIndexNotFound) {
			return g.EnsureIndex(ctx, namespace)
		}
		return &domain.SearchEngineError{Op: "WipeIndex", Err: err.Error()}
	}
	return nil
}

func emptyResult() *domain.QueryResult {
	return &domain.QueryResult{
		IDs:   []int64{},
		Total: 0,
		Hits:  []domain.SearchHit{},
	}
}
