package port

import (
	"context"

	"inkwell/domain"
)

// SearchEngine is the application-facing contract of the full-text
// backend. Implementations must degrade to silent no-ops when no
// engine is configured for the process: Index and Remove return nil
// and Query returns an empty result. All other engine failures
// propagate so the task layer's retry policy can see them.
type SearchEngine interface {
	// EnsureIndex creates the namespace's index if it does not exist.
	// Idempotent.
	EnsureIndex(ctx context.Context, namespace string) error

	// Index upserts the document derived from s into its namespace.
	Index(ctx context.Context, s domain.Searchable) error

	// Remove deletes the document by identifier. Removing an absent
	// identifier is not an error.
	Remove(ctx context.Context, namespace string, id int64) error

	// Query runs a fuzzy multi-field match and returns identifiers in
	// relevance order, the engine's total count and per-hit highlight
	// fragments. A missing index is created lazily and the current
	// call returns an empty result.
	Query(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error)

	// WipeIndex removes every document from the namespace. Used by the
	// administrative reindex before rebuilding from the store.
	WipeIndex(ctx context.Context, namespace string) error

	// Enabled reports whether a backend is configured.
	Enabled() bool
}
