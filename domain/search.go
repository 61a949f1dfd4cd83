package domain

// Searchable is the capability implemented by entity types that are
// mirrored into the full-text index. Each implementing type declares
// its own namespace (one index per entity type) and the set of fields
// worth indexing. The relational store stays the source of truth; a
// document in the index is always rebuildable from the entity.
type Searchable interface {
	SearchID() int64
	SearchNamespace() string
	SearchFields() map[string]string
}

// SearchDocument is the indexed form of a Searchable: its identifier
// plus the current values of its searchable fields. Last write wins,
// there is no versioning.
type SearchDocument struct {
	ID     int64
	Fields map[string]string
}

func NewSearchDocument(s Searchable) SearchDocument {
	return SearchDocument{
		ID:     s.SearchID(),
		Fields: s.SearchFields(),
	}
}

// SearchHit is one engine result: the entity identifier and optional
// per-field highlight fragments with the matched terms wrapped in
// <em> markup. Hits only live for the duration of one query.
type SearchHit struct {
	ID         int64
	Highlights map[string][]string
}

// QueryResult is the raw engine response for one page of results.
// IDs are in relevance order; Total is the engine's overall count,
// which may exceed len(IDs).
type QueryResult struct {
	IDs   []int64
	Total int64
	Hits  []SearchHit
}

// PostHit is a hydrated search result: the relational row plus the
// highlight fragments of its hit, matched by identifier.
type PostHit struct {
	Post       *Post
	Highlights map[string][]string
}

// SearchResult is one page of hydrated, relevance-ordered results.
type SearchResult struct {
	Query    string
	Posts    []PostHit
	Total    int64
	Page     int
	PageSize int
	HasNext  bool
	HasPrev  bool
}
