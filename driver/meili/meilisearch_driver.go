// Package meili implements the search backend driver on Meilisearch.
package meili

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"inkwell/domain"
)

const (
	highlightPreTag  = "<em>"
	highlightPostTag = "</em>"
)

// NewClient creates a Meilisearch client.
func NewClient(host, apiKey string) meilisearch.ServiceManager {
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}

// Driver wraps the Meilisearch client. One index per namespace; typo
// tolerance and morphological matching are left to the engine's
// defaults.
type Driver struct {
	client  meilisearch.ServiceManager
	timeout time.Duration
}

func NewDriver(client meilisearch.ServiceManager, timeout time.Duration) *Driver {
	return &Driver{
		client:  client,
		timeout: timeout,
	}
}

// EnsureIndex creates the namespace's index if it does not exist and
// restricts matching to the given searchable fields. Safe to call
// repeatedly.
func (d *Driver) EnsureIndex(ctx context.Context, namespace string, searchableFields []string) error {
	if _, err := d.client.GetIndex(namespace); err == nil {
		return nil
	}

	info, err := d.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        namespace,
		PrimaryKey: "id",
	})
	if err != nil {
		if isIndexExists(err) {
			return nil
		}
		return &domain.DriverError{Op: "EnsureIndex", Err: err.Error()}
	}

	idx := d.client.Index(namespace)
	if _, err := idx.WaitForTask(info.TaskUID, d.timeout); err != nil {
		return &domain.DriverError{Op: "EnsureIndex", Err: "wait for index creation: " + err.Error()}
	}

	task, err := idx.UpdateSearchableAttributes(&searchableFields)
	if err != nil {
		return &domain.DriverError{Op: "EnsureIndex", Err: "set searchable attributes: " + err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, d.timeout); err != nil {
		return &domain.DriverError{Op: "EnsureIndex", Err: "wait for searchable attributes: " + err.Error()}
	}

	return nil
}

// IndexDocument upserts one document into the namespace.
func (d *Driver) IndexDocument(ctx context.Context, namespace string, doc domain.SearchDocument) error {
	payload := map[string]interface{}{"id": doc.ID}
	for field, value := range doc.Fields {
		payload[field] = value
	}

	idx := d.client.Index(namespace)
	task, err := idx.AddDocuments([]map[string]interface{}{payload})
	if err != nil {
		return &domain.DriverError{Op: "IndexDocument", Err: err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, d.timeout); err != nil {
		return &domain.DriverError{Op: "IndexDocument", Err: "wait for indexing task: " + err.Error()}
	}

	return nil
}

// DeleteDocument removes one document by identifier. Deleting an
// absent identifier succeeds.
func (d *Driver) DeleteDocument(ctx context.Context, namespace string, id int64) error {
	idx := d.client.Index(namespace)
	task, err := idx.DeleteDocument(strconv.FormatInt(id, 10))
	if err != nil {
		if isIndexNotFound(err) {
			return fmt.Errorf("DeleteDocument: %w", domain.ErrIndexNotFound)
		}
		return &domain.DriverError{Op: "DeleteDocument", Err: err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, d.timeout); err != nil {
		return &domain.DriverError{Op: "DeleteDocument", Err: "wait for delete task: " + err.Error()}
	}

	return nil
}

// DeleteAllDocuments wipes the namespace. Used by the administrative
// reindex before rebuilding from the relational store.
func (d *Driver) DeleteAllDocuments(ctx context.Context, namespace string) error {
	idx := d.client.Index(namespace)
	task, err := idx.DeleteAllDocuments()
	if err != nil {
		if isIndexNotFound(err) {
			return fmt.Errorf("DeleteAllDocuments: %w", domain.ErrIndexNotFound)
		}
		return &domain.DriverError{Op: "DeleteAllDocuments", Err: err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, d.timeout); err != nil {
		return &domain.DriverError{Op: "DeleteAllDocuments", Err: "wait for wipe task: " + err.Error()}
	}

	return nil
}

// Search runs a paginated query with per-field highlighting and
// returns identifiers in relevance order plus the engine's total.
func (d *Driver) Search(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error) {
	req := &meilisearch.SearchRequest{
		Offset:                offset,
		Limit:                 limit,
		AttributesToHighlight: []string{"*"},
		HighlightPreTag:       highlightPreTag,
		HighlightPostTag:      highlightPostTag,
	}

	res, err := d.client.Index(namespace).Search(phrase, req)
	if err != nil {
		if isIndexNotFound(err) {
			return nil, fmt.Errorf("Search: %w", domain.ErrIndexNotFound)
		}
		return nil, &domain.DriverError{Op: "Search", Err: err.Error()}
	}

	result := &domain.QueryResult{
		IDs:   make([]int64, 0, len(res.Hits)),
		Total: res.EstimatedTotalHits,
		Hits:  make([]domain.SearchHit, 0, len(res.Hits)),
	}

	for _, raw := range res.Hits {
		hitMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		id, ok := extractID(hitMap)
		if !ok {
			continue
		}

		result.IDs = append(result.IDs, id)
		result.Hits = append(result.Hits, domain.SearchHit{
			ID:         id,
			Highlights: extractHighlights(hitMap),
		})
	}

	return result, nil
}

// extractID reads the document identifier. JSON decoding yields
// float64 for numbers; indexes written by older snapshots may carry
// string identifiers.
func extractID(hit map[string]interface{}) (int64, bool) {
	switch v := hit["id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// extractHighlights collects the formatted field values that actually
// contain an emphasized match.
func extractHighlights(hit map[string]interface{}) map[string][]string {
	formatted, ok := hit["_formatted"].(map[string]interface{})
	if !ok {
		return nil
	}

	highlights := make(map[string][]string)
	for field, raw := range formatted {
		if field == "id" {
			continue
		}
		value, ok := raw.(string)
		if !ok || !strings.Contains(value, highlightPreTag) {
			continue
		}
		highlights[field] = append(highlights[field], value)
	}

	if len(highlights) == 0 {
		return nil
	}
	return highlights
}

func isIndexNotFound(err error) bool {
	var mErr *meilisearch.Error
	if errors.As(err, &mErr) {
		return mErr.MeilisearchApiError.Code == "index_not_found"
	}
	return false
}

func isIndexExists(err error) bool {
	var mErr *meilisearch.Error
	if errors.As(err, &mErr) {
		return mErr.MeilisearchApiError.Code == "index_already_exists"
	}
	return false
}
