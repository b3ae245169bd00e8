package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	tsclient "github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/clients/typesense"
)

// CatalogSearchAdapter implements catalog typeahead using Typesense
type CatalogSearchAdapter struct {
	client *tsclient.Client
}

// Ensure CatalogSearchAdapter implements CatalogSearchRepository
var _ repositories.CatalogSearchRepository = (*CatalogSearchAdapter)(nil)

// NewCatalogSearchAdapter creates a new Typesense catalog search adapter
func NewCatalogSearchAdapter(client *tsclient.Client) *CatalogSearchAdapter {
	return &CatalogSearchAdapter{client: client}
}

// Index rebuilds the collection from entries, keeping their order as position
func (a *CatalogSearchAdapter) Index(ctx context.Context, entries []entities.CatalogEntry) error {
	if err := a.client.DropSchema(ctx); err != nil {
		return err
	}
	if err := a.client.InitSchema(ctx); err != nil {
		return err
	}

	documents := a.client.Client().Collection(tsclient.CatalogCollection).Documents()
	for i, entry := range entries {
		if _, err := documents.Upsert(ctx, buildDocument(entry, i)); err != nil {
			return fmt.Errorf("failed to index %s %q: %w", entry.SourceType, entry.ID, err)
		}
	}
	return nil
}

// Search queries names and codes, optionally for one source type
func (a *CatalogSearchAdapter) Search(ctx context.Context, query string, sourceType entities.SourceType, limit int) ([]entities.CatalogEntry, error) {
	result, err := a.client.Client().Collection(tsclient.CatalogCollection).Documents().Search(ctx, buildSearchParams(query, sourceType, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	entries := []entities.CatalogEntry{}
	if result.Hits == nil {
		return entries, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if entry, ok := entryFromDocument(*hit.Document); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func documentID(entry entities.CatalogEntry) string {
	return string(entry.SourceType) + "-" + entry.ID
}

func buildDocument(entry entities.CatalogEntry, position int) map[string]interface{} {
	return map[string]interface{}{
		"id":          documentID(entry),
		"entry_id":    entry.ID,
		"name":        entry.Name,
		"code":        entry.Code,
		"source_type": string(entry.SourceType),
		"position":    position,
	}
}

func buildSearchParams(query string, sourceType entities.SourceType, limit int) *api.SearchCollectionParams {
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}
	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String("name,code"),
		Page:    pointer.Int(1),
		PerPage: pointer.Int(limit),
		SortBy:  pointer.String("_text_match:desc,position:asc"),
	}
	if sourceType != "" {
		params.FilterBy = pointer.String("source_type:=" + string(sourceType))
	}
	return params
}

func entryFromDocument(doc map[string]interface{}) (entities.CatalogEntry, bool) {
	id, _ := doc["entry_id"].(string)
	rawType, _ := doc["source_type"].(string)
	sourceType, ok := entities.ParseSourceType(rawType)
	if id == "" || !ok {
		return entities.CatalogEntry{}, false
	}
	entry := entities.CatalogEntry{ID: id, SourceType: sourceType}
	entry.Name, _ = doc["name"].(string)
	entry.Code, _ = doc["code"].(string)
	return entry, true
}
