package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// CatalogService serves catalog listings and typeahead search
type CatalogService struct {
	catalog *Catalog
	search  repositories.CatalogSearchRepository
}

// LoadCatalog reads catalog data from repo and validates it
func LoadCatalog(ctx context.Context, repo repositories.CatalogRepository) (*Catalog, error) {
	data, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	catalog, err := NewCatalog(data)
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("version", catalog.Version()).
		Int("diagnoses", len(catalog.diagnoses)).
		Int("surgeries", len(catalog.surgeries)).
		Int("adjustment_options", len(catalog.options)).
		Msg("catalog loaded")
	return catalog, nil
}

// NewCatalogService creates a new catalog service. search may be nil, in
// which case searches run against the in-memory catalog.
func NewCatalogService(catalog *Catalog, search repositories.CatalogSearchRepository) *CatalogService {
	return &CatalogService{catalog: catalog, search: search}
}

// Catalog returns the underlying catalog
func (s *CatalogService) Catalog() *Catalog {
	return s.catalog
}

// Search finds diagnoses and surgeries by name or code. A failing search
// index degrades to the local search instead of failing the request.
func (s *CatalogService) Search(ctx context.Context, query string, sourceType entities.SourceType, limit int) ([]entities.CatalogEntry, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	query = strings.TrimSpace(query)

	if s.search != nil && query != "" {
		results, err := s.search.Search(ctx, query, sourceType, limit)
		if err == nil {
			return results, nil
		}
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("query", query).
			Msg("catalog search index unavailable, using local search")
	}

	results := s.catalog.SearchLocal(query, sourceType, limit)
	if results == nil {
		results = []entities.CatalogEntry{}
	}
	return results, nil
}

// Reindex pushes every diagnosis and surgery to the search index
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, fmt.Errorf("no search index configured")
	}
	entries := s.catalog.Entries("")
	if err := s.search.Index(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to index catalog: %w", err)
	}
	observability.LoggerFromContext(ctx).Info().
		Int("entries", len(entries)).
		Str("version", s.catalog.Version()).
		Msg("catalog indexed")
	return len(entries), nil
}
