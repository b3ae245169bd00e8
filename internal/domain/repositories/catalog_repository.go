package repositories

import (
	"context"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// CatalogRepository loads the clinical reference catalog
type CatalogRepository interface {
	// Load returns the raw catalog tables. Validation happens in services.NewCatalog.
	Load(ctx context.Context) (*entities.CatalogData, error)
}

// CatalogSearchRepository provides typeahead search over diagnoses and surgeries
type CatalogSearchRepository interface {
	// Index replaces the indexed entries
	Index(ctx context.Context, entries []entities.CatalogEntry) error

	// Search returns entries matching query. An empty sourceType searches both.
	Search(ctx context.Context, query string, sourceType entities.SourceType, limit int) ([]entities.CatalogEntry, error)
}
