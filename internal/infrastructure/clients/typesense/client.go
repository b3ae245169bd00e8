package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/chatgptnotes/adamrit.in-sub001/pkg/config"
	"github.com/chatgptnotes/adamrit.in-sub001/pkg/retry"
)

const (
	CatalogCollection = "catalog_entries"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client and waits for the server to be healthy
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.Connect(ctx, "typesense", func(ctx context.Context) error {
		healthy, err := client.Health(ctx, 2*time.Second)
		if err != nil {
			return err
		}
		if !healthy {
			return fmt.Errorf("typesense reports unhealthy")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// CatalogSchema is the collection holding diagnoses and surgeries for typeahead
func CatalogSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CatalogCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "entry_id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "code", Type: "string", Optional: pointer.True()},
			{Name: "source_type", Type: "string", Facet: pointer.True()},
			{Name: "position", Type: "int32"},
		},
		DefaultSortingField: pointer.String("position"),
	}
}

// InitSchema ensures the catalog collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == CatalogCollection {
			log.Debug().Str("collection", CatalogCollection).Msg("typesense collection already exists")
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, CatalogSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", CatalogCollection).Msg("created typesense collection")
	return nil
}

// DropSchema deletes the catalog collection if it exists
func (c *Client) DropSchema(ctx context.Context) error {
	if _, err := c.client.Collection(CatalogCollection).Retrieve(ctx); err != nil {
		return nil
	}
	if _, err := c.client.Collection(CatalogCollection).Delete(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
