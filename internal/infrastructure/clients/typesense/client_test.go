package typesense

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/pkg/config"
)

func TestCatalogSchema(t *testing.T) {
	schema := CatalogSchema()

	assert.Equal(t, CatalogCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "position", *schema.DefaultSortingField)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "string", fields["source_type"])
	assert.Equal(t, "int32", fields["position"])
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TYPESENSE_INTEGRATION") != "true" {
		t.Skip("set TYPESENSE_INTEGRATION=true to run against a local Typesense")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, &config.TypesenseConfig{
		URL:    "http://localhost:8108",
		APIKey: "xyz",
	})
	require.NoError(t, err)

	require.NoError(t, client.DropSchema(ctx))
	require.NoError(t, client.InitSchema(ctx))
	// second call sees the existing collection
	assert.NoError(t, client.InitSchema(ctx))
}
