package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

type MockCatalogSearchRepository struct {
	mock.Mock
}

func (m *MockCatalogSearchRepository) Index(ctx context.Context, entries []entities.CatalogEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockCatalogSearchRepository) Search(ctx context.Context, query string, sourceType entities.SourceType, limit int) ([]entities.CatalogEntry, error) {
	args := m.Called(ctx, query, sourceType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.CatalogEntry), args.Error(1)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Load(ctx context.Context) (*entities.CatalogData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CatalogData), args.Error(1)
}

func TestLoadCatalog(t *testing.T) {
	repo := new(MockCatalogRepository)
	repo.On("Load", mock.Anything).Return(testCatalogData(), nil)

	catalog, err := services.LoadCatalog(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "test-1", catalog.Version())

	failing := new(MockCatalogRepository)
	failing.On("Load", mock.Anything).Return(nil, errors.New("file not found"))
	_, err = services.LoadCatalog(context.Background(), failing)
	assert.ErrorContains(t, err, "failed to load catalog")
}

func TestCatalogService_SearchUsesIndex(t *testing.T) {
	indexed := []entities.CatalogEntry{{ID: "d-appendicitis", Name: "Acute Appendicitis", SourceType: entities.SourceTypeDiagnosis}}
	search := new(MockCatalogSearchRepository)
	search.On("Search", mock.Anything, "append", entities.SourceTypeDiagnosis, 20).Return(indexed, nil)

	service := services.NewCatalogService(newTestCatalog(t), search)
	got, err := service.Search(context.Background(), " append ", entities.SourceTypeDiagnosis, 0)

	require.NoError(t, err)
	assert.Equal(t, indexed, got)
	search.AssertExpectations(t)
}

func TestCatalogService_SearchFallsBackToLocal(t *testing.T) {
	search := new(MockCatalogSearchRepository)
	search.On("Search", mock.Anything, "chole", entities.SourceType(""), 100).Return(nil, errors.New("typesense timeout"))

	service := services.NewCatalogService(newTestCatalog(t), search)
	got, err := service.Search(context.Background(), "chole", "", 500)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d-cholecystitis", got[0].ID)
	assert.Equal(t, "s-cholecystectomy", got[1].ID)
}

func TestCatalogService_SearchWithoutIndex(t *testing.T) {
	service := services.NewCatalogService(newTestCatalog(t), nil)

	got, err := service.Search(context.Background(), "nothing-matches", "", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCatalogService_Reindex(t *testing.T) {
	search := new(MockCatalogSearchRepository)
	search.On("Index", mock.Anything, mock.MatchedBy(func(entries []entities.CatalogEntry) bool {
		return len(entries) == 5
	})).Return(nil)

	service := services.NewCatalogService(newTestCatalog(t), search)
	count, err := service.Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, count)

	_, err = services.NewCatalogService(newTestCatalog(t), nil).Reindex(context.Background())
	assert.Error(t, err)
}
