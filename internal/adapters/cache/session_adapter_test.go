package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

type failingCache struct {
	*MemoryAdapter
	err error
}

func (f *failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, f.err
}

func TestSessionCacheAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionCacheAdapter(NewMemoryAdapter(), 3600)

	day := entities.TreatmentDay2
	snapshot := &entities.SelectionSnapshot{
		SessionID:            "sess-1",
		VisitID:              "visit-1",
		SelectedDiagnoses:    []string{"d-1", "d-2"},
		CheckedComplications: []string{"c-1"},
		ActiveDay:            &day,
		LineItems: []entities.LineItemPricing{{
			LineItem: 1,
			Adjustment: entities.PricingAdjustment{
				BaseAmount: decimal.RequireFromString("2698.50"),
				Primary:    "discount_10",
				Secondary:  "none",
			},
		}},
		Version:   3,
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, repo.Save(ctx, snapshot))

	loaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.SelectedDiagnoses, loaded.SelectedDiagnoses)
	assert.Equal(t, entities.TreatmentDay2, *loaded.ActiveDay)
	assert.Nil(t, loaded.InvestigationFilter)
	assert.Equal(t, 3, loaded.Version)
	assert.True(t, loaded.CreatedAt.Equal(snapshot.CreatedAt))
	require.Len(t, loaded.LineItems, 1)
	assert.True(t, loaded.LineItems[0].Adjustment.BaseAmount.Equal(decimal.RequireFromString("2698.5")))

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionCacheAdapter_BackendFailure(t *testing.T) {
	repo := NewSessionCacheAdapter(&failingCache{MemoryAdapter: NewMemoryAdapter(), err: errors.New("i/o timeout")}, 60)

	_, err := repo.Get(context.Background(), "sess-1")
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestSessionCacheAdapter_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryAdapter()
	require.NoError(t, mem.Set(ctx, "session:sess-bad", []byte("{not json"), 60))

	_, err := NewSessionCacheAdapter(mem, 60).Get(ctx, "sess-bad")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeInternal, apperrors.TypeOf(err))
}
