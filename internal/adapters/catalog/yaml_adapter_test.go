package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

func TestYAMLCatalogAdapter_DefaultCatalogIsValid(t *testing.T) {
	data, err := NewYAMLCatalogAdapter("").Load(context.Background())
	require.NoError(t, err)

	catalog, err := services.NewCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, "2026.1", catalog.Version())

	opt, ok := catalog.Option("discount_10")
	require.True(t, ok)
	assert.Equal(t, "10", opt.Percentage.String())
	assert.Equal(t, entities.AdjustmentKindDiscount, opt.Kind)

	meds, ok := catalog.DayMedications(entities.TreatmentDay1)
	require.True(t, ok)
	assert.Equal(t, "med-paracetamol", meds[0].ID)
}

func TestYAMLCatalogAdapter_DefaultCatalogPrices(t *testing.T) {
	data, err := NewYAMLCatalogAdapter("").Load(context.Background())
	require.NoError(t, err)
	catalog, err := services.NewCatalog(data)
	require.NoError(t, err)

	adjuster := services.NewPricingAdjuster(catalog)
	adj := entities.NewPricingAdjustment(mustDecimal(t, "2698"))
	adj.Primary = "discount_10"
	adj.Secondary = "discount_50"

	result := adjuster.Compute(adj)
	assert.Equal(t, "270", result.DiscountAmount.String())
	assert.Equal(t, "1214", result.SubDiscountAmount.String())
	assert.Equal(t, "1214", result.FinalAmount.String())
}

func TestYAMLCatalogAdapter_LoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
version: "site-7"
diagnoses:
  - id: dx-1
    name: Fracture Neck of Femur
    code: S72.00
surgeries: []
adjustment_options:
  - id: discount_12_5
    label: Staff 12.5%
    percentage: "12.5%"
    kind: Discount
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	data, err := NewYAMLCatalogAdapter(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "site-7", data.Version)
	require.Len(t, data.Diagnoses, 1)
	assert.Equal(t, "S72.00", data.Diagnoses[0].Code)
	require.Len(t, data.AdjustmentOptions, 1)
	assert.Equal(t, "12.5", data.AdjustmentOptions[0].Percentage.String())
	assert.Equal(t, entities.AdjustmentKindDiscount, data.AdjustmentOptions[0].Kind)
}

func TestYAMLCatalogAdapter_Errors(t *testing.T) {
	_, err := NewYAMLCatalogAdapter(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background())
	assert.ErrorContains(t, err, "failed to read catalog file")

	_, err = ParseYAML([]byte("diagnoses: {not: [a list"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeMalformedCatalog, apperrors.TypeOf(err))

	_, err = ParseYAML([]byte("adjustment_options:\n  - id: bad\n    percentage: ten\n    kind: discount\n"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeMalformedCatalog, apperrors.TypeOf(err))
}

func TestDefaultCatalogYAML_ReturnsCopy(t *testing.T) {
	first := DefaultCatalogYAML()
	first[0] = '#'
	assert.NotEqual(t, first[0], DefaultCatalogYAML()[0])
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}
