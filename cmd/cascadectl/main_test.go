package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_EmbeddedCatalog(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)

	var summary catalogSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "2026.1", summary.Version)
	assert.Equal(t, 6, summary.Diagnoses)
	assert.Equal(t, 4, summary.Surgeries)
	assert.Equal(t, 8, summary.AdjustmentOptions)
}

func TestValidate_RejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\ndiagnoses:\n  - name: missing id\n"), 0o600))

	_, err := run(t, "validate", "--catalog", path)
	assert.Error(t, err)
}

func TestValidate_CatalogFromEnv(t *testing.T) {
	t.Setenv("CASCADE_CATALOG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := run(t, "validate")
	assert.Error(t, err)
}

func TestResolve_Aggregate(t *testing.T) {
	out, err := run(t, "resolve",
		"--diagnosis", "dx-appendicitis",
		"--surgery", "sx-lap-appendectomy",
		"--complication", "cx-sepsis",
		"--day", "D1",
	)
	require.NoError(t, err)

	var derivation entities.Derivation
	require.NoError(t, json.Unmarshal([]byte(out), &derivation))
	require.NotEmpty(t, derivation.Complications)
	assert.Equal(t, "cx-sepsis", derivation.Complications[0].ID)
	require.NotEmpty(t, derivation.Medications)
	assert.Equal(t, "med-paracetamol", derivation.Medications[0].ID)
	assert.False(t, derivation.NothingSelected)
}

func TestResolve_Scoped(t *testing.T) {
	out, err := run(t, "resolve", "--scope", "surgery/sx-lap-appendectomy")
	require.NoError(t, err)

	var result scopedResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Complications, 3)
	assert.Equal(t, "cx-ssi", result.Complications[0].ID)

	_, err = run(t, "resolve", "--scope", "ward/icu")
	assert.ErrorContains(t, err, "scope must look like")
}

func TestResolve_RejectsBadDay(t *testing.T) {
	_, err := run(t, "resolve", "--day", "D9")
	assert.Error(t, err)
}

func TestPrice(t *testing.T) {
	out, err := run(t, "price", "--base", "2698", "--primary", "discount_10", "--secondary", "discount_50")
	require.NoError(t, err)

	var result priceResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "270", result.DiscountAmount.String())
	assert.Equal(t, "1214", result.SubDiscountAmount.String())
	assert.Equal(t, "1214", result.FinalAmount.String())

	out, err = run(t, "price", "--base", "2698", "--secondary", "discount_50")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, entities.OptionNone, result.SecondaryAdjustment)
	assert.Equal(t, "2698", result.FinalAmount.String())
}

func TestPrice_RejectsBadBase(t *testing.T) {
	_, err := run(t, "price", "--base", "abc")
	assert.ErrorContains(t, err, "invalid --base")

	_, err = run(t, "price", "--base", "-5")
	assert.ErrorContains(t, err, "must not be negative")

	_, err = run(t, "price")
	assert.Error(t, err)
}
