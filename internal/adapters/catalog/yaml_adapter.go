package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

//go:embed data/default_catalog.yaml
var defaultCatalog []byte

// yamlOption keeps percentages as text so "12.5" parses exactly
type yamlOption struct {
	ID         string `yaml:"id"`
	Label      string `yaml:"label"`
	Percentage string `yaml:"percentage"`
	Kind       string `yaml:"kind"`
}

type yamlDocument struct {
	Version                    string                                          `yaml:"version"`
	Diagnoses                  []entities.DiagnosisRef                         `yaml:"diagnoses"`
	Surgeries                  []entities.SurgeryRef                           `yaml:"surgeries"`
	DiagnosisComplications     map[string][]entities.Complication              `yaml:"diagnosis_complications"`
	SurgeryComplications       map[string][]entities.Complication              `yaml:"surgery_complications"`
	ComplicationInvestigations map[string][]entities.Investigation             `yaml:"complication_investigations"`
	ComplicationMedications    map[string][]entities.Medication                `yaml:"complication_medications"`
	DayMedications             map[entities.TreatmentDay][]entities.Medication `yaml:"day_medications"`
	AdjustmentOptions          []yamlOption                                    `yaml:"adjustment_options"`
}

// YAMLCatalogAdapter loads reference tables from a YAML document, either the
// embedded default catalog or a file on disk.
type YAMLCatalogAdapter struct {
	path string
}

var _ repositories.CatalogRepository = (*YAMLCatalogAdapter)(nil)

// NewYAMLCatalogAdapter reads path on every Load. An empty path selects the
// embedded default catalog.
func NewYAMLCatalogAdapter(path string) *YAMLCatalogAdapter {
	return &YAMLCatalogAdapter{path: strings.TrimSpace(path)}
}

// Load reads and decodes the catalog document
func (a *YAMLCatalogAdapter) Load(ctx context.Context) (*entities.CatalogData, error) {
	content := defaultCatalog
	if a.path != "" {
		var err error
		content, err = os.ReadFile(a.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", a.path, err)
		}
	}
	return ParseYAML(content)
}

// DefaultCatalogYAML returns a copy of the embedded catalog document
func DefaultCatalogYAML() []byte {
	out := make([]byte, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// ParseYAML decodes a catalog document. Structural checks are left to
// services.NewCatalog; only undecodable values fail here.
func ParseYAML(content []byte) (*entities.CatalogData, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, apperrors.NewMalformedCatalogError("catalog yaml: %v", err)
	}

	options := make([]entities.AdjustmentOption, 0, len(doc.AdjustmentOptions))
	for i, opt := range doc.AdjustmentOptions {
		pct := decimal.Zero
		if raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(opt.Percentage), "%")); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, apperrors.NewMalformedCatalogError("adjustment option %d (%s): invalid percentage %q", i, opt.ID, opt.Percentage)
			}
			pct = parsed
		}
		options = append(options, entities.AdjustmentOption{
			ID:         opt.ID,
			Label:      opt.Label,
			Percentage: pct,
			Kind:       entities.AdjustmentKind(strings.ToLower(opt.Kind)),
		})
	}

	return &entities.CatalogData{
		Version:                    doc.Version,
		Diagnoses:                  doc.Diagnoses,
		Surgeries:                  doc.Surgeries,
		DiagnosisComplications:     doc.DiagnosisComplications,
		SurgeryComplications:       doc.SurgeryComplications,
		ComplicationInvestigations: doc.ComplicationInvestigations,
		ComplicationMedications:    doc.ComplicationMedications,
		DayMedications:             doc.DayMedications,
		AdjustmentOptions:          options,
	}, nil
}
