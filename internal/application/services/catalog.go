package services

import (
	"strings"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

// Catalog is the validated, indexed form of CatalogData. It is read-only once
// built and may be shared by every session.
type Catalog struct {
	version string

	diagnoses     []entities.DiagnosisRef
	diagnosisByID map[string]entities.DiagnosisRef
	surgeries     []entities.SurgeryRef
	surgeryByID   map[string]entities.SurgeryRef

	diagnosisComplications     map[string][]entities.Complication
	surgeryComplications       map[string][]entities.Complication
	complicationInvestigations map[string][]entities.Investigation
	complicationMedications    map[string][]entities.Medication
	dayMedications             map[entities.TreatmentDay][]entities.Medication

	options    []entities.AdjustmentOption
	optionByID map[string]entities.AdjustmentOption
}

// NewCatalog validates raw catalog data and builds the lookup tables.
// Malformed rows are rejected here so that lookups never have to guard
// against them.
func NewCatalog(data *entities.CatalogData) (*Catalog, error) {
	if data == nil {
		return nil, apperrors.NewMalformedCatalogError("catalog data is nil")
	}

	c := &Catalog{
		version:                    data.Version,
		diagnosisByID:              make(map[string]entities.DiagnosisRef, len(data.Diagnoses)),
		surgeryByID:                make(map[string]entities.SurgeryRef, len(data.Surgeries)),
		diagnosisComplications:     make(map[string][]entities.Complication, len(data.DiagnosisComplications)),
		surgeryComplications:       make(map[string][]entities.Complication, len(data.SurgeryComplications)),
		complicationInvestigations: make(map[string][]entities.Investigation, len(data.ComplicationInvestigations)),
		complicationMedications:    make(map[string][]entities.Medication, len(data.ComplicationMedications)),
		dayMedications:             make(map[entities.TreatmentDay][]entities.Medication, len(data.DayMedications)),
		optionByID:                 make(map[string]entities.AdjustmentOption, len(data.AdjustmentOptions)+1),
	}

	for _, d := range data.Diagnoses {
		if strings.TrimSpace(d.ID) == "" {
			return nil, apperrors.NewMalformedCatalogError("diagnosis %q has an empty id", d.Name)
		}
		if _, dup := c.diagnosisByID[d.ID]; dup {
			return nil, apperrors.NewMalformedCatalogError("duplicate diagnosis id %q", d.ID)
		}
		c.diagnosisByID[d.ID] = d
		c.diagnoses = append(c.diagnoses, d)
	}

	for _, s := range data.Surgeries {
		if strings.TrimSpace(s.ID) == "" {
			return nil, apperrors.NewMalformedCatalogError("surgery %q has an empty id", s.Name)
		}
		if _, dup := c.surgeryByID[s.ID]; dup {
			return nil, apperrors.NewMalformedCatalogError("duplicate surgery id %q", s.ID)
		}
		c.surgeryByID[s.ID] = s
		c.surgeries = append(c.surgeries, s)
	}

	for sourceID, rows := range data.DiagnosisComplications {
		if _, ok := c.diagnosisByID[sourceID]; !ok {
			return nil, apperrors.NewMalformedCatalogError("complications listed for unknown diagnosis %q", sourceID)
		}
		list, err := complicationRows(string(entities.SourceTypeDiagnosis), sourceID, rows)
		if err != nil {
			return nil, err
		}
		c.diagnosisComplications[sourceID] = list
	}

	for sourceID, rows := range data.SurgeryComplications {
		if _, ok := c.surgeryByID[sourceID]; !ok {
			return nil, apperrors.NewMalformedCatalogError("complications listed for unknown surgery %q", sourceID)
		}
		list, err := complicationRows(string(entities.SourceTypeSurgery), sourceID, rows)
		if err != nil {
			return nil, err
		}
		c.surgeryComplications[sourceID] = list
	}

	for complicationID, rows := range data.ComplicationInvestigations {
		for _, inv := range rows {
			if strings.TrimSpace(inv.ID) == "" {
				return nil, apperrors.NewMalformedCatalogError("investigation %q under complication %q has an empty id", inv.Name, complicationID)
			}
			inv.Category = entities.ClassifyInvestigation(inv.Name)
			c.complicationInvestigations[complicationID] = append(c.complicationInvestigations[complicationID], inv)
		}
	}

	for complicationID, rows := range data.ComplicationMedications {
		for _, med := range rows {
			if strings.TrimSpace(med.ID) == "" {
				return nil, apperrors.NewMalformedCatalogError("medication %q under complication %q has an empty id", med.Name, complicationID)
			}
			c.complicationMedications[complicationID] = append(c.complicationMedications[complicationID], med)
		}
	}

	for day, rows := range data.DayMedications {
		parsed, ok := entities.ParseTreatmentDay(string(day))
		if !ok {
			return nil, apperrors.NewMalformedCatalogError("unknown medication schedule day %q", day)
		}
		for _, med := range rows {
			if strings.TrimSpace(med.ID) == "" {
				return nil, apperrors.NewMalformedCatalogError("medication %q scheduled on %s has an empty id", med.Name, parsed)
			}
			c.dayMedications[parsed] = append(c.dayMedications[parsed], med)
		}
	}

	if err := c.indexOptions(data.AdjustmentOptions); err != nil {
		return nil, err
	}

	return c, nil
}

func complicationRows(sourceType, sourceID string, rows []entities.Complication) ([]entities.Complication, error) {
	seen := make(map[string]struct{}, len(rows))
	list := make([]entities.Complication, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.ID) == "" {
			return nil, apperrors.NewMalformedCatalogError("complication %q of %s %q has an empty id", row.Name, sourceType, sourceID)
		}
		if _, dup := seen[row.ID]; dup {
			return nil, apperrors.NewMalformedCatalogError("complication %q listed twice for %s %q", row.ID, sourceType, sourceID)
		}
		seen[row.ID] = struct{}{}
		list = append(list, entities.Complication{ID: row.ID, Name: row.Name})
	}
	return list, nil
}

func (c *Catalog) indexOptions(rows []entities.AdjustmentOption) error {
	hasNone := false
	for _, opt := range rows {
		if strings.TrimSpace(opt.ID) == "" {
			return apperrors.NewMalformedCatalogError("adjustment option %q has an empty id", opt.Label)
		}
		if _, dup := c.optionByID[opt.ID]; dup {
			return apperrors.NewMalformedCatalogError("duplicate adjustment option id %q", opt.ID)
		}
		switch opt.Kind {
		case entities.AdjustmentKindDiscount, entities.AdjustmentKindAddition, entities.AdjustmentKindNone:
		default:
			return apperrors.NewMalformedCatalogError("adjustment option %q has unknown kind %q", opt.ID, opt.Kind)
		}
		if opt.Percentage.IsNegative() {
			return apperrors.NewMalformedCatalogError("adjustment option %q has a negative percentage", opt.ID)
		}
		if opt.ID == entities.OptionNone {
			if opt.Kind != entities.AdjustmentKindNone {
				return apperrors.NewMalformedCatalogError("adjustment option %q must be of kind %q", opt.ID, entities.AdjustmentKindNone)
			}
			hasNone = true
		}
		c.optionByID[opt.ID] = opt
		c.options = append(c.options, opt)
	}

	if !hasNone {
		c.optionByID[entities.OptionNone] = entities.NoAdjustment
		c.options = append([]entities.AdjustmentOption{entities.NoAdjustment}, c.options...)
	}
	return nil
}

// Version returns the catalog version string supplied by the source
func (c *Catalog) Version() string {
	return c.version
}

// Diagnosis looks up a diagnosis by id
func (c *Catalog) Diagnosis(id string) (entities.DiagnosisRef, bool) {
	d, ok := c.diagnosisByID[id]
	return d, ok
}

// Surgery looks up a surgery by id
func (c *Catalog) Surgery(id string) (entities.SurgeryRef, bool) {
	s, ok := c.surgeryByID[id]
	return s, ok
}

// SourceName returns the display name of a diagnosis or surgery
func (c *Catalog) SourceName(sourceType entities.SourceType, id string) (string, bool) {
	switch sourceType {
	case entities.SourceTypeDiagnosis:
		if d, ok := c.diagnosisByID[id]; ok {
			return d.Name, true
		}
	case entities.SourceTypeSurgery:
		if s, ok := c.surgeryByID[id]; ok {
			return s.Name, true
		}
	}
	return "", false
}

// Complications returns the catalog complications of a source in catalog
// order. The returned slice is shared and must not be modified.
func (c *Catalog) Complications(sourceType entities.SourceType, id string) ([]entities.Complication, bool) {
	var list []entities.Complication
	var ok bool
	switch sourceType {
	case entities.SourceTypeDiagnosis:
		list, ok = c.diagnosisComplications[id]
	case entities.SourceTypeSurgery:
		list, ok = c.surgeryComplications[id]
	}
	return list, ok
}

// Investigations returns the classified investigations of a complication.
// The returned slice is shared and must not be modified.
func (c *Catalog) Investigations(complicationID string) ([]entities.Investigation, bool) {
	list, ok := c.complicationInvestigations[complicationID]
	return list, ok
}

// Medications returns the medications of a complication.
// The returned slice is shared and must not be modified.
func (c *Catalog) Medications(complicationID string) ([]entities.Medication, bool) {
	list, ok := c.complicationMedications[complicationID]
	return list, ok
}

// DayMedications returns the medications scheduled for a treatment day.
// The returned slice is shared and must not be modified.
func (c *Catalog) DayMedications(day entities.TreatmentDay) ([]entities.Medication, bool) {
	list, ok := c.dayMedications[day]
	return list, ok
}

// Option looks up an adjustment option by id
func (c *Catalog) Option(id string) (entities.AdjustmentOption, bool) {
	opt, ok := c.optionByID[id]
	return opt, ok
}

// Options returns every adjustment option, "none" first when it was implied
func (c *Catalog) Options() []entities.AdjustmentOption {
	return append([]entities.AdjustmentOption(nil), c.options...)
}

// Diagnoses returns every diagnosis in catalog order
func (c *Catalog) Diagnoses() []entities.DiagnosisRef {
	return append([]entities.DiagnosisRef(nil), c.diagnoses...)
}

// Surgeries returns every surgery in catalog order
func (c *Catalog) Surgeries() []entities.SurgeryRef {
	return append([]entities.SurgeryRef(nil), c.surgeries...)
}

// Entries returns diagnoses and/or surgeries as catalog entries. An empty
// sourceType returns both, diagnoses first.
func (c *Catalog) Entries(sourceType entities.SourceType) []entities.CatalogEntry {
	entries := make([]entities.CatalogEntry, 0, len(c.diagnoses)+len(c.surgeries))
	if sourceType == "" || sourceType == entities.SourceTypeDiagnosis {
		for _, d := range c.diagnoses {
			entries = append(entries, entities.CatalogEntry{ID: d.ID, Name: d.Name, Code: d.Code, SourceType: entities.SourceTypeDiagnosis})
		}
	}
	if sourceType == "" || sourceType == entities.SourceTypeSurgery {
		for _, s := range c.surgeries {
			entries = append(entries, entities.CatalogEntry{ID: s.ID, Name: s.Name, Code: s.Code, SourceType: entities.SourceTypeSurgery})
		}
	}
	return entries
}

// SearchLocal is the in-memory typeahead used when no search index is
// configured: case-insensitive match on name or code, catalog order.
func (c *Catalog) SearchLocal(query string, sourceType entities.SourceType, limit int) []entities.CatalogEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	var matches []entities.CatalogEntry
	for _, entry := range c.Entries(sourceType) {
		if limit > 0 && len(matches) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(entry.Name), q) || strings.Contains(strings.ToLower(entry.Code), q) {
			matches = append(matches, entry)
		}
	}
	return matches
}
