package services

import (
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// ResolutionMode selects how complications are resolved
type ResolutionMode string

const (
	// ResolutionModeScoped lists every complication of a single source,
	// unfiltered, while the clinician is choosing among them.
	ResolutionModeScoped ResolutionMode = "scoped"

	// ResolutionModeAggregate unions the complications of every selected
	// source and keeps only the checked ones.
	ResolutionModeAggregate ResolutionMode = "aggregate"
)

// MedicationResult carries resolved medications and the empty-state signal
type MedicationResult struct {
	Medications     []entities.Medication `json:"medications"`
	NoneRecommended bool                  `json:"none_recommended"`
}

// CascadeResolver derives complications, investigations and medications from
// selection state. It holds no state of its own beyond the catalog.
type CascadeResolver struct {
	catalog *Catalog
	pricing *PricingAdjuster
}

// NewCascadeResolver creates a resolver over catalog. Line items are priced
// with the catalog's adjustment options.
func NewCascadeResolver(catalog *Catalog) *CascadeResolver {
	return &CascadeResolver{
		catalog: catalog,
		pricing: NewPricingAdjuster(catalog),
	}
}

// Catalog returns the catalog the resolver reads from
func (r *CascadeResolver) Catalog() *Catalog {
	return r.catalog
}

// Pricing returns the adjuster used for line items
func (r *CascadeResolver) Pricing() *PricingAdjuster {
	return r.pricing
}

// ResolveComplications resolves the complications of sourceIDs of one source
// type. Scoped mode reads only the first source id and ignores checkedIDs.
func (r *CascadeResolver) ResolveComplications(mode ResolutionMode, sourceType entities.SourceType, sourceIDs []string, checkedIDs []string) []entities.Complication {
	switch mode {
	case ResolutionModeScoped:
		if len(sourceIDs) == 0 {
			return []entities.Complication{}
		}
		return r.ScopedComplications(sourceType, sourceIDs[0])
	case ResolutionModeAggregate:
		return r.AggregateComplications(sourceType, sourceIDs, checkedIDs)
	}
	return []entities.Complication{}
}

// ScopedComplications returns a copy of one source's complications in catalog
// order, tagged with the source.
func (r *CascadeResolver) ScopedComplications(sourceType entities.SourceType, sourceID string) []entities.Complication {
	rows, ok := r.catalog.Complications(sourceType, sourceID)
	if !ok {
		return []entities.Complication{}
	}
	name, _ := r.catalog.SourceName(sourceType, sourceID)

	out := make([]entities.Complication, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.WithSource(sourceType, sourceID, name))
	}
	return out
}

// AggregateComplications walks sourceIDs in order and keeps each catalog
// complication whose id is checked. Membership is not scoped by source, so a
// complication checked once shows under every selected source that lists it,
// once per source.
func (r *CascadeResolver) AggregateComplications(sourceType entities.SourceType, sourceIDs []string, checkedIDs []string) []entities.Complication {
	out := []entities.Complication{}
	if len(sourceIDs) == 0 || len(checkedIDs) == 0 {
		return out
	}

	checked := make(map[string]struct{}, len(checkedIDs))
	for _, id := range checkedIDs {
		checked[id] = struct{}{}
	}

	for _, sourceID := range sourceIDs {
		rows, ok := r.catalog.Complications(sourceType, sourceID)
		if !ok {
			continue
		}
		name, _ := r.catalog.SourceName(sourceType, sourceID)
		for _, row := range rows {
			if _, isChecked := checked[row.ID]; isChecked {
				out = append(out, row.WithSource(sourceType, sourceID, name))
			}
		}
	}
	return out
}

// ResolveInvestigations unions the investigations of the checked
// complications in the given order, first occurrence of an id winning, and
// optionally keeps one category.
func (r *CascadeResolver) ResolveInvestigations(checkedIDs []string, categoryFilter *entities.InvestigationCategory) []entities.Investigation {
	seen := make(map[string]struct{})
	union := []entities.Investigation{}
	for _, complicationID := range checkedIDs {
		rows, ok := r.catalog.Investigations(complicationID)
		if !ok {
			continue
		}
		union = firstWins(union, seen, rows, investigationID)
	}

	if categoryFilter == nil {
		return union
	}

	filtered := []entities.Investigation{}
	for _, inv := range union {
		if inv.Category == *categoryFilter {
			filtered = append(filtered, inv)
		}
	}
	return filtered
}

// ResolveMedications lists the active day's scheduled medications followed by
// the medications of each checked complication, skipping ids already listed.
func (r *CascadeResolver) ResolveMedications(checkedIDs []string, activeDay *entities.TreatmentDay) MedicationResult {
	seen := make(map[string]struct{})
	meds := []entities.Medication{}

	if activeDay != nil {
		if scheduled, ok := r.catalog.DayMedications(*activeDay); ok {
			meds = firstWins(meds, seen, scheduled, medicationID)
		}
	}

	for _, complicationID := range checkedIDs {
		rows, ok := r.catalog.Medications(complicationID)
		if !ok {
			continue
		}
		meds = firstWins(meds, seen, rows, medicationID)
	}

	return MedicationResult{Medications: meds, NoneRecommended: len(meds) == 0}
}

// Derive recomputes everything shown for a snapshot: diagnosis-sourced then
// surgery-sourced complications, investigations, medications and priced line
// items.
func (r *CascadeResolver) Derive(snapshot *entities.SelectionSnapshot) *entities.Derivation {
	complications := r.AggregateComplications(entities.SourceTypeDiagnosis, snapshot.SelectedDiagnoses, snapshot.CheckedComplications)
	complications = append(complications,
		r.AggregateComplications(entities.SourceTypeSurgery, snapshot.SelectedSurgeries, snapshot.CheckedComplications)...)

	investigations := r.ResolveInvestigations(snapshot.CheckedComplications, snapshot.InvestigationFilter)
	medications := r.ResolveMedications(snapshot.CheckedComplications, snapshot.ActiveDay)

	return &entities.Derivation{
		SessionID:                snapshot.SessionID,
		Version:                  snapshot.Version,
		Complications:            complications,
		Investigations:           investigations,
		Medications:              medications.Medications,
		LineItems:                r.pricing.PriceLineItems(snapshot.LineItems),
		NothingSelected:          len(complications) == 0,
		HasInvestigations:        len(investigations) > 0,
		NoMedicationsRecommended: medications.NoneRecommended,
	}
}

func investigationID(inv entities.Investigation) string { return inv.ID }

func medicationID(med entities.Medication) string { return med.ID }
