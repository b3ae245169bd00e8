package entities

// CatalogData is the raw, unindexed shape of every reference table as it
// arrives from a catalog source.
type CatalogData struct {
	Version                    string                        `json:"version" yaml:"version"`
	Diagnoses                  []DiagnosisRef                `json:"diagnoses" yaml:"diagnoses"`
	Surgeries                  []SurgeryRef                  `json:"surgeries" yaml:"surgeries"`
	DiagnosisComplications     map[string][]Complication     `json:"diagnosis_complications" yaml:"diagnosis_complications"`
	SurgeryComplications       map[string][]Complication     `json:"surgery_complications" yaml:"surgery_complications"`
	ComplicationInvestigations map[string][]Investigation    `json:"complication_investigations" yaml:"complication_investigations"`
	ComplicationMedications    map[string][]Medication       `json:"complication_medications" yaml:"complication_medications"`
	DayMedications             map[TreatmentDay][]Medication `json:"day_medications" yaml:"day_medications"`
	AdjustmentOptions          []AdjustmentOption            `json:"adjustment_options" yaml:"adjustment_options"`
}
