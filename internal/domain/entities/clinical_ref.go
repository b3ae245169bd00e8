package entities

// SourceType identifies which kind of top-level selection produced a complication
type SourceType string

const (
	SourceTypeDiagnosis SourceType = "diagnosis"
	SourceTypeSurgery   SourceType = "surgery"
)

// ParseSourceType converts a path or payload value into a SourceType
func ParseSourceType(value string) (SourceType, bool) {
	switch SourceType(value) {
	case SourceTypeDiagnosis, SourceTypeSurgery:
		return SourceType(value), true
	}
	return "", false
}

// DiagnosisRef is an immutable diagnosis catalog row
type DiagnosisRef struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
	Code string `json:"code,omitempty" yaml:"code" db:"code"` // ICD code
}

// SurgeryRef is an immutable surgery catalog row
type SurgeryRef struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
	Code string `json:"code,omitempty" yaml:"code" db:"code"` // package code
}

// CatalogEntry is a diagnosis or surgery in a source-agnostic shape, used for
// listing and typeahead search.
type CatalogEntry struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Code       string     `json:"code,omitempty"`
	SourceType SourceType `json:"source_type"`
}
