package entities

import "strings"

// InvestigationCategory is the computed grouping of an investigation
type InvestigationCategory string

const (
	InvestigationCategoryRadiology InvestigationCategory = "radiology"
	InvestigationCategoryLab       InvestigationCategory = "lab"
	InvestigationCategoryOther     InvestigationCategory = "other"
)

// RadiologyKeywords mark an investigation name as imaging or cardiac tracing.
var RadiologyKeywords = []string{"x-ray", "ct", "mri", "ultrasound", "ecg"}

// LabKeywords mark an investigation name as a laboratory test.
var LabKeywords = []string{
	"cbc",
	"blood",
	"liver function",
	"kidney function",
	"urine",
	"crp",
	"d-dimer",
	"procalcitonin",
	"hba1c",
	"thyroid",
	"lipid",
	"serum calcium",
	"serum sodium",
	"serum potassium",
	"magnesium",
}

// CategoryRule binds a category to the keywords that select it
type CategoryRule struct {
	Category InvestigationCategory
	Keywords []string
}

// CategoryPrecedence is checked in order; the first matching rule wins and
// names matching no rule fall through to InvestigationCategoryOther.
var CategoryPrecedence = []CategoryRule{
	{Category: InvestigationCategoryRadiology, Keywords: RadiologyKeywords},
	{Category: InvestigationCategoryLab, Keywords: LabKeywords},
}

// ClassifyInvestigation assigns exactly one category to an investigation name
// using case-insensitive substring containment. Keywords match anywhere in the
// name, so "ct" matches "HRCT Chest" and also "Liver Function Test"; rule
// order decides which category such a name lands in.
func ClassifyInvestigation(name string) InvestigationCategory {
	lowered := strings.ToLower(name)
	for _, rule := range CategoryPrecedence {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowered, keyword) {
				return rule.Category
			}
		}
	}
	return InvestigationCategoryOther
}

// ParseInvestigationCategory converts a filter value into a category
func ParseInvestigationCategory(value string) (InvestigationCategory, bool) {
	switch InvestigationCategory(strings.ToLower(value)) {
	case InvestigationCategoryRadiology:
		return InvestigationCategoryRadiology, true
	case InvestigationCategoryLab:
		return InvestigationCategoryLab, true
	case InvestigationCategoryOther:
		return InvestigationCategoryOther, true
	}
	return "", false
}

// Investigation is a test recommended for a complication
type Investigation struct {
	ID            string                `json:"id" yaml:"id" db:"id"`
	Name          string                `json:"name" yaml:"name" db:"name"`
	ExpectedValue string                `json:"expected_value,omitempty" yaml:"expected_value" db:"expected_value"`
	NormalRange   string                `json:"normal_range,omitempty" yaml:"normal_range" db:"normal_range"`
	Category      InvestigationCategory `json:"category,omitempty" yaml:"-" db:"-"`
}
