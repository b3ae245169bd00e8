package entities

import "strings"

// TreatmentDay keys the post-operative medication schedule
type TreatmentDay string

const (
	TreatmentDay1 TreatmentDay = "D1"
	TreatmentDay2 TreatmentDay = "D2"
	TreatmentDay3 TreatmentDay = "D3"
	TreatmentDay4 TreatmentDay = "D4"
)

// TreatmentDays lists the schedule keys in order
var TreatmentDays = []TreatmentDay{TreatmentDay1, TreatmentDay2, TreatmentDay3, TreatmentDay4}

// ParseTreatmentDay accepts "D1".."D4" in any case
func ParseTreatmentDay(value string) (TreatmentDay, bool) {
	day := TreatmentDay(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range TreatmentDays {
		if day == known {
			return day, true
		}
	}
	return "", false
}

// Medication is a drug recommendation from the day schedule or a complication
type Medication struct {
	ID       string `json:"id" yaml:"id" db:"id"`
	Name     string `json:"name" yaml:"name" db:"name"`
	Dosage   string `json:"dosage,omitempty" yaml:"dosage" db:"dosage"`
	Duration string `json:"duration,omitempty" yaml:"duration" db:"duration"`
}
