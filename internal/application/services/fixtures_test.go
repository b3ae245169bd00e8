package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

func pct(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func amount(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func testOptions() []entities.AdjustmentOption {
	return []entities.AdjustmentOption{
		entities.NoAdjustment,
		{ID: "discount_10", Label: "10% Discount", Percentage: pct(10), Kind: entities.AdjustmentKindDiscount},
		{ID: "discount_50", Label: "50% Discount", Percentage: pct(50), Kind: entities.AdjustmentKindDiscount},
		{ID: "addition_15", Label: "15% Addition", Percentage: pct(15), Kind: entities.AdjustmentKindAddition},
		{ID: "addition_25", Label: "25% Addition", Percentage: pct(25), Kind: entities.AdjustmentKindAddition},
	}
}

// testCatalogData has two diagnoses sharing complication "c-sepsis" and a
// medication ("m-paracetamol") present in both the D1 schedule and a
// complication table.
func testCatalogData() *entities.CatalogData {
	return &entities.CatalogData{
		Version: "test-1",
		Diagnoses: []entities.DiagnosisRef{
			{ID: "d-appendicitis", Name: "Acute Appendicitis", Code: "K35.80"},
			{ID: "d-cholecystitis", Name: "Acute Cholecystitis", Code: "K81.0"},
			{ID: "d-hernia", Name: "Inguinal Hernia", Code: "K40.90"},
		},
		Surgeries: []entities.SurgeryRef{
			{ID: "s-appendectomy", Name: "Laparoscopic Appendectomy", Code: "PKG-101"},
			{ID: "s-cholecystectomy", Name: "Laparoscopic Cholecystectomy", Code: "PKG-102"},
		},
		DiagnosisComplications: map[string][]entities.Complication{
			"d-appendicitis": {
				{ID: "c-perforation", Name: "Perforation"},
				{ID: "c-sepsis", Name: "Sepsis"},
				{ID: "c-abscess", Name: "Pelvic Abscess"},
			},
			"d-cholecystitis": {
				{ID: "c-sepsis", Name: "Sepsis"},
				{ID: "c-jaundice", Name: "Obstructive Jaundice"},
			},
		},
		SurgeryComplications: map[string][]entities.Complication{
			"s-appendectomy": {
				{ID: "c-wound-infection", Name: "Surgical Site Infection"},
				{ID: "c-ileus", Name: "Paralytic Ileus"},
			},
		},
		ComplicationInvestigations: map[string][]entities.Investigation{
			"c-perforation": {
				{ID: "i-xray-abdomen", Name: "X-Ray Abdomen Erect", NormalRange: "No free gas"},
				{ID: "i-cbc", Name: "CBC", NormalRange: "WBC 4000-11000/uL"},
			},
			"c-sepsis": {
				{ID: "i-cbc", Name: "CBC with differential", NormalRange: "WBC 4000-11000/uL"},
				{ID: "i-procalcitonin", Name: "Procalcitonin", NormalRange: "< 0.5 ng/mL"},
				{ID: "i-blood-culture", Name: "Blood Culture", ExpectedValue: "No growth"},
			},
			"c-jaundice": {
				{ID: "i-lft", Name: "Liver Function Test"},
				{ID: "i-usg", Name: "Ultrasound Abdomen"},
			},
			"c-wound-infection": {
				{ID: "i-swab", Name: "Wound Swab Culture"},
			},
		},
		ComplicationMedications: map[string][]entities.Medication{
			"c-sepsis": {
				{ID: "m-ceftriaxone", Name: "Ceftriaxone", Dosage: "1 g IV BD", Duration: "5 days"},
				{ID: "m-paracetamol", Name: "Paracetamol IV", Dosage: "1 g IV TDS", Duration: "3 days"},
			},
			"c-perforation": {
				{ID: "m-metronidazole", Name: "Metronidazole", Dosage: "500 mg IV TDS", Duration: "5 days"},
				{ID: "m-ceftriaxone", Name: "Ceftriaxone 2g", Dosage: "2 g IV OD", Duration: "7 days"},
			},
		},
		DayMedications: map[entities.TreatmentDay][]entities.Medication{
			entities.TreatmentDay1: {
				{ID: "m-paracetamol", Name: "Paracetamol", Dosage: "650 mg PO TDS", Duration: "1 day"},
				{ID: "m-pantoprazole", Name: "Pantoprazole", Dosage: "40 mg IV OD", Duration: "1 day"},
			},
			entities.TreatmentDay2: {
				{ID: "m-pantoprazole", Name: "Pantoprazole", Dosage: "40 mg PO OD", Duration: "1 day"},
			},
		},
		AdjustmentOptions: testOptions(),
	}
}

func newTestCatalog(t *testing.T) *services.Catalog {
	t.Helper()
	catalog, err := services.NewCatalog(testCatalogData())
	require.NoError(t, err)
	return catalog
}
