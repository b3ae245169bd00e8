package entities

// PricedLineItem pairs a line item's inputs with its computed amounts
type PricedLineItem struct {
	LineItem   int               `json:"line_item"`
	SubItem    int               `json:"sub_item"`
	Adjustment PricingAdjustment `json:"adjustment"`
	Result     PricingResult     `json:"result"`
}

// Derivation is everything the cascade and pricing produce for one snapshot.
// The boolean flags tell renderers which guidance state to show instead of an
// empty section.
type Derivation struct {
	SessionID                string           `json:"session_id,omitempty"`
	Version                  int              `json:"version"`
	Complications            []Complication   `json:"complications"`
	Investigations           []Investigation  `json:"investigations"`
	Medications              []Medication     `json:"medications"`
	LineItems                []PricedLineItem `json:"line_items"`
	NothingSelected          bool             `json:"nothing_selected"`
	HasInvestigations        bool             `json:"has_investigations"`
	NoMedicationsRecommended bool             `json:"no_medications_recommended"`
}
