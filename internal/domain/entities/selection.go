package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemPricing is the pricing input stored for one (line item, sub item) slot
type LineItemPricing struct {
	LineItem   int               `json:"line_item"`
	SubItem    int               `json:"sub_item"`
	Adjustment PricingAdjustment `json:"adjustment"`
}

// SelectionSnapshot is the serialisable state of one visit-editing session.
// Id slices keep insertion order.
type SelectionSnapshot struct {
	SessionID            string                 `json:"session_id"`
	VisitID              string                 `json:"visit_id"`
	SelectedDiagnoses    []string               `json:"selected_diagnoses"`
	SelectedSurgeries    []string               `json:"selected_surgeries"`
	CheckedComplications []string               `json:"checked_complications"`
	ActiveDay            *TreatmentDay          `json:"active_day,omitempty"`
	InvestigationFilter  *InvestigationCategory `json:"investigation_filter,omitempty"`
	LineItems            []LineItemPricing      `json:"line_items"`
	Version              int                    `json:"version"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// SelectionEventType names a selection-change operation
type SelectionEventType string

const (
	SelectionEventSelectDiagnosis        SelectionEventType = "select_diagnosis"
	SelectionEventDeselectDiagnosis      SelectionEventType = "deselect_diagnosis"
	SelectionEventSelectSurgery          SelectionEventType = "select_surgery"
	SelectionEventDeselectSurgery        SelectionEventType = "deselect_surgery"
	SelectionEventToggleComplication     SelectionEventType = "toggle_complication"
	SelectionEventSetActiveDay           SelectionEventType = "set_active_day"
	SelectionEventSetInvestigationFilter SelectionEventType = "set_investigation_filter"
	SelectionEventSetBaseAmount          SelectionEventType = "set_base_amount"
	SelectionEventSetAdjustment          SelectionEventType = "set_adjustment"
)

// SelectionEvent is a single selection change sent by the UI layer. Only the
// fields relevant to Type are read.
type SelectionEvent struct {
	Type     SelectionEventType `json:"type"`
	ID       string             `json:"id,omitempty"`
	Checked  bool               `json:"checked,omitempty"`
	Day      string             `json:"day,omitempty"`
	Category string             `json:"category,omitempty"`
	LineItem int                `json:"line_item,omitempty"`
	SubItem  int                `json:"sub_item,omitempty"`
	Slot     string             `json:"slot,omitempty"`
	OptionID string             `json:"option_id,omitempty"`
	Amount   *decimal.Decimal   `json:"amount,omitempty"`
}
