package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// VisitLineItemPrice is the priced line item handed off for storage
type VisitLineItemPrice struct {
	LineItem            int             `json:"line_item" db:"line_item"`
	SubItem             int             `json:"sub_item" db:"sub_item"`
	BaseAmount          decimal.Decimal `json:"base_amount" db:"base_amount"`
	PrimaryAdjustment   string          `json:"primary_adjustment" db:"primary_adjustment"`
	SecondaryAdjustment string          `json:"secondary_adjustment" db:"secondary_adjustment"`
	FinalAmount         decimal.Decimal `json:"final_amount" db:"final_amount"`
}

// VisitRecord is the outcome of a finalized editing session
type VisitRecord struct {
	ID               string               `json:"id" db:"id"`
	VisitID          string               `json:"visit_id" db:"visit_id"`
	SessionID        string               `json:"session_id" db:"session_id"`
	DiagnosisIDs     []string             `json:"diagnosis_ids" db:"diagnosis_ids"`
	SurgeryIDs       []string             `json:"surgery_ids" db:"surgery_ids"`
	ComplicationIDs  []string             `json:"complication_ids" db:"complication_ids"`
	InvestigationIDs []string             `json:"investigation_ids" db:"investigation_ids"`
	MedicationIDs    []string             `json:"medication_ids" db:"medication_ids"`
	LineItems        []VisitLineItemPrice `json:"line_items" db:"-"`
	TotalAmount      decimal.Decimal      `json:"total_amount" db:"total_amount"`
	FinalizedAt      time.Time            `json:"finalized_at" db:"finalized_at"`
}
