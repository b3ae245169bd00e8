package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AdjustmentKind decides whether an option lowers or raises a price
type AdjustmentKind string

const (
	AdjustmentKindDiscount AdjustmentKind = "discount"
	AdjustmentKindAddition AdjustmentKind = "addition"
	AdjustmentKindNone     AdjustmentKind = "none"
)

// OptionNone is the option id that leaves a price untouched
const OptionNone = "none"

// AdjustmentOption is a named percentage rule applied to a base price
type AdjustmentOption struct {
	ID         string          `json:"id" yaml:"id" db:"id"`
	Label      string          `json:"label" yaml:"label" db:"label"`
	Percentage decimal.Decimal `json:"percentage" yaml:"percentage" db:"percentage"`
	Kind       AdjustmentKind  `json:"kind" yaml:"kind" db:"kind"`
}

// NoAdjustment is the neutral option used for unknown or absent ids
var NoAdjustment = AdjustmentOption{ID: OptionNone, Label: "None", Percentage: decimal.Zero, Kind: AdjustmentKindNone}

// AdjustmentSlot names one of the two chained adjustment positions on a line item
type AdjustmentSlot string

const (
	AdjustmentSlotPrimary   AdjustmentSlot = "primary"
	AdjustmentSlotSecondary AdjustmentSlot = "secondary"
)

// ParseAdjustmentSlot converts a payload value into a slot
func ParseAdjustmentSlot(value string) (AdjustmentSlot, bool) {
	switch AdjustmentSlot(strings.ToLower(value)) {
	case AdjustmentSlotPrimary:
		return AdjustmentSlotPrimary, true
	case AdjustmentSlotSecondary:
		return AdjustmentSlotSecondary, true
	}
	return "", false
}

// PricingAdjustment is the input of a single priced line item
type PricingAdjustment struct {
	BaseAmount decimal.Decimal `json:"base_amount"`
	Primary    string          `json:"primary_adjustment"`
	Secondary  string          `json:"secondary_adjustment"`
}

// NewPricingAdjustment returns an adjustment with both slots set to none
func NewPricingAdjustment(baseAmount decimal.Decimal) PricingAdjustment {
	return PricingAdjustment{BaseAmount: baseAmount, Primary: OptionNone, Secondary: OptionNone}
}

// PricingResult holds the derived amounts of a line item
type PricingResult struct {
	DiscountAmount    decimal.Decimal `json:"discount_amount"`
	AdditionAmount    decimal.Decimal `json:"addition_amount"`
	SubDiscountAmount decimal.Decimal `json:"sub_discount_amount"`
	FinalAmount       decimal.Decimal `json:"final_amount"`
}
