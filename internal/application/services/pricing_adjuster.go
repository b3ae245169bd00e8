package services

import (
	"github.com/shopspring/decimal"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// OptionTable resolves adjustment option ids. Catalog implements it.
type OptionTable interface {
	Option(id string) (entities.AdjustmentOption, bool)
}

// OptionMap is an OptionTable over a plain map
type OptionMap map[string]entities.AdjustmentOption

// Option implements OptionTable
func (m OptionMap) Option(id string) (entities.AdjustmentOption, bool) {
	opt, ok := m[id]
	return opt, ok
}

// NewOptionMap indexes options by id
func NewOptionMap(options ...entities.AdjustmentOption) OptionMap {
	m := make(OptionMap, len(options))
	for _, opt := range options {
		m[opt.ID] = opt
	}
	return m
}

// roundingHalf is added before flooring so that halves round towards +Inf
var roundingHalf = decimal.New(5, -1)

// roundWhole rounds to the nearest whole currency unit, halves up
func roundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Add(roundingHalf).Floor()
}

// percentOf returns round(amount * percentage / 100)
func percentOf(amount, percentage decimal.Decimal) decimal.Decimal {
	return roundWhole(amount.Mul(percentage).Shift(-2))
}

func lookupOption(options OptionTable, id string) entities.AdjustmentOption {
	if options == nil {
		return entities.NoAdjustment
	}
	opt, ok := options.Option(id)
	if !ok {
		return entities.NoAdjustment
	}
	return opt
}

// ComputeAdjustedPrice applies the primary adjustment to baseAmount and then,
// only when the primary is in effect, a secondary discount compounded on the
// already-adjusted amount. Every delta is rounded before it is applied.
// Unknown option ids behave as "none"; negative amounts propagate unchanged.
func ComputeAdjustedPrice(baseAmount decimal.Decimal, primaryID, secondaryID string, options OptionTable) entities.PricingResult {
	result := entities.PricingResult{
		DiscountAmount:    decimal.Zero,
		AdditionAmount:    decimal.Zero,
		SubDiscountAmount: decimal.Zero,
		FinalAmount:       baseAmount,
	}

	primary := lookupOption(options, primaryID)
	switch primary.Kind {
	case entities.AdjustmentKindDiscount:
		result.DiscountAmount = percentOf(baseAmount, primary.Percentage)
		result.FinalAmount = baseAmount.Sub(result.DiscountAmount)
	case entities.AdjustmentKindAddition:
		result.AdditionAmount = percentOf(baseAmount, primary.Percentage)
		result.FinalAmount = baseAmount.Add(result.AdditionAmount)
	default:
		return result
	}

	secondary := lookupOption(options, secondaryID)
	if secondary.Kind == entities.AdjustmentKindDiscount {
		result.SubDiscountAmount = percentOf(result.FinalAmount, secondary.Percentage)
		result.FinalAmount = result.FinalAmount.Sub(result.SubDiscountAmount)
	}

	return result
}

// PricingAdjuster prices line items against one option table
type PricingAdjuster struct {
	options OptionTable
}

// NewPricingAdjuster creates a new pricing adjuster
func NewPricingAdjuster(options OptionTable) *PricingAdjuster {
	return &PricingAdjuster{options: options}
}

// Compute prices a single adjustment
func (p *PricingAdjuster) Compute(adj entities.PricingAdjustment) entities.PricingResult {
	return ComputeAdjustedPrice(adj.BaseAmount, adj.Primary, adj.Secondary, p.options)
}

// EffectiveSecondary returns the secondary id that actually takes part in
// pricing: "none" whenever the primary resolves to no adjustment.
func (p *PricingAdjuster) EffectiveSecondary(adj entities.PricingAdjustment) string {
	if lookupOption(p.options, adj.Primary).Kind == entities.AdjustmentKindNone {
		return entities.OptionNone
	}
	return adj.Secondary
}

// PriceLineItems prices every line item in order
func (p *PricingAdjuster) PriceLineItems(items []entities.LineItemPricing) []entities.PricedLineItem {
	priced := make([]entities.PricedLineItem, 0, len(items))
	for _, item := range items {
		priced = append(priced, entities.PricedLineItem{
			LineItem:   item.LineItem,
			SubItem:    item.SubItem,
			Adjustment: item.Adjustment,
			Result:     p.Compute(item.Adjustment),
		})
	}
	return priced
}
