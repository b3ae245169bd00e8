package handlers

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

const maxQuoteLineItems = 200

// PricingHandler prices line items without a session
type PricingHandler struct {
	pricing *services.PricingAdjuster
	metrics *observability.Metrics
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(pricing *services.PricingAdjuster, metrics *observability.Metrics) *PricingHandler {
	return &PricingHandler{pricing: pricing, metrics: metrics}
}

// QuoteLineItem is one line of a quote request
type QuoteLineItem struct {
	LineItem            int              `json:"line_item"`
	SubItem             int              `json:"sub_item"`
	BaseAmount          *decimal.Decimal `json:"base_amount"`
	PrimaryAdjustment   string           `json:"primary_adjustment"`
	SecondaryAdjustment string           `json:"secondary_adjustment"`
}

// QuoteRequest is the body of POST /api/pricing/quote
type QuoteRequest struct {
	LineItems []QuoteLineItem `json:"line_items"`
}

// QuoteResponse carries the priced lines and their sum
type QuoteResponse struct {
	LineItems   []entities.PricedLineItem `json:"line_items"`
	TotalAmount decimal.Decimal           `json:"total_amount"`
}

// Quote handles POST /api/pricing/quote
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	items, err := req.toLineItems()
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	priced := h.pricing.PriceLineItems(items)
	total := decimal.Zero
	for i := range priced {
		priced[i].Adjustment.Secondary = h.pricing.EffectiveSecondary(priced[i].Adjustment)
		total = total.Add(priced[i].Result.FinalAmount)
	}
	observability.RecordPricing(r.Context(), h.metrics, len(priced))

	respondWithJSON(w, http.StatusOK, QuoteResponse{LineItems: priced, TotalAmount: total})
}

func (req QuoteRequest) toLineItems() ([]entities.LineItemPricing, error) {
	if len(req.LineItems) == 0 {
		return nil, apperrors.NewValidationError("line_items must not be empty")
	}
	if len(req.LineItems) > maxQuoteLineItems {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d line items per quote", maxQuoteLineItems))
	}

	items := make([]entities.LineItemPricing, 0, len(req.LineItems))
	for i, line := range req.LineItems {
		if line.BaseAmount == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line_items[%d]: base_amount is required", i))
		}
		if line.BaseAmount.IsNegative() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line_items[%d]: base_amount must not be negative", i))
		}
		if line.LineItem < 0 || line.SubItem < 0 {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line_items[%d]: indexes must not be negative", i))
		}

		adj := entities.NewPricingAdjustment(*line.BaseAmount)
		if line.PrimaryAdjustment != "" {
			adj.Primary = line.PrimaryAdjustment
		}
		if line.SecondaryAdjustment != "" {
			adj.Secondary = line.SecondaryAdjustment
		}
		items = append(items, entities.LineItemPricing{LineItem: line.LineItem, SubItem: line.SubItem, Adjustment: adj})
	}
	return items, nil
}
