package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

// SelectionListener is notified after every change to a SelectionStore
type SelectionListener func(snapshot *entities.SelectionSnapshot, cause entities.SelectionEventType)

// SelectionStore holds one editing session's clinical choices and line item
// pricing inputs. It is not safe for concurrent use; each session owns one.
type SelectionStore struct {
	sessionID string
	visitID   string

	diagnoses     *OrderedIDSet
	surgeries     *OrderedIDSet
	complications *OrderedIDSet

	activeDay           *entities.TreatmentDay
	investigationFilter *entities.InvestigationCategory

	lineItems []entities.LineItemPricing

	version   int
	createdAt time.Time
	updatedAt time.Time

	listeners map[int]SelectionListener
	nextID    int
}

// NewSelectionStore creates an empty store for a visit
func NewSelectionStore(sessionID, visitID string) *SelectionStore {
	now := time.Now().UTC()
	return &SelectionStore{
		sessionID:     sessionID,
		visitID:       visitID,
		diagnoses:     NewOrderedIDSet(),
		surgeries:     NewOrderedIDSet(),
		complications: NewOrderedIDSet(),
		createdAt:     now,
		updatedAt:     now,
		listeners:     make(map[int]SelectionListener),
	}
}

// RestoreSelectionStore rebuilds a store from a saved snapshot
func RestoreSelectionStore(snapshot *entities.SelectionSnapshot) *SelectionStore {
	s := &SelectionStore{
		sessionID:     snapshot.SessionID,
		visitID:       snapshot.VisitID,
		diagnoses:     NewOrderedIDSet(snapshot.SelectedDiagnoses...),
		surgeries:     NewOrderedIDSet(snapshot.SelectedSurgeries...),
		complications: NewOrderedIDSet(snapshot.CheckedComplications...),
		lineItems:     append([]entities.LineItemPricing(nil), snapshot.LineItems...),
		version:       snapshot.Version,
		createdAt:     snapshot.CreatedAt,
		updatedAt:     snapshot.UpdatedAt,
		listeners:     make(map[int]SelectionListener),
	}
	if snapshot.ActiveDay != nil {
		day := *snapshot.ActiveDay
		s.activeDay = &day
	}
	if snapshot.InvestigationFilter != nil {
		category := *snapshot.InvestigationFilter
		s.investigationFilter = &category
	}
	return s
}

// Subscribe registers a listener and returns a function that removes it
func (s *SelectionStore) Subscribe(listener SelectionListener) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		delete(s.listeners, id)
	}
}

// Snapshot returns a copy of the current state
func (s *SelectionStore) Snapshot() *entities.SelectionSnapshot {
	snapshot := &entities.SelectionSnapshot{
		SessionID:            s.sessionID,
		VisitID:              s.visitID,
		SelectedDiagnoses:    s.diagnoses.IDs(),
		SelectedSurgeries:    s.surgeries.IDs(),
		CheckedComplications: s.complications.IDs(),
		LineItems:            append([]entities.LineItemPricing{}, s.lineItems...),
		Version:              s.version,
		CreatedAt:            s.createdAt,
		UpdatedAt:            s.updatedAt,
	}
	if s.activeDay != nil {
		day := *s.activeDay
		snapshot.ActiveDay = &day
	}
	if s.investigationFilter != nil {
		category := *s.investigationFilter
		snapshot.InvestigationFilter = &category
	}
	return snapshot
}

// Version counts the changes applied since the store was created
func (s *SelectionStore) Version() int {
	return s.version
}

func (s *SelectionStore) changed(cause entities.SelectionEventType) {
	s.version++
	s.updatedAt = time.Now().UTC()
	if len(s.listeners) == 0 {
		return
	}
	snapshot := s.Snapshot()
	for _, listener := range s.listeners {
		listener(snapshot, cause)
	}
}

func (s *SelectionStore) apply(cause entities.SelectionEventType, didChange bool) bool {
	if didChange {
		s.changed(cause)
	}
	return didChange
}

// SelectDiagnosis adds a diagnosis to the selection
func (s *SelectionStore) SelectDiagnosis(id string) bool {
	return s.apply(entities.SelectionEventSelectDiagnosis, s.diagnoses.Add(id))
}

// DeselectDiagnosis removes a diagnosis. Checked complications stay checked.
func (s *SelectionStore) DeselectDiagnosis(id string) bool {
	return s.apply(entities.SelectionEventDeselectDiagnosis, s.diagnoses.Remove(id))
}

// SelectSurgery adds a surgery to the selection
func (s *SelectionStore) SelectSurgery(id string) bool {
	return s.apply(entities.SelectionEventSelectSurgery, s.surgeries.Add(id))
}

// DeselectSurgery removes a surgery. Checked complications stay checked.
func (s *SelectionStore) DeselectSurgery(id string) bool {
	return s.apply(entities.SelectionEventDeselectSurgery, s.surgeries.Remove(id))
}

// ToggleComplication checks or unchecks a complication id. The checked set is
// shared by diagnosis- and surgery-sourced complications.
func (s *SelectionStore) ToggleComplication(id string, checked bool) bool {
	var didChange bool
	if checked {
		didChange = s.complications.Add(id)
	} else {
		didChange = s.complications.Remove(id)
	}
	return s.apply(entities.SelectionEventToggleComplication, didChange)
}

// SetActiveDay sets the treatment day, nil clears it
func (s *SelectionStore) SetActiveDay(day *entities.TreatmentDay) bool {
	if equalPtr(s.activeDay, day) {
		return false
	}
	s.activeDay = clonePtr(day)
	return s.apply(entities.SelectionEventSetActiveDay, true)
}

// SetInvestigationFilter restricts investigations to one category, nil clears it
func (s *SelectionStore) SetInvestigationFilter(category *entities.InvestigationCategory) bool {
	if equalPtr(s.investigationFilter, category) {
		return false
	}
	s.investigationFilter = clonePtr(category)
	return s.apply(entities.SelectionEventSetInvestigationFilter, true)
}

// SetBaseAmount sets the base price of a line item, creating it if needed
func (s *SelectionStore) SetBaseAmount(lineItem, subItem int, amount decimal.Decimal) bool {
	item, created := s.lineItem(lineItem, subItem)
	if !created && item.Adjustment.BaseAmount.Equal(amount) {
		return false
	}
	item.Adjustment.BaseAmount = amount
	return s.apply(entities.SelectionEventSetBaseAmount, true)
}

// SetAdjustment chooses the option of one adjustment slot. Choosing a
// different primary resets the secondary to none, and the secondary cannot
// be set while the primary is none.
func (s *SelectionStore) SetAdjustment(lineItem, subItem int, slot entities.AdjustmentSlot, optionID string) bool {
	item, created := s.lineItem(lineItem, subItem)
	adj := &item.Adjustment

	switch slot {
	case entities.AdjustmentSlotPrimary:
		if !created && adj.Primary == optionID {
			return false
		}
		adj.Primary = optionID
		adj.Secondary = entities.OptionNone
	case entities.AdjustmentSlotSecondary:
		if adj.Primary == entities.OptionNone {
			optionID = entities.OptionNone
		}
		if !created && adj.Secondary == optionID {
			return false
		}
		adj.Secondary = optionID
	default:
		return s.apply(entities.SelectionEventSetAdjustment, created)
	}
	return s.apply(entities.SelectionEventSetAdjustment, true)
}

// LineItem returns the pricing input of a line item
func (s *SelectionStore) LineItem(lineItem, subItem int) (entities.LineItemPricing, bool) {
	for _, item := range s.lineItems {
		if item.LineItem == lineItem && item.SubItem == subItem {
			return item, true
		}
	}
	return entities.LineItemPricing{}, false
}

func (s *SelectionStore) lineItem(lineItem, subItem int) (*entities.LineItemPricing, bool) {
	for i := range s.lineItems {
		if s.lineItems[i].LineItem == lineItem && s.lineItems[i].SubItem == subItem {
			return &s.lineItems[i], false
		}
	}
	s.lineItems = append(s.lineItems, entities.LineItemPricing{
		LineItem:   lineItem,
		SubItem:    subItem,
		Adjustment: entities.NewPricingAdjustment(decimal.Zero),
	})
	return &s.lineItems[len(s.lineItems)-1], true
}

// Apply validates a selection event and dispatches it. It reports whether the
// state changed; a well-formed event that changes nothing is not an error.
func (s *SelectionStore) Apply(event entities.SelectionEvent) (bool, error) {
	switch event.Type {
	case entities.SelectionEventSelectDiagnosis,
		entities.SelectionEventDeselectDiagnosis,
		entities.SelectionEventSelectSurgery,
		entities.SelectionEventDeselectSurgery,
		entities.SelectionEventToggleComplication:
		id := strings.TrimSpace(event.ID)
		if id == "" {
			return false, apperrors.NewValidationError(fmt.Sprintf("%s requires an id", event.Type))
		}
		switch event.Type {
		case entities.SelectionEventSelectDiagnosis:
			return s.SelectDiagnosis(id), nil
		case entities.SelectionEventDeselectDiagnosis:
			return s.DeselectDiagnosis(id), nil
		case entities.SelectionEventSelectSurgery:
			return s.SelectSurgery(id), nil
		case entities.SelectionEventDeselectSurgery:
			return s.DeselectSurgery(id), nil
		default:
			return s.ToggleComplication(id, event.Checked), nil
		}

	case entities.SelectionEventSetActiveDay:
		if strings.TrimSpace(event.Day) == "" {
			return s.SetActiveDay(nil), nil
		}
		day, ok := entities.ParseTreatmentDay(event.Day)
		if !ok {
			return false, apperrors.NewValidationError(fmt.Sprintf("unknown treatment day %q", event.Day))
		}
		return s.SetActiveDay(&day), nil

	case entities.SelectionEventSetInvestigationFilter:
		if strings.TrimSpace(event.Category) == "" {
			return s.SetInvestigationFilter(nil), nil
		}
		category, ok := entities.ParseInvestigationCategory(event.Category)
		if !ok {
			return false, apperrors.NewValidationError(fmt.Sprintf("unknown investigation category %q", event.Category))
		}
		return s.SetInvestigationFilter(&category), nil

	case entities.SelectionEventSetBaseAmount:
		if err := validateLineItem(event); err != nil {
			return false, err
		}
		if event.Amount == nil {
			return false, apperrors.NewValidationError("set_base_amount requires an amount")
		}
		if event.Amount.IsNegative() {
			return false, apperrors.NewValidationError("base amount must not be negative")
		}
		return s.SetBaseAmount(event.LineItem, event.SubItem, *event.Amount), nil

	case entities.SelectionEventSetAdjustment:
		if err := validateLineItem(event); err != nil {
			return false, err
		}
		slot, ok := entities.ParseAdjustmentSlot(event.Slot)
		if !ok {
			return false, apperrors.NewValidationError(fmt.Sprintf("unknown adjustment slot %q", event.Slot))
		}
		optionID := strings.TrimSpace(event.OptionID)
		if optionID == "" {
			optionID = entities.OptionNone
		}
		return s.SetAdjustment(event.LineItem, event.SubItem, slot, optionID), nil
	}

	return false, apperrors.NewValidationError(fmt.Sprintf("unknown selection event type %q", event.Type))
}

func validateLineItem(event entities.SelectionEvent) error {
	if event.LineItem < 0 || event.SubItem < 0 {
		return apperrors.NewValidationError("line item indexes must not be negative")
	}
	return nil
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
