package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/repositories"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
	apperrors "github.com/chatgptnotes/adamrit.in-sub001/pkg/errors"
)

// SessionView is a session's stored state together with what it derives
type SessionView struct {
	Snapshot   *entities.SelectionSnapshot `json:"snapshot"`
	Derivation *entities.Derivation        `json:"derivation"`
}

// ApplyResult is returned after a selection event
type ApplyResult struct {
	Changed    bool                 `json:"changed"`
	Derivation *entities.Derivation `json:"derivation"`
}

// SessionService runs visit-editing sessions: it restores a session's
// SelectionStore, applies one event at a time and publishes the new
// derivation. Events for the same session are serialised.
type SessionService struct {
	resolver *CascadeResolver
	sessions repositories.SessionRepository
	visits   repositories.VisitRecordRepository
	eventBus providers.EventBus
	metrics  *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionService creates a new session service. visits, eventBus and
// metrics are optional.
func NewSessionService(
	resolver *CascadeResolver,
	sessions repositories.SessionRepository,
	visits repositories.VisitRecordRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
) *SessionService {
	return &SessionService{
		resolver: resolver,
		sessions: sessions,
		visits:   visits,
		eventBus: eventBus,
		metrics:  metrics,
		locks:    make(map[string]*sessionLock),
	}
}

// Resolver returns the cascade resolver sessions derive with
func (s *SessionService) Resolver() *CascadeResolver {
	return s.resolver
}

// lock serialises work on one session. The returned func releases it.
func (s *SessionService) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// Open starts a new editing session for a visit
func (s *SessionService) Open(ctx context.Context, visitID string) (*SessionView, error) {
	visitID = strings.TrimSpace(visitID)
	if visitID == "" {
		return nil, apperrors.NewValidationError("visit_id is required")
	}

	store := NewSelectionStore(uuid.New().String(), visitID)
	snapshot := store.Snapshot()
	if err := s.sessions.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	ctx = observability.ContextWithSession(ctx, snapshot.SessionID)
	observability.LoggerFromContext(ctx).Info().
		Str("visit_id", visitID).
		Msg("session opened")

	return &SessionView{Snapshot: snapshot, Derivation: s.derive(ctx, snapshot, "open")}, nil
}

// Get returns a session's state and derivation
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	snapshot, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctx = observability.ContextWithSession(ctx, sessionID)
	return &SessionView{Snapshot: snapshot, Derivation: s.derive(ctx, snapshot, "get")}, nil
}

// Apply applies one selection event to a session. The derivation is
// recomputed synchronously before the next event for the session is accepted.
func (s *SessionService) Apply(ctx context.Context, sessionID string, event entities.SelectionEvent) (*ApplyResult, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	ctx = observability.ContextWithSession(ctx, sessionID)
	ctx, span := observability.StartSpan(ctx, "SessionService.Apply")
	defer span.End()

	snapshot, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	store := RestoreSelectionStore(snapshot)

	var derivation *entities.Derivation
	unsubscribe := store.Subscribe(func(updated *entities.SelectionSnapshot, cause entities.SelectionEventType) {
		derivation = s.derive(ctx, updated, string(cause))
	})
	changed, err := store.Apply(event)
	unsubscribe()
	observability.RecordSessionEvent(ctx, s.metrics, string(event.Type), changed)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	updated := store.Snapshot()
	if !changed {
		return &ApplyResult{Changed: false, Derivation: s.derive(ctx, updated, string(event.Type))}, nil
	}

	if err := s.sessions.Save(ctx, updated); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.publish(ctx, entities.NewSessionEvent(updated, entities.SessionEventTypeDerivationUpdated, event.Type, derivation))

	observability.LoggerFromContext(ctx).Debug().
		Str("event_type", string(event.Type)).
		Int("version", updated.Version).
		Int("complications", len(derivation.Complications)).
		Int("investigations", len(derivation.Investigations)).
		Int("medications", len(derivation.Medications)).
		Msg("selection event applied")

	return &ApplyResult{Changed: true, Derivation: derivation}, nil
}

// ScopedComplications lists every complication of one diagnosis or surgery,
// for the clinician to choose from
func (s *SessionService) ScopedComplications(sourceType entities.SourceType, sourceID string) ([]entities.Complication, error) {
	if _, ok := s.resolver.Catalog().SourceName(sourceType, sourceID); !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("%s %q not found", sourceType, sourceID))
	}
	return s.resolver.ResolveComplications(ResolutionModeScoped, sourceType, []string{sourceID}, nil), nil
}

// Finalize hands the session's final selections and prices to the visit
// record repository and ends the session
func (s *SessionService) Finalize(ctx context.Context, sessionID string) (*entities.VisitRecord, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	ctx = observability.ContextWithSession(ctx, sessionID)
	snapshot, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	derivation := s.derive(ctx, snapshot, "finalize")
	record := BuildVisitRecord(snapshot, derivation, s.resolver.Pricing())

	if s.visits != nil {
		if err := s.visits.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist visit record: %w", err)
		}
	} else {
		observability.LoggerFromContext(ctx).Warn().
			Str("visit_id", snapshot.VisitID).
			Msg("no visit record store configured, finalized selections not persisted")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	s.publish(ctx, entities.NewSessionEvent(snapshot, entities.SessionEventTypeFinalized, "", derivation))

	observability.LoggerFromContext(ctx).Info().
		Str("visit_id", snapshot.VisitID).
		Str("record_id", record.ID).
		Str("total_amount", record.TotalAmount.String()).
		Msg("session finalized")

	return record, nil
}

// VisitRecords lists the finalized records of a visit, newest first
func (s *SessionService) VisitRecords(ctx context.Context, visitID string) ([]*entities.VisitRecord, error) {
	if s.visits == nil {
		return nil, apperrors.NewNotFoundError("visit records are not stored by this deployment")
	}
	visitID = strings.TrimSpace(visitID)
	if visitID == "" {
		return nil, apperrors.NewValidationError("visit_id is required")
	}
	return s.visits.GetByVisitID(ctx, visitID)
}

// Close discards a session without persisting anything
func (s *SessionService) Close(ctx context.Context, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	ctx = observability.ContextWithSession(ctx, sessionID)
	snapshot, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.publish(ctx, entities.NewSessionEvent(snapshot, entities.SessionEventTypeClosed, "", nil))
	observability.LoggerFromContext(ctx).Info().Msg("session closed")
	return nil
}

func (s *SessionService) derive(ctx context.Context, snapshot *entities.SelectionSnapshot, cause string) *entities.Derivation {
	start := time.Now()
	derivation := s.resolver.Derive(snapshot)
	observability.RecordDerivation(ctx, s.metrics, cause, len(derivation.LineItems), time.Since(start))
	return derivation
}

func (s *SessionService) publish(ctx context.Context, event *entities.SessionEvent) {
	if s.eventBus == nil {
		return
	}
	channels := []string{
		providers.EventChannelSessionUpdates,
		providers.GetSessionChannel(event.SessionID),
		providers.GetVisitChannel(event.VisitID),
	}
	for _, channel := range channels {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("channel", channel).
				Str("event_type", string(event.EventType)).
				Msg("failed to publish session event")
		}
	}
}

// BuildVisitRecord collects the final id sets and line item amounts of a
// session for persistence
func BuildVisitRecord(snapshot *entities.SelectionSnapshot, derivation *entities.Derivation, pricing *PricingAdjuster) *entities.VisitRecord {
	record := &entities.VisitRecord{
		ID:               uuid.New().String(),
		VisitID:          snapshot.VisitID,
		SessionID:        snapshot.SessionID,
		DiagnosisIDs:     append([]string{}, snapshot.SelectedDiagnoses...),
		SurgeryIDs:       append([]string{}, snapshot.SelectedSurgeries...),
		ComplicationIDs:  uniqueComplicationIDs(derivation.Complications),
		InvestigationIDs: make([]string, 0, len(derivation.Investigations)),
		MedicationIDs:    make([]string, 0, len(derivation.Medications)),
		LineItems:        make([]entities.VisitLineItemPrice, 0, len(derivation.LineItems)),
		TotalAmount:      decimal.Zero,
		FinalizedAt:      time.Now().UTC(),
	}

	for _, inv := range derivation.Investigations {
		record.InvestigationIDs = append(record.InvestigationIDs, inv.ID)
	}
	for _, med := range derivation.Medications {
		record.MedicationIDs = append(record.MedicationIDs, med.ID)
	}
	for _, item := range derivation.LineItems {
		record.LineItems = append(record.LineItems, entities.VisitLineItemPrice{
			LineItem:            item.LineItem,
			SubItem:             item.SubItem,
			BaseAmount:          item.Adjustment.BaseAmount,
			PrimaryAdjustment:   item.Adjustment.Primary,
			SecondaryAdjustment: pricing.EffectiveSecondary(item.Adjustment),
			FinalAmount:         item.Result.FinalAmount,
		})
		record.TotalAmount = record.TotalAmount.Add(item.Result.FinalAmount)
	}

	return record
}

// uniqueComplicationIDs keeps one id per complication. The aggregate view
// lists a complication once per source; the stored record does not.
func uniqueComplicationIDs(complications []entities.Complication) []string {
	seen := make(map[string]struct{}, len(complications))
	ids := make([]string, 0, len(complications))
	for _, c := range complications {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		ids = append(ids, c.ID)
	}
	return ids
}
