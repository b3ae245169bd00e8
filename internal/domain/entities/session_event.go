package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionEventType represents the type of session event
type SessionEventType string

const (
	SessionEventTypeDerivationUpdated SessionEventType = "derivation_updated"
	SessionEventTypeFinalized         SessionEventType = "session_finalized"
	SessionEventTypeClosed            SessionEventType = "session_closed"
)

// SessionEvent is published whenever a session's derived state changes
type SessionEvent struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"session_id"`
	VisitID    string             `json:"visit_id"`
	EventType  SessionEventType   `json:"event_type"`
	Cause      SelectionEventType `json:"cause,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Derivation *Derivation        `json:"derivation,omitempty"`
}

// NewSessionEvent creates a new session event
func NewSessionEvent(snapshot *SelectionSnapshot, eventType SessionEventType, cause SelectionEventType, derivation *Derivation) *SessionEvent {
	return &SessionEvent{
		ID:         uuid.New().String(),
		SessionID:  snapshot.SessionID,
		VisitID:    snapshot.VisitID,
		EventType:  eventType,
		Cause:      cause,
		Timestamp:  time.Now().UTC(),
		Derivation: derivation,
	}
}
