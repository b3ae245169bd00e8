package handlers

import (
	"net/http"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// SessionHandler exposes visit-editing sessions over HTTP
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// OpenSessionRequest is the body of POST /api/sessions
type OpenSessionRequest struct {
	VisitID string `json:"visit_id"`
}

// ApplyEventsRequest carries one or more selection events. A body holding a
// single event object is also accepted.
type ApplyEventsRequest struct {
	Events []entities.SelectionEvent `json:"events"`
}

// OpenSession handles POST /api/sessions
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	view, err := h.sessions.Open(r.Context(), req.VisitID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// ApplyEvents handles POST /api/sessions/{id}/events. Events are applied in
// order; the first rejected event stops the batch and earlier events stay
// applied.
func (h *SessionHandler) ApplyEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplyEventsRequest
		entities.SelectionEvent
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	events := req.Events
	if len(events) == 0 && req.Type != "" {
		events = []entities.SelectionEvent{req.SelectionEvent}
	}
	if len(events) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one event is required")
		return
	}

	sessionID := r.PathValue("id")
	changed := false
	var result *services.ApplyResult
	for _, event := range events {
		var err error
		result, err = h.sessions.Apply(r.Context(), sessionID, event)
		if err != nil {
			respondWithAppError(w, r, err)
			return
		}
		changed = changed || result.Changed
	}

	respondWithJSON(w, http.StatusOK, services.ApplyResult{Changed: changed, Derivation: result.Derivation})
}

// FinalizeSession handles POST /api/sessions/{id}/finalize
func (h *SessionHandler) FinalizeSession(w http.ResponseWriter, r *http.Request) {
	record, err := h.sessions.Finalize(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// CloseSession handles DELETE /api/sessions/{id}
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVisitRecords handles GET /api/visits/{visitId}/records
func (h *SessionHandler) ListVisitRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.sessions.VisitRecords(r.Context(), r.PathValue("visitId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
