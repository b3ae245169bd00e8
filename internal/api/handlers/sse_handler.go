package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
)

const defaultHeartbeat = 30 * time.Second

// SSEHandler streams session derivations as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	sessions  *services.SessionService
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[string]int
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, sessions *services.SessionService) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		sessions:  sessions,
		heartbeat: defaultHeartbeat,
		clients:   make(map[string]int),
	}
}

// WithHeartbeat overrides the keep-alive interval
func (h *SSEHandler) WithHeartbeat(interval time.Duration) *SSEHandler {
	h.heartbeat = interval
	return h
}

// StreamSession handles GET /api/stream/sessions/{id}. The current derivation
// is sent first, then every update until the session is finalized or closed.
func (h *SSEHandler) StreamSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := observability.ContextWithSession(r.Context(), sessionID)
	logger := observability.LoggerFromContext(ctx)

	view, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	channel := providers.GetSessionChannel(sessionID)
	eventChan, err := h.eventBus.Subscribe(ctx, channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		respondWithError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	h.registerClient(sessionID)
	defer h.unregisterClient(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.sendEvent(w, "snapshot", view)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("client disconnected from session stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
			if event.EventType == entities.SessionEventTypeFinalized || event.EventType == entities.SessionEventTypeClosed {
				return
			}
		}
	}
}

func (h *SSEHandler) registerClient(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID]++
}

func (h *SSEHandler) unregisterClient(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID]--; h.clients[sessionID] <= 0 {
		delete(h.clients, sessionID)
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Str("event", eventType).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, n := range h.clients {
		count += n
	}
	return count
}
