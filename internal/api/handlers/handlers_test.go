package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/cache"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/catalog"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/adapters/events"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/handlers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/providers"
)

type testServer struct {
	mux      *http.ServeMux
	sessions *services.SessionService
	sse      *handlers.SSEHandler
	bus      providers.EventBus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	c, err := services.LoadCatalog(context.Background(), catalog.NewYAMLCatalogAdapter(""))
	require.NoError(t, err)

	resolver := services.NewCascadeResolver(c)
	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	sessions := services.NewSessionService(resolver, cache.NewSessionCacheAdapter(cache.NewMemoryAdapter(), 3600), nil, bus, nil)

	catalogHandler := handlers.NewCatalogHandler(services.NewCatalogService(c, nil), sessions)
	pricingHandler := handlers.NewPricingHandler(resolver.Pricing(), nil)
	sessionHandler := handlers.NewSessionHandler(sessions)
	sseHandler := handlers.NewSSEHandler(bus, sessions).WithHeartbeat(time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/catalog/diagnoses", catalogHandler.ListDiagnoses)
	mux.HandleFunc("GET /api/catalog/surgeries", catalogHandler.ListSurgeries)
	mux.HandleFunc("GET /api/catalog/adjustment-options", catalogHandler.ListAdjustmentOptions)
	mux.HandleFunc("GET /api/catalog/search", catalogHandler.Search)
	mux.HandleFunc("GET /api/catalog/{type}/{id}/complications", catalogHandler.GetComplications)
	mux.HandleFunc("POST /api/pricing/quote", pricingHandler.Quote)
	mux.HandleFunc("POST /api/sessions", sessionHandler.OpenSession)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("POST /api/sessions/{id}/events", sessionHandler.ApplyEvents)
	mux.HandleFunc("POST /api/sessions/{id}/finalize", sessionHandler.FinalizeSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.CloseSession)
	mux.HandleFunc("GET /api/visits/{visitId}/records", sessionHandler.ListVisitRecords)

	return &testServer{mux: mux, sessions: sessions, sse: sseHandler, bus: bus}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestCatalogHandler_Lists(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/catalog/diagnoses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var diagnoses struct {
		Version   string                  `json:"version"`
		Diagnoses []entities.DiagnosisRef `json:"diagnoses"`
	}
	decode(t, rec, &diagnoses)
	assert.Equal(t, "2026.1", diagnoses.Version)
	assert.Equal(t, "dx-appendicitis", diagnoses.Diagnoses[0].ID)

	rec = s.do(t, http.MethodGet, "/api/catalog/adjustment-options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var options struct {
		Options []entities.AdjustmentOption `json:"options"`
	}
	decode(t, rec, &options)
	assert.Equal(t, entities.OptionNone, options.Options[0].ID)

	rec = s.do(t, http.MethodGet, "/api/catalog/surgeries", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sx-lap-cholecystectomy")
}

func TestCatalogHandler_Search(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/catalog/search?q=laparoscopic&type=surgery&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []entities.CatalogEntry `json:"results"`
		Count   int                     `json:"count"`
	}
	decode(t, rec, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "sx-lap-appendectomy", body.Results[0].ID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/catalog/search?type=ward", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/catalog/search?limit=ten", "").Code)
}

func TestCatalogHandler_GetComplications(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/catalog/surgery/sx-lap-appendectomy/complications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Complications []entities.Complication `json:"complications"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Complications, 3)
	assert.Equal(t, "cx-ssi", body.Complications[0].ID)
	assert.Equal(t, entities.SourceTypeSurgery, body.Complications[0].SourceType)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/catalog/diagnosis/dx-unknown/complications", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/catalog/ward/w-1/complications", "").Code)
}

func TestPricingHandler_Quote(t *testing.T) {
	s := newTestServer(t)

	body := `{"line_items":[
		{"line_item":0,"sub_item":0,"base_amount":"2698","primary_adjustment":"discount_10","secondary_adjustment":"discount_50"},
		{"line_item":1,"sub_item":0,"base_amount":2698,"primary_adjustment":"addition_15"},
		{"line_item":2,"sub_item":0,"base_amount":"500","secondary_adjustment":"discount_50"}
	]}`
	rec := s.do(t, http.MethodPost, "/api/pricing/quote", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quote handlers.QuoteResponse
	decode(t, rec, &quote)
	require.Len(t, quote.LineItems, 3)
	assert.Equal(t, "1214", quote.LineItems[0].Result.FinalAmount.String())
	assert.Equal(t, "405", quote.LineItems[1].Result.AdditionAmount.String())
	assert.Equal(t, "3103", quote.LineItems[1].Result.FinalAmount.String())
	assert.Equal(t, "500", quote.LineItems[2].Result.FinalAmount.String())
	assert.Equal(t, entities.OptionNone, quote.LineItems[2].Adjustment.Secondary)
	assert.Equal(t, "4817", quote.TotalAmount.String())
}

func TestPricingHandler_QuoteRejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	tests := map[string]string{
		"empty":         `{"line_items":[]}`,
		"missing base":  `{"line_items":[{"primary_adjustment":"discount_10"}]}`,
		"negative base": `{"line_items":[{"base_amount":"-1"}]}`,
		"unknown field": `{"line_items":[{"base_amount":"1","discount":"10"}]}`,
		"not json":      `line_items=1`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/pricing/quote", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func openSession(t *testing.T, s *testServer, visitID string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/sessions", `{"visit_id":"`+visitID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view services.SessionView
	decode(t, rec, &view)
	require.NotEmpty(t, view.Snapshot.SessionID)
	assert.True(t, view.Derivation.NothingSelected)
	return view.Snapshot.SessionID
}

func TestSessionHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	id := openSession(t, s, "visit-100")

	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/events", `{"events":[
		{"type":"select_diagnosis","id":"dx-appendicitis"},
		{"type":"toggle_complication","id":"cx-sepsis","checked":true},
		{"type":"set_active_day","day":"D1"},
		{"type":"set_base_amount","line_item":0,"amount":"2698"},
		{"type":"set_adjustment","line_item":0,"slot":"primary","option_id":"discount_10"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var applied services.ApplyResult
	decode(t, rec, &applied)
	assert.True(t, applied.Changed)
	require.Len(t, applied.Derivation.Complications, 1)
	assert.Equal(t, "cx-sepsis", applied.Derivation.Complications[0].ID)
	assert.True(t, applied.Derivation.HasInvestigations)
	assert.Equal(t, "med-paracetamol", applied.Derivation.Medications[0].ID)
	assert.Equal(t, "2428", applied.Derivation.LineItems[0].Result.FinalAmount.String())

	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/events", `{"type":"select_diagnosis","id":"dx-appendicitis"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &applied)
	assert.False(t, applied.Changed)

	rec = s.do(t, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.SessionView
	decode(t, rec, &view)
	assert.Equal(t, 5, view.Snapshot.Version)

	rec = s.do(t, http.MethodPost, "/api/sessions/"+id+"/finalize", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var record entities.VisitRecord
	decode(t, rec, &record)
	assert.Equal(t, "visit-100", record.VisitID)
	assert.Equal(t, "2428", record.TotalAmount.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/sessions/"+id, "").Code)
}

func TestSessionHandler_Errors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/sessions", `{"visit_id":"  "}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/sessions/nope/events", `{"type":"select_diagnosis","id":"dx-1"}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/sessions/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/visits/visit-1/records", "").Code)

	id := openSession(t, s, "visit-7")
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/sessions/"+id+"/events", `{}`).Code)
	rec := s.do(t, http.MethodPost, "/api/sessions/"+id+"/events", `{"type":"set_active_day","day":"D7"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown treatment day")

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/sessions/"+id, "").Code)
}

func TestSSEHandler_StreamSession(t *testing.T) {
	s := newTestServer(t)
	id := openSession(t, s, "visit-55")

	req := httptest.NewRequest(http.MethodGet, "/api/stream/sessions/"+id, nil)
	req.SetPathValue("id", id)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.sse.StreamSession(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.sse.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := s.sessions.Apply(context.Background(), id, entities.SelectionEvent{Type: entities.SelectionEventSelectSurgery, ID: "sx-lap-appendectomy"})
	require.NoError(t, err)
	_, err = s.sessions.Finalize(context.Background(), id)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after finalize")
	}

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: snapshot\n"))
	assert.Contains(t, body, "event: derivation_updated\n")
	assert.Contains(t, body, "event: session_finalized\n")
	assert.Less(t, strings.Index(body, "derivation_updated"), strings.Index(body, "session_finalized"))
	assert.Zero(t, s.sse.GetClientCount())
}

func TestSSEHandler_UnknownSession(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stream/sessions/ghost", nil)
	req.SetPathValue("id", "ghost")
	w := httptest.NewRecorder()
	s.sse.StreamSession(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
