package routes

import (
	"net/http"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/handlers"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/api/middleware"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	catalogHandler *handlers.CatalogHandler
	pricingHandler *handlers.PricingHandler
	sessionHandler *handlers.SessionHandler
	sseHandler     *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	cors            middleware.CORSConfig
	metrics         *observability.Metrics
}

// NewRouter creates a new router. cacheMiddleware and sseHandler may be nil.
func NewRouter(
	catalogHandler *handlers.CatalogHandler,
	pricingHandler *handlers.PricingHandler,
	sessionHandler *handlers.SessionHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	cors middleware.CORSConfig,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		catalogHandler:  catalogHandler,
		pricingHandler:  pricingHandler,
		sessionHandler:  sessionHandler,
		sseHandler:      sseHandler,
		cacheMiddleware: cacheMiddleware,
		cors:            cors,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Catalog endpoints
	r.mux.HandleFunc("GET /api/catalog/diagnoses", r.catalogHandler.ListDiagnoses)
	r.mux.HandleFunc("GET /api/catalog/surgeries", r.catalogHandler.ListSurgeries)
	r.mux.HandleFunc("GET /api/catalog/adjustment-options", r.catalogHandler.ListAdjustmentOptions)
	r.mux.HandleFunc("GET /api/catalog/search", r.catalogHandler.Search)
	r.mux.HandleFunc("GET /api/catalog/{type}/{id}/complications", r.catalogHandler.GetComplications)

	// Pricing endpoints
	r.mux.HandleFunc("POST /api/pricing/quote", r.pricingHandler.Quote)

	// Session endpoints
	r.mux.HandleFunc("POST /api/sessions", r.sessionHandler.OpenSession)
	r.mux.HandleFunc("GET /api/sessions/{id}", r.sessionHandler.GetSession)
	r.mux.HandleFunc("POST /api/sessions/{id}/events", r.sessionHandler.ApplyEvents)
	r.mux.HandleFunc("POST /api/sessions/{id}/finalize", r.sessionHandler.FinalizeSession)
	r.mux.HandleFunc("DELETE /api/sessions/{id}", r.sessionHandler.CloseSession)
	r.mux.HandleFunc("GET /api/visits/{visitId}/records", r.sessionHandler.ListVisitRecords)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/sessions/{id}", r.sseHandler.StreamSession)
	}

	// Last wrapper runs first. CORS is outermost so cached responses also
	// carry CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.cors)(handler)

	return handler
}
