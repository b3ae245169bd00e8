package handlers

import (
	"net/http"
	"strconv"

	"github.com/chatgptnotes/adamrit.in-sub001/internal/application/services"
	"github.com/chatgptnotes/adamrit.in-sub001/internal/domain/entities"
)

// CatalogHandler serves the read-only reference catalog
type CatalogHandler struct {
	catalog  *services.CatalogService
	sessions *services.SessionService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService, sessions *services.SessionService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, sessions: sessions}
}

// ListDiagnoses handles GET /api/catalog/diagnoses
func (h *CatalogHandler) ListDiagnoses(w http.ResponseWriter, r *http.Request) {
	c := h.catalog.Catalog()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"version":   c.Version(),
		"diagnoses": c.Diagnoses(),
	})
}

// ListSurgeries handles GET /api/catalog/surgeries
func (h *CatalogHandler) ListSurgeries(w http.ResponseWriter, r *http.Request) {
	c := h.catalog.Catalog()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"version":   c.Version(),
		"surgeries": c.Surgeries(),
	})
}

// ListAdjustmentOptions handles GET /api/catalog/adjustment-options
func (h *CatalogHandler) ListAdjustmentOptions(w http.ResponseWriter, r *http.Request) {
	c := h.catalog.Catalog()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"version": c.Version(),
		"options": c.Options(),
	})
}

// Search handles GET /api/catalog/search?q=&type=&limit=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var sourceType entities.SourceType
	if raw := query.Get("type"); raw != "" {
		parsed, ok := entities.ParseSourceType(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "type must be diagnosis or surgery")
			return
		}
		sourceType = parsed
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	results, err := h.catalog.Search(r.Context(), query.Get("q"), sourceType, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// GetComplications handles GET /api/catalog/{type}/{id}/complications
func (h *CatalogHandler) GetComplications(w http.ResponseWriter, r *http.Request) {
	sourceType, ok := entities.ParseSourceType(r.PathValue("type"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "type must be diagnosis or surgery")
		return
	}
	sourceID := r.PathValue("id")
	if sourceID == "" {
		respondWithError(w, http.StatusBadRequest, "id is required")
		return
	}

	complications, err := h.sessions.ScopedComplications(sourceType, sourceID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source_type":   sourceType,
		"source_id":     sourceID,
		"complications": complications,
	})
}
