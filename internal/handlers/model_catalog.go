package handlers

import (
	"net/http"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/gorilla/mux"
)

// ModelCatalogHandler serves the model catalog
type ModelCatalogHandler struct {
	catalogRepo database.ModelCatalogRepositoryInterface
}

// NewModelCatalogHandler creates a new model catalog handler
func NewModelCatalogHandler(catalogRepo database.ModelCatalogRepositoryInterface) *ModelCatalogHandler {
	return &ModelCatalogHandler{catalogRepo: catalogRepo}
}

// RegisterRoutes registers model catalog routes on the given router
// The router should already have the /models prefix
func (h *ModelCatalogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListModels).Methods("GET")
}

// ListModels returns every catalog entry in display order
func (h *ModelCatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	descriptors, err := h.catalogRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve models")
		return
	}

	respondJSON(w, http.StatusOK, descriptors)
}
