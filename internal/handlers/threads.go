package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/middleware"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ThreadHandler handles conversation thread requests
type ThreadHandler struct {
	threadRepo  database.ThreadRepositoryInterface
	catalogRepo database.ModelCatalogRepositoryInterface
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(threadRepo database.ThreadRepositoryInterface, catalogRepo database.ModelCatalogRepositoryInterface) *ThreadHandler {
	return &ThreadHandler{threadRepo: threadRepo, catalogRepo: catalogRepo}
}

// RegisterRoutes registers thread routes on the given router
// The router should already have the /threads prefix
func (h *ThreadHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListThreads).Methods("GET")
	r.HandleFunc("", h.CreateThread).Methods("POST")
	r.HandleFunc("/{id}", h.GetThread).Methods("GET")
	r.HandleFunc("/{id}", h.RenameThread).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteThread).Methods("DELETE")
	r.HandleFunc("/{id}/model", h.GetModelPreference).Methods("GET")
	r.HandleFunc("/{id}/model", h.SetModelPreference).Methods("PUT")
}

const (
	// MaxThreadTitleLength is the maximum length for a thread title
	MaxThreadTitleLength = 500
)

// CreateThreadRequest represents a create thread request
type CreateThreadRequest struct {
	Title     string `json:"title" validate:"required,min=1,max=500"`
	ModelName string `json:"model_name,omitempty"`
}

// RenameThreadRequest represents a rename thread request
type RenameThreadRequest struct {
	Title string `json:"title" validate:"required,min=1,max=500"`
}

// ModelPreferenceRequest represents a set-model-preference request
type ModelPreferenceRequest struct {
	ModelName string `json:"model_name" validate:"required,min=1,max=200"`
}

// ModelPreferenceResponse reports the model bound to a thread
type ModelPreferenceResponse struct {
	ThreadID  uuid.UUID `json:"thread_id"`
	ModelName string    `json:"model_name"`
}

// ListThreads lists threads for the authenticated user, most recently
// updated first
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	threads, err := h.threadRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve threads")
		return
	}

	respondJSON(w, http.StatusOK, threads)
}

// CreateThread creates a new thread bound to a model preference
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateThreadRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()

	// An omitted model falls back to the default. The bound model, default
	// included, must exist in the catalog: a thread must never route jobs
	// to a model the worker cannot resolve.
	modelName := req.ModelName
	if modelName == "" {
		modelName = database.DefaultModelName
	}
	if err := h.validateModel(w, r, modelName); err != nil {
		return
	}

	thread := &models.Thread{
		ID:     uuid.New(),
		UserID: user.ID,
		Title:  req.Title,
	}

	if err := h.threadRepo.Create(ctx, thread, modelName); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create thread")
		return
	}

	respondJSON(w, http.StatusCreated, thread)
}

// GetThread retrieves a thread by ID
func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	thread, ok := h.ownedThread(w, r, user.ID)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, thread)
}

// RenameThread updates a thread title. Renaming a thread that does not
// belong to the caller changes nothing.
func (h *ThreadHandler) RenameThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	var req RenameThreadRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if req.Title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty after sanitization")
		return
	}

	if err := h.threadRepo.Rename(r.Context(), user.ID, id, req.Title); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to rename thread")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "title": req.Title})
}

// DeleteThread deletes a thread along with its messages, model preference
// and folder membership. Deleting a thread that does not belong to the
// caller changes nothing.
func (h *ThreadHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	if err := h.threadRepo.Delete(r.Context(), user.ID, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete thread")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// GetModelPreference returns the model bound to a thread, falling back to
// the default model when no preference row exists
func (h *ThreadHandler) GetModelPreference(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	thread, ok := h.ownedThread(w, r, user.ID)
	if !ok {
		return
	}

	modelName, err := h.threadRepo.GetPreference(r.Context(), thread.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get model preference")
		return
	}

	respondJSON(w, http.StatusOK, ModelPreferenceResponse{ThreadID: thread.ID, ModelName: modelName})
}

// SetModelPreference binds a thread to a catalog model
func (h *ThreadHandler) SetModelPreference(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	thread, ok := h.ownedThread(w, r, user.ID)
	if !ok {
		return
	}

	var req ModelPreferenceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.validateModel(w, r, req.ModelName); err != nil {
		return
	}

	if err := h.threadRepo.SetPreference(r.Context(), thread.ID, req.ModelName); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to set model preference")
		return
	}

	respondJSON(w, http.StatusOK, ModelPreferenceResponse{ThreadID: thread.ID, ModelName: req.ModelName})
}

// ownedThread loads the thread from the request path and verifies it
// belongs to the user. Non-owned threads are indistinguishable from
// missing ones.
func (h *ThreadHandler) ownedThread(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.Thread, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return nil, false
	}

	thread, err := h.threadRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve thread")
		}
		return nil, false
	}

	if thread.UserID != userID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return nil, false
	}

	return thread, true
}

// validateModel rejects model names absent from the catalog
func (h *ThreadHandler) validateModel(w http.ResponseWriter, r *http.Request, modelName string) error {
	_, err := h.catalogRepo.GetByName(r.Context(), modelName)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Unsupported model: %s", modelName))
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to validate model")
		}
		return err
	}
	return nil
}

// decodeJSONBody decodes a JSON request body, writing the error response
// itself so callers can simply return
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return err
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return err
	}
	return nil
}

// respondValidationError reports the first struct validation failure
func respondValidationError(w http.ResponseWriter, err error) {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
			return
		}
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
}
