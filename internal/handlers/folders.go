package handlers

import (
	"errors"
	"net/http"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/middleware"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxFolderNameLength is the maximum length for a folder name
const MaxFolderNameLength = 200

// FolderHandler handles thread folder requests
type FolderHandler struct {
	folderRepo database.FolderRepositoryInterface
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderRepo database.FolderRepositoryInterface) *FolderHandler {
	return &FolderHandler{folderRepo: folderRepo}
}

// RegisterRoutes registers folder routes on the given router
// The router should already have the /folders prefix
func (h *FolderHandler) RegisterRoutes(r *mux.Router) {
	// The threads route must precede /{id} so "threads" is not parsed as a folder ID
	r.HandleFunc("/threads/{threadID}", h.RemoveThread).Methods("DELETE")
	r.HandleFunc("", h.ListFolders).Methods("GET")
	r.HandleFunc("", h.CreateFolder).Methods("POST")
	r.HandleFunc("/{id}", h.GetFolder).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteFolder).Methods("DELETE")
	r.HandleFunc("/{id}/threads/{threadID}", h.MoveThread).Methods("PUT")
}

// CreateFolderRequest represents a create folder request
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ListFolders lists folders for the authenticated user
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	folders, err := h.folderRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve folders")
		return
	}

	respondJSON(w, http.StatusOK, folders)
}

// CreateFolder creates a new empty folder
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateFolderRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	folder := &models.Folder{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      req.Name,
		ThreadIDs: []uuid.UUID{},
	}

	if err := h.folderRepo.Create(r.Context(), folder); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create folder")
		return
	}

	respondJSON(w, http.StatusCreated, folder)
}

// GetFolder retrieves a folder by ID
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid folder ID")
		return
	}

	folder, err := h.folderRepo.GetByIDForUser(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Folder not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve folder")
		}
		return
	}

	respondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder. Its threads survive and simply become
// unfiled. Deleting a folder the caller does not own changes nothing.
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid folder ID")
		return
	}

	if err := h.folderRepo.Delete(r.Context(), user.ID, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete folder")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// MoveThread places a thread in a folder, removing it from any folder it
// was in before. Moves involving threads or folders the caller does not
// own change nothing.
func (h *FolderHandler) MoveThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	folderID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid folder ID")
		return
	}
	threadID, err := uuid.Parse(vars["threadID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	if err := h.folderRepo.MoveThread(r.Context(), user.ID, threadID, folderID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to move thread")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"folder_id": folderID, "thread_id": threadID})
}

// RemoveThread takes a thread out of whatever folder holds it
func (h *FolderHandler) RemoveThread(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	threadID, err := uuid.Parse(vars["threadID"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	if err := h.folderRepo.RemoveThread(r.Context(), user.ID, threadID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to remove thread from folder")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"thread_id": threadID, "removed": true})
}
