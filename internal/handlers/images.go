package handlers

import (
	"log"
	"net/http"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/middleware"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/convoke/convoke-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxPromptLength is the maximum length for an image prompt
const MaxPromptLength = 4000

// ImageHandler handles image generation requests
type ImageHandler struct {
	imageRepo  database.ImageRepositoryInterface
	jobQueue   queue.JobQueue
	imageModel string
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageRepo database.ImageRepositoryInterface, jobQueue queue.JobQueue, imageModel string) *ImageHandler {
	return &ImageHandler{imageRepo: imageRepo, jobQueue: jobQueue, imageModel: imageModel}
}

// RegisterRoutes registers authenticated image routes on the given router
// The router should already have the /images prefix
func (h *ImageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListImages).Methods("GET")
	r.HandleFunc("", h.SubmitImage).Methods("POST")
	r.HandleFunc("/{id}/visibility", h.SetVisibility).Methods("PATCH")
}

// RegisterPublicRoutes registers the unauthenticated gallery route
// The router should already have the /gallery prefix
func (h *ImageHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPublicImages).Methods("GET")
}

// SubmitImageRequest represents an image generation request
type SubmitImageRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
}

// VisibilityRequest toggles an image's public flag
type VisibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

// SubmitImage records a pending image and enqueues its generation job.
// The response is 202: the asset arrives asynchronously.
func (h *ImageHandler) SubmitImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req SubmitImageRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Prompt = validation.SanitizeText(req.Prompt)
	if req.Prompt == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Prompt is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()
	img := &models.GeneratedImage{
		ID:     uuid.New(),
		UserID: user.ID,
		Prompt: req.Prompt,
		Status: models.ImageStatusPending,
	}

	if err := h.imageRepo.Create(ctx, img); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store image request")
		return
	}

	job := queue.NewImageJob(user.ID, img.ID, h.imageModel)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		log.Printf("Failed to enqueue image job for %s: %v", img.ID, err)
		if markErr := h.imageRepo.MarkFailed(ctx, img.ID); markErr != nil {
			log.Printf("Failed to mark image %s as failed: %v", img.ID, markErr)
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to schedule image generation")
		return
	}

	respondJSON(w, http.StatusAccepted, img)
}

// ListImages lists the caller's images, newest first, in every status
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	images, err := h.imageRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve images")
		return
	}

	respondJSON(w, http.StatusOK, images)
}

// ListPublicImages lists completed images their owners chose to share.
// Pending and failed images never appear here regardless of the flag.
func (h *ImageHandler) ListPublicImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.imageRepo.ListPublic(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve gallery")
		return
	}

	respondJSON(w, http.StatusOK, images)
}

// SetVisibility toggles an image's public flag. Toggling an image the
// caller does not own changes nothing.
func (h *ImageHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid image ID")
		return
	}

	var req VisibilityRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := h.imageRepo.SetVisibility(r.Context(), user.ID, id, *req.IsPublic); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update image visibility")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "is_public": *req.IsPublic})
}
