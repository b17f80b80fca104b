package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/middleware"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/convoke/convoke-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// MaxMessageLength is the maximum length for message content
	MaxMessageLength = 10000
	// DefaultPageSize is the default page size for message listing
	DefaultPageSize = 100
	// MaxPageSize is the maximum page size for message listing
	MaxPageSize = 500
)

// MessageHandler handles message requests within threads
type MessageHandler struct {
	threadRepo  database.ThreadRepositoryInterface
	messageRepo database.MessageRepositoryInterface
	quotaRepo   database.QuotaRepositoryInterface
	jobQueue    queue.JobQueue
	dailyLimit  int
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	threadRepo database.ThreadRepositoryInterface,
	messageRepo database.MessageRepositoryInterface,
	quotaRepo database.QuotaRepositoryInterface,
	jobQueue queue.JobQueue,
	dailyLimit int,
) *MessageHandler {
	return &MessageHandler{
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		quotaRepo:   quotaRepo,
		jobQueue:    jobQueue,
		dailyLimit:  dailyLimit,
	}
}

// RegisterRoutes registers message routes on the given router
// The router should already have the /threads prefix
func (h *MessageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/{id}/messages", h.ListMessages).Methods("GET")
	r.HandleFunc("/{id}/messages", h.SendMessage).Methods("POST")
}

// RegisterQuotaRoutes registers the quota endpoint on the given router
// The router should already have the /quota prefix
func (h *MessageHandler) RegisterQuotaRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetQuota).Methods("GET")
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// SendMessageResponse carries the stored user message and the assistant
// placeholder that the worker will fill in
type SendMessageResponse struct {
	Message *models.Message `json:"message"`
	Reply   *models.Message `json:"reply"`
}

// ListMessagesResponse represents the paginated response for listing messages
type ListMessagesResponse struct {
	Messages []*models.Message `json:"messages"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// QuotaResponse reports the caller's daily message usage
type QuotaResponse struct {
	Day       string `json:"day"`
	Count     int    `json:"count"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// SendMessage accepts a user message, charges the daily quota, persists
// the message together with a pending assistant reply, and enqueues the
// generation job. The response is 202: the reply arrives asynchronously.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	threadID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	var req SendMessageRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Content = validation.SanitizeText(req.Content)
	if req.Content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content is required and cannot be empty after sanitization")
		return
	}

	ctx := r.Context()

	// Ownership first: a send that will be rejected must not charge quota
	thread, err := h.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve thread")
		}
		return
	}
	if thread.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return
	}

	modelName, err := h.threadRepo.GetPreference(ctx, thread.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to resolve model preference")
		return
	}

	day := models.QuotaDay(time.Now())
	count, charged, err := h.quotaRepo.TryCharge(ctx, user.ID, day, h.dailyLimit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to check message quota")
		return
	}
	if !charged {
		respondJSONError(w, http.StatusTooManyRequests, "Quota Exceeded",
			"Daily message limit reached ("+strconv.Itoa(count)+"/"+strconv.Itoa(h.dailyLimit)+")")
		return
	}

	prompt := &models.Message{
		ID:        uuid.New(),
		ThreadID:  thread.ID,
		Role:      models.MessageRoleUser,
		Content:   req.Content,
		Status:    models.MessageStatusComplete,
		ModelName: modelName,
	}
	reply := &models.Message{
		ID:        uuid.New(),
		ThreadID:  thread.ID,
		Role:      models.MessageRoleAssistant,
		Status:    models.MessageStatusPending,
		ModelName: modelName,
	}

	if err := h.messageRepo.CreateExchange(ctx, prompt, reply); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store message")
		return
	}

	job := queue.NewChatJob(user.ID, thread.ID, reply.ID, modelName)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		// The reply row exists; mark it failed so clients stop waiting
		log.Printf("Failed to enqueue chat job for message %s: %v", reply.ID, err)
		if markErr := h.messageRepo.UpdateStream(ctx, reply.ID, "", models.MessageStatusFailed); markErr != nil {
			log.Printf("Failed to mark reply %s as failed: %v", reply.ID, markErr)
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to schedule reply generation")
		return
	}

	respondJSON(w, http.StatusAccepted, SendMessageResponse{Message: prompt, Reply: reply})
}

// ListMessages lists a thread's messages in chronological order
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	threadID, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid thread ID")
		return
	}

	ctx := r.Context()
	thread, err := h.threadRepo.GetByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		} else {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve thread")
		}
		return
	}
	if thread.UserID != user.ID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Thread not found")
		return
	}

	limit := DefaultPageSize
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			if parsed > MaxPageSize {
				limit = MaxPageSize
			} else {
				limit = parsed
			}
		}
	}
	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	messages, total, err := h.messageRepo.ListByThread(ctx, thread.ID, limit, offset)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve messages")
		return
	}

	respondJSON(w, http.StatusOK, ListMessagesResponse{
		Messages: messages,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// GetQuota reports the caller's message count for the current UTC day
func (h *MessageHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	day := models.QuotaDay(time.Now())
	count, err := h.quotaRepo.GetCount(r.Context(), user.ID, day)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve quota")
		return
	}

	remaining := h.dailyLimit - count
	if remaining < 0 {
		remaining = 0
	}

	respondJSON(w, http.StatusOK, QuotaResponse{
		Day:       day,
		Count:     count,
		Limit:     h.dailyLimit,
		Remaining: remaining,
	})
}
