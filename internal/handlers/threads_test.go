package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/middleware"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "test@example.com"}
}

func authedRequest(t *testing.T, method, path string, body any, user *models.User) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	}
	return req
}

// envelope mirrors the JSON response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to parse response envelope: %v", err)
	}
	return env
}

func newThreadRouter(threadRepo database.ThreadRepositoryInterface, catalogRepo database.ModelCatalogRepositoryInterface) *mux.Router {
	r := mux.NewRouter()
	h := NewThreadHandler(threadRepo, catalogRepo)
	h.RegisterRoutes(r.PathPrefix("/threads").Subrouter())
	return r
}

func TestCreateThread_DefaultsModel(t *testing.T) {
	t.Parallel()

	var boundModel string
	threadRepo := &mockThreadRepo{
		createFunc: func(ctx context.Context, thread *models.Thread, modelName string) error {
			boundModel = modelName
			return nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	req := authedRequest(t, "POST", "/threads", CreateThreadRequest{Title: "New chat"}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if boundModel != database.DefaultModelName {
		t.Errorf("expected default model %q, got %q", database.DefaultModelName, boundModel)
	}
}

func TestCreateThread_DefaultModelNotSeeded(t *testing.T) {
	t.Parallel()

	// Empty catalog: even the default model must resolve before a thread
	// is bound to it
	catalogRepo := &mockCatalogRepo{
		getByNameFunc: func(ctx context.Context, modelName string) (*models.ModelDescriptor, error) {
			return nil, fmt.Errorf("model %s: %w", modelName, database.ErrNotFound)
		},
	}
	created := false
	threadRepo := &mockThreadRepo{
		createFunc: func(ctx context.Context, thread *models.Thread, modelName string) error {
			created = true
			return nil
		},
	}
	router := newThreadRouter(threadRepo, catalogRepo)

	req := authedRequest(t, "POST", "/threads", CreateThreadRequest{Title: "New chat"}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if created {
		t.Error("thread must not be created when the default model is not in the catalog")
	}
}

func TestCreateThread_UnknownModel(t *testing.T) {
	t.Parallel()

	catalogRepo := &mockCatalogRepo{
		getByNameFunc: func(ctx context.Context, modelName string) (*models.ModelDescriptor, error) {
			return nil, fmt.Errorf("model %s: %w", modelName, database.ErrNotFound)
		},
	}
	router := newThreadRouter(&mockThreadRepo{}, catalogRepo)

	req := authedRequest(t, "POST", "/threads", CreateThreadRequest{Title: "New chat", ModelName: "made-up"}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateThread_Unauthorized(t *testing.T) {
	t.Parallel()

	router := newThreadRouter(&mockThreadRepo{}, &mockCatalogRepo{})

	req := authedRequest(t, "POST", "/threads", CreateThreadRequest{Title: "New chat"}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetThread_NotOwned(t *testing.T) {
	t.Parallel()

	otherUser := uuid.New()
	threadID := uuid.New()
	threadRepo := &mockThreadRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
			return &models.Thread{ID: id, UserID: otherUser, Title: "Someone else's"}, nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	req := authedRequest(t, "GET", "/threads/"+threadID.String(), nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Non-owned threads are indistinguishable from missing ones
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetThread_Missing(t *testing.T) {
	t.Parallel()

	router := newThreadRouter(&mockThreadRepo{}, &mockCatalogRepo{})

	req := authedRequest(t, "GET", "/threads/"+uuid.NewString(), nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListThreads(t *testing.T) {
	t.Parallel()

	user := testUser()
	threadRepo := &mockThreadRepo{
		listByUserFunc: func(ctx context.Context, userID uuid.UUID) ([]*models.Thread, error) {
			if userID != user.ID {
				t.Errorf("expected list for user %s, got %s", user.ID, userID)
			}
			return []*models.Thread{
				{ID: uuid.New(), UserID: userID, Title: "First"},
				{ID: uuid.New(), UserID: userID, Title: "Second"},
			}, nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	req := authedRequest(t, "GET", "/threads", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var threads []*models.Thread
	if err := json.Unmarshal(env.Data, &threads); err != nil {
		t.Fatalf("failed to parse threads: %v", err)
	}
	if len(threads) != 2 {
		t.Errorf("expected 2 threads, got %d", len(threads))
	}
}

func TestRenameThread_EmptyTitle(t *testing.T) {
	t.Parallel()

	router := newThreadRouter(&mockThreadRepo{}, &mockCatalogRepo{})

	req := authedRequest(t, "PATCH", "/threads/"+uuid.NewString(), RenameThreadRequest{Title: ""}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteThread_ScopedToUser(t *testing.T) {
	t.Parallel()

	user := testUser()
	var deleteUser, deleteThread uuid.UUID
	threadRepo := &mockThreadRepo{
		deleteFunc: func(ctx context.Context, userID, threadID uuid.UUID) error {
			deleteUser, deleteThread = userID, threadID
			return nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	threadID := uuid.New()
	req := authedRequest(t, "DELETE", "/threads/"+threadID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleteUser != user.ID || deleteThread != threadID {
		t.Errorf("expected delete scoped to (%s, %s), got (%s, %s)", user.ID, threadID, deleteUser, deleteThread)
	}
}

func TestSetModelPreference_UnknownModel(t *testing.T) {
	t.Parallel()

	user := testUser()
	threadRepo := &mockThreadRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
			return &models.Thread{ID: id, UserID: user.ID}, nil
		},
	}
	catalogRepo := &mockCatalogRepo{
		getByNameFunc: func(ctx context.Context, modelName string) (*models.ModelDescriptor, error) {
			return nil, fmt.Errorf("model %s: %w", modelName, database.ErrNotFound)
		},
	}
	router := newThreadRouter(threadRepo, catalogRepo)

	req := authedRequest(t, "PUT", "/threads/"+uuid.NewString()+"/model", ModelPreferenceRequest{ModelName: "made-up"}, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSetModelPreference_Success(t *testing.T) {
	t.Parallel()

	user := testUser()
	threadID := uuid.New()
	var setModel string
	threadRepo := &mockThreadRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
			return &models.Thread{ID: id, UserID: user.ID}, nil
		},
		setPreferenceFunc: func(ctx context.Context, tid uuid.UUID, modelName string) error {
			if tid != threadID {
				t.Errorf("expected thread %s, got %s", threadID, tid)
			}
			setModel = modelName
			return nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	req := authedRequest(t, "PUT", "/threads/"+threadID.String()+"/model", ModelPreferenceRequest{ModelName: "gpt-5"}, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if setModel != "gpt-5" {
		t.Errorf("expected preference gpt-5, got %q", setModel)
	}
}

func TestGetModelPreference_DefaultFallback(t *testing.T) {
	t.Parallel()

	user := testUser()
	threadRepo := &mockThreadRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
			return &models.Thread{ID: id, UserID: user.ID}, nil
		},
	}
	router := newThreadRouter(threadRepo, &mockCatalogRepo{})

	req := authedRequest(t, "GET", "/threads/"+uuid.NewString()+"/model", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var pref ModelPreferenceResponse
	if err := json.Unmarshal(env.Data, &pref); err != nil {
		t.Fatalf("failed to parse preference: %v", err)
	}
	if pref.ModelName != database.DefaultModelName {
		t.Errorf("expected default model %q, got %q", database.DefaultModelName, pref.ModelName)
	}
}
