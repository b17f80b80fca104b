package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func newImageRouter(imageRepo database.ImageRepositoryInterface, jobQueue queue.JobQueue) *mux.Router {
	r := mux.NewRouter()
	h := NewImageHandler(imageRepo, jobQueue, "gpt-image-1")
	h.RegisterRoutes(r.PathPrefix("/images").Subrouter())
	h.RegisterPublicRoutes(r.PathPrefix("/gallery").Subrouter())
	return r
}

func TestSubmitImage(t *testing.T) {
	t.Parallel()

	user := testUser()
	var created *models.GeneratedImage
	imageRepo := &mockImageRepo{
		createFunc: func(ctx context.Context, img *models.GeneratedImage) error {
			created = img
			return nil
		},
	}
	jobQueue := &mockJobQueue{}
	router := newImageRouter(imageRepo, jobQueue)

	req := authedRequest(t, "POST", "/images", SubmitImageRequest{Prompt: "a lighthouse at dusk"}, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if created == nil || created.Status != models.ImageStatusPending {
		t.Fatalf("expected pending image record, got %+v", created)
	}
	if created.IsPublic {
		t.Error("expected new image to be private")
	}

	if len(jobQueue.enqueued) != 1 {
		t.Fatalf("expected one enqueued job, got %d", len(jobQueue.enqueued))
	}
	job := jobQueue.enqueued[0]
	if job.Type != queue.JobTypeImageGeneration {
		t.Errorf("expected image generation job, got %s", job.Type)
	}
	if job.ImageID == nil || *job.ImageID != created.ID {
		t.Errorf("expected job bound to image %s, got %v", created.ID, job.ImageID)
	}
	if job.ModelName != "gpt-image-1" {
		t.Errorf("expected image model gpt-image-1, got %q", job.ModelName)
	}
}

func TestSubmitImage_EnqueueFailureMarksFailed(t *testing.T) {
	t.Parallel()

	imageRepo := &mockImageRepo{}
	jobQueue := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			return errors.New("broker unavailable")
		},
	}
	router := newImageRouter(imageRepo, jobQueue)

	req := authedRequest(t, "POST", "/images", SubmitImageRequest{Prompt: "a lighthouse"}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if len(imageRepo.markedFailed) != 1 {
		t.Errorf("expected image marked failed, got %v", imageRepo.markedFailed)
	}
}

func TestSubmitImage_EmptyPrompt(t *testing.T) {
	t.Parallel()

	router := newImageRouter(&mockImageRepo{}, &mockJobQueue{})

	req := authedRequest(t, "POST", "/images", SubmitImageRequest{Prompt: ""}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListImages(t *testing.T) {
	t.Parallel()

	user := testUser()
	imageRepo := &mockImageRepo{
		listByUserFunc: func(ctx context.Context, userID uuid.UUID) ([]*models.GeneratedImage, error) {
			return []*models.GeneratedImage{
				{ID: uuid.New(), UserID: userID, Status: models.ImageStatusPending},
				{ID: uuid.New(), UserID: userID, Status: models.ImageStatusCompleted},
			}, nil
		},
	}
	router := newImageRouter(imageRepo, &mockJobQueue{})

	req := authedRequest(t, "GET", "/images", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var images []*models.GeneratedImage
	if err := json.Unmarshal(env.Data, &images); err != nil {
		t.Fatalf("failed to parse images: %v", err)
	}
	// Own listing includes every status
	if len(images) != 2 {
		t.Errorf("expected 2 images, got %d", len(images))
	}
}

func TestListPublicImages_NoAuthRequired(t *testing.T) {
	t.Parallel()

	url := "https://cdn.example.com/shared.png"
	imageRepo := &mockImageRepo{
		listPublicFunc: func(ctx context.Context) ([]*models.GeneratedImage, error) {
			return []*models.GeneratedImage{
				{ID: uuid.New(), Status: models.ImageStatusCompleted, IsPublic: true, ImageURL: &url},
			}, nil
		},
	}
	router := newImageRouter(imageRepo, &mockJobQueue{})

	// No user in context
	req := authedRequest(t, "GET", "/gallery", nil, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSetVisibility(t *testing.T) {
	t.Parallel()

	user := testUser()
	imageID := uuid.New()

	var gotUser, gotImage uuid.UUID
	var gotPublic bool
	imageRepo := &mockImageRepo{
		setVisibilityFunc: func(ctx context.Context, userID, id uuid.UUID, isPublic bool) error {
			gotUser, gotImage, gotPublic = userID, id, isPublic
			return nil
		},
	}
	router := newImageRouter(imageRepo, &mockJobQueue{})

	public := true
	req := authedRequest(t, "PATCH", "/images/"+imageID.String()+"/visibility", VisibilityRequest{IsPublic: &public}, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != user.ID || gotImage != imageID || !gotPublic {
		t.Errorf("unexpected visibility args: user=%s image=%s public=%v", gotUser, gotImage, gotPublic)
	}
}

func TestSetVisibility_MissingFlag(t *testing.T) {
	t.Parallel()

	router := newImageRouter(&mockImageRepo{}, &mockJobQueue{})

	req := authedRequest(t, "PATCH", "/images/"+uuid.NewString()+"/visibility", map[string]any{}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListModels(t *testing.T) {
	t.Parallel()

	catalogRepo := &mockCatalogRepo{
		listFunc: func(ctx context.Context) ([]*models.ModelDescriptor, error) {
			return []*models.ModelDescriptor{
				{ModelName: "claude-4-sonnet", Provider: models.ModelProviderAnthropic, OrderNumber: 1},
				{ModelName: "gpt-5", Provider: models.ModelProviderOpenAI, OrderNumber: 2},
			}, nil
		},
	}
	r := mux.NewRouter()
	NewModelCatalogHandler(catalogRepo).RegisterRoutes(r.PathPrefix("/models").Subrouter())

	req := authedRequest(t, "GET", "/models", nil, testUser())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var descriptors []*models.ModelDescriptor
	if err := json.Unmarshal(env.Data, &descriptors); err != nil {
		t.Fatalf("failed to parse models: %v", err)
	}
	if len(descriptors) != 2 || descriptors[0].ModelName != "claude-4-sonnet" {
		t.Errorf("unexpected catalog: %+v", descriptors)
	}
}
