package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func newFolderRouter(folderRepo database.FolderRepositoryInterface) *mux.Router {
	r := mux.NewRouter()
	h := NewFolderHandler(folderRepo)
	h.RegisterRoutes(r.PathPrefix("/folders").Subrouter())
	return r
}

func TestCreateFolder(t *testing.T) {
	t.Parallel()

	user := testUser()
	var created *models.Folder
	folderRepo := &mockFolderRepo{
		createFunc: func(ctx context.Context, folder *models.Folder) error {
			created = folder
			return nil
		},
	}
	router := newFolderRouter(folderRepo)

	req := authedRequest(t, "POST", "/folders", CreateFolderRequest{Name: "Work"}, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if created == nil || created.Name != "Work" || created.UserID != user.ID {
		t.Errorf("unexpected created folder: %+v", created)
	}
	if created.ThreadIDs == nil || len(created.ThreadIDs) != 0 {
		t.Errorf("expected new folder to start empty, got %v", created.ThreadIDs)
	}
}

func TestCreateFolder_EmptyName(t *testing.T) {
	t.Parallel()

	router := newFolderRouter(&mockFolderRepo{})

	req := authedRequest(t, "POST", "/folders", CreateFolderRequest{Name: "   "}, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListFolders(t *testing.T) {
	t.Parallel()

	user := testUser()
	folderRepo := &mockFolderRepo{
		listByUserFunc: func(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
			return []*models.Folder{
				{ID: uuid.New(), UserID: userID, Name: "Work", ThreadIDs: []uuid.UUID{uuid.New()}},
			}, nil
		},
	}
	router := newFolderRouter(folderRepo)

	req := authedRequest(t, "GET", "/folders", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var folders []*models.Folder
	if err := json.Unmarshal(env.Data, &folders); err != nil {
		t.Fatalf("failed to parse folders: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "Work" {
		t.Errorf("unexpected folders: %+v", folders)
	}
}

func TestGetFolder_NotFound(t *testing.T) {
	t.Parallel()

	router := newFolderRouter(&mockFolderRepo{})

	req := authedRequest(t, "GET", "/folders/"+uuid.NewString(), nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMoveThread(t *testing.T) {
	t.Parallel()

	user := testUser()
	folderID := uuid.New()
	threadID := uuid.New()

	var gotUser, gotThread, gotFolder uuid.UUID
	folderRepo := &mockFolderRepo{
		moveThreadFunc: func(ctx context.Context, userID, tid, fid uuid.UUID) error {
			gotUser, gotThread, gotFolder = userID, tid, fid
			return nil
		},
	}
	router := newFolderRouter(folderRepo)

	req := authedRequest(t, "PUT", "/folders/"+folderID.String()+"/threads/"+threadID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUser != user.ID || gotThread != threadID || gotFolder != folderID {
		t.Errorf("unexpected move args: user=%s thread=%s folder=%s", gotUser, gotThread, gotFolder)
	}
}

func TestRemoveThread(t *testing.T) {
	t.Parallel()

	user := testUser()
	threadID := uuid.New()

	var gotThread uuid.UUID
	folderRepo := &mockFolderRepo{
		removeThreadFunc: func(ctx context.Context, userID, tid uuid.UUID) error {
			gotThread = tid
			return nil
		},
	}
	router := newFolderRouter(folderRepo)

	req := authedRequest(t, "DELETE", "/folders/threads/"+threadID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotThread != threadID {
		t.Errorf("expected remove of thread %s, got %s", threadID, gotThread)
	}
}

func TestDeleteFolder(t *testing.T) {
	t.Parallel()

	user := testUser()
	folderID := uuid.New()

	var gotUser, gotFolder uuid.UUID
	folderRepo := &mockFolderRepo{
		deleteFunc: func(ctx context.Context, userID, fid uuid.UUID) error {
			gotUser, gotFolder = userID, fid
			return nil
		},
	}
	router := newFolderRouter(folderRepo)

	req := authedRequest(t, "DELETE", "/folders/"+folderID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != user.ID || gotFolder != folderID {
		t.Errorf("expected delete scoped to (%s, %s), got (%s, %s)", user.ID, folderID, gotUser, gotFolder)
	}
}
