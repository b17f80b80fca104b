package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/google/uuid"
)

// Hand-written mocks for the repository interfaces, function-field style
// so each test overrides only what it needs.

type mockThreadRepo struct {
	createFunc        func(ctx context.Context, thread *models.Thread, modelName string) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	listByUserFunc    func(ctx context.Context, userID uuid.UUID) ([]*models.Thread, error)
	renameFunc        func(ctx context.Context, userID, threadID uuid.UUID, title string) error
	deleteFunc        func(ctx context.Context, userID, threadID uuid.UUID) error
	getPreferenceFunc func(ctx context.Context, threadID uuid.UUID) (string, error)
	setPreferenceFunc func(ctx context.Context, threadID uuid.UUID, modelName string) error
}

func (m *mockThreadRepo) Create(ctx context.Context, thread *models.Thread, modelName string) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, thread, modelName)
	}
	return nil
}

func (m *mockThreadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("thread %s: %w", id, database.ErrNotFound)
}

func (m *mockThreadRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Thread, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return []*models.Thread{}, nil
}

func (m *mockThreadRepo) Rename(ctx context.Context, userID, threadID uuid.UUID, title string) error {
	if m.renameFunc != nil {
		return m.renameFunc(ctx, userID, threadID, title)
	}
	return nil
}

func (m *mockThreadRepo) Touch(ctx context.Context, threadID uuid.UUID) error { return nil }

func (m *mockThreadRepo) Delete(ctx context.Context, userID, threadID uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, threadID)
	}
	return nil
}

func (m *mockThreadRepo) GetPreference(ctx context.Context, threadID uuid.UUID) (string, error) {
	if m.getPreferenceFunc != nil {
		return m.getPreferenceFunc(ctx, threadID)
	}
	return database.DefaultModelName, nil
}

func (m *mockThreadRepo) SetPreference(ctx context.Context, threadID uuid.UUID, modelName string) error {
	if m.setPreferenceFunc != nil {
		return m.setPreferenceFunc(ctx, threadID, modelName)
	}
	return nil
}

var _ database.ThreadRepositoryInterface = (*mockThreadRepo)(nil)

type mockMessageRepo struct {
	createExchangeFunc func(ctx context.Context, prompt, placeholder *models.Message) error
	listByThreadFunc   func(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*models.Message, int, error)
	updateStreamFunc   func(ctx context.Context, id uuid.UUID, content string, status models.MessageStatus) error
}

func (m *mockMessageRepo) CreateExchange(ctx context.Context, prompt, placeholder *models.Message) error {
	if m.createExchangeFunc != nil {
		return m.createExchangeFunc(ctx, prompt, placeholder)
	}
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return nil, fmt.Errorf("message %s: %w", id, database.ErrNotFound)
}

func (m *mockMessageRepo) ListByThread(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*models.Message, int, error) {
	if m.listByThreadFunc != nil {
		return m.listByThreadFunc(ctx, threadID, limit, offset)
	}
	return []*models.Message{}, 0, nil
}

func (m *mockMessageRepo) History(ctx context.Context, threadID uuid.UUID) ([]*models.Message, error) {
	return []*models.Message{}, nil
}

func (m *mockMessageRepo) UpdateStream(ctx context.Context, id uuid.UUID, content string, status models.MessageStatus) error {
	if m.updateStreamFunc != nil {
		return m.updateStreamFunc(ctx, id, content, status)
	}
	return nil
}

var _ database.MessageRepositoryInterface = (*mockMessageRepo)(nil)

type mockQuotaRepo struct {
	tryChargeFunc func(ctx context.Context, userID uuid.UUID, day string, limit int) (int, bool, error)
	getCountFunc  func(ctx context.Context, userID uuid.UUID, day string) (int, error)
}

func (m *mockQuotaRepo) TryCharge(ctx context.Context, userID uuid.UUID, day string, limit int) (int, bool, error) {
	if m.tryChargeFunc != nil {
		return m.tryChargeFunc(ctx, userID, day, limit)
	}
	return 1, true, nil
}

func (m *mockQuotaRepo) GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	if m.getCountFunc != nil {
		return m.getCountFunc(ctx, userID, day)
	}
	return 0, nil
}

var _ database.QuotaRepositoryInterface = (*mockQuotaRepo)(nil)

type mockCatalogRepo struct {
	listFunc      func(ctx context.Context) ([]*models.ModelDescriptor, error)
	getByNameFunc func(ctx context.Context, modelName string) (*models.ModelDescriptor, error)
}

func (m *mockCatalogRepo) List(ctx context.Context) ([]*models.ModelDescriptor, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return []*models.ModelDescriptor{}, nil
}

func (m *mockCatalogRepo) GetByName(ctx context.Context, modelName string) (*models.ModelDescriptor, error) {
	if m.getByNameFunc != nil {
		return m.getByNameFunc(ctx, modelName)
	}
	return &models.ModelDescriptor{ModelName: modelName, Provider: models.ModelProviderOpenAI}, nil
}

var _ database.ModelCatalogRepositoryInterface = (*mockCatalogRepo)(nil)

type mockFolderRepo struct {
	createFunc         func(ctx context.Context, folder *models.Folder) error
	getByIDForUserFunc func(ctx context.Context, userID, folderID uuid.UUID) (*models.Folder, error)
	listByUserFunc     func(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error)
	moveThreadFunc     func(ctx context.Context, userID, threadID, folderID uuid.UUID) error
	removeThreadFunc   func(ctx context.Context, userID, threadID uuid.UUID) error
	deleteFunc         func(ctx context.Context, userID, folderID uuid.UUID) error
}

func (m *mockFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, folder)
	}
	return nil
}

func (m *mockFolderRepo) GetByIDForUser(ctx context.Context, userID, folderID uuid.UUID) (*models.Folder, error) {
	if m.getByIDForUserFunc != nil {
		return m.getByIDForUserFunc(ctx, userID, folderID)
	}
	return nil, fmt.Errorf("folder %s: %w", folderID, database.ErrNotFound)
}

func (m *mockFolderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return []*models.Folder{}, nil
}

func (m *mockFolderRepo) MoveThread(ctx context.Context, userID, threadID, folderID uuid.UUID) error {
	if m.moveThreadFunc != nil {
		return m.moveThreadFunc(ctx, userID, threadID, folderID)
	}
	return nil
}

func (m *mockFolderRepo) RemoveThread(ctx context.Context, userID, threadID uuid.UUID) error {
	if m.removeThreadFunc != nil {
		return m.removeThreadFunc(ctx, userID, threadID)
	}
	return nil
}

func (m *mockFolderRepo) Delete(ctx context.Context, userID, folderID uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, folderID)
	}
	return nil
}

var _ database.FolderRepositoryInterface = (*mockFolderRepo)(nil)

type mockImageRepo struct {
	createFunc        func(ctx context.Context, img *models.GeneratedImage) error
	listByUserFunc    func(ctx context.Context, userID uuid.UUID) ([]*models.GeneratedImage, error)
	listPublicFunc    func(ctx context.Context) ([]*models.GeneratedImage, error)
	setVisibilityFunc func(ctx context.Context, userID, imageID uuid.UUID, isPublic bool) error
	markedFailed      []uuid.UUID
}

func (m *mockImageRepo) Create(ctx context.Context, img *models.GeneratedImage) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, img)
	}
	return nil
}

func (m *mockImageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error) {
	return nil, fmt.Errorf("image %s: %w", id, database.ErrNotFound)
}

func (m *mockImageRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.GeneratedImage, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID)
	}
	return []*models.GeneratedImage{}, nil
}

func (m *mockImageRepo) ListPublic(ctx context.Context) ([]*models.GeneratedImage, error) {
	if m.listPublicFunc != nil {
		return m.listPublicFunc(ctx)
	}
	return []*models.GeneratedImage{}, nil
}

func (m *mockImageRepo) SetVisibility(ctx context.Context, userID, imageID uuid.UUID, isPublic bool) error {
	if m.setVisibilityFunc != nil {
		return m.setVisibilityFunc(ctx, userID, imageID, isPublic)
	}
	return nil
}

func (m *mockImageRepo) MarkCompleted(ctx context.Context, id uuid.UUID, objectKey, imageURL string) error {
	return nil
}

func (m *mockImageRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	m.markedFailed = append(m.markedFailed, id)
	return nil
}

var _ database.ImageRepositoryInterface = (*mockImageRepo)(nil)

type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

var _ queue.JobQueue = (*mockJobQueue)(nil)
