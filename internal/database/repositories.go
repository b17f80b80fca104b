package database

import (
	"context"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
)

// The repository interfaces below exist so handlers and workers can be
// tested against mock implementations.

// ThreadRepositoryInterface defines thread and model-preference operations
type ThreadRepositoryInterface interface {
	Create(ctx context.Context, thread *models.Thread, modelName string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Thread, error)
	Rename(ctx context.Context, userID, threadID uuid.UUID, title string) error
	Touch(ctx context.Context, threadID uuid.UUID) error
	Delete(ctx context.Context, userID, threadID uuid.UUID) error
	GetPreference(ctx context.Context, threadID uuid.UUID) (string, error)
	SetPreference(ctx context.Context, threadID uuid.UUID, modelName string) error
}

// MessageRepositoryInterface defines message persistence operations
type MessageRepositoryInterface interface {
	CreateExchange(ctx context.Context, prompt, placeholder *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListByThread(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*models.Message, int, error)
	History(ctx context.Context, threadID uuid.UUID) ([]*models.Message, error)
	UpdateStream(ctx context.Context, id uuid.UUID, content string, status models.MessageStatus) error
}

// FolderRepositoryInterface defines folder operations
type FolderRepositoryInterface interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByIDForUser(ctx context.Context, userID, folderID uuid.UUID) (*models.Folder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error)
	MoveThread(ctx context.Context, userID, threadID, folderID uuid.UUID) error
	RemoveThread(ctx context.Context, userID, threadID uuid.UUID) error
	Delete(ctx context.Context, userID, folderID uuid.UUID) error
}

// QuotaRepositoryInterface defines quota ledger operations
type QuotaRepositoryInterface interface {
	TryCharge(ctx context.Context, userID uuid.UUID, day string, limit int) (int, bool, error)
	GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error)
}

// ModelCatalogRepositoryInterface defines model catalog operations
type ModelCatalogRepositoryInterface interface {
	List(ctx context.Context) ([]*models.ModelDescriptor, error)
	GetByName(ctx context.Context, modelName string) (*models.ModelDescriptor, error)
}

// ImageRepositoryInterface defines generated-image operations
type ImageRepositoryInterface interface {
	Create(ctx context.Context, img *models.GeneratedImage) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.GeneratedImage, error)
	ListPublic(ctx context.Context) ([]*models.GeneratedImage, error)
	SetVisibility(ctx context.Context, userID, imageID uuid.UUID, isPublic bool) error
	MarkCompleted(ctx context.Context, id uuid.UUID, objectKey, imageURL string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// Ensure concrete types implement the interfaces
var (
	_ ThreadRepositoryInterface       = (*ThreadRepository)(nil)
	_ MessageRepositoryInterface      = (*MessageRepository)(nil)
	_ FolderRepositoryInterface       = (*FolderRepository)(nil)
	_ QuotaRepositoryInterface        = (*QuotaRepository)(nil)
	_ ModelCatalogRepositoryInterface = (*ModelCatalogRepository)(nil)
	_ ImageRepositoryInterface        = (*ImageRepository)(nil)
)
