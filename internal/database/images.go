package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
)

// ImageRepository handles generated-image database operations
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new image repository
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Create inserts a pending image record
func (r *ImageRepository) Create(ctx context.Context, img *models.GeneratedImage) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO generated_images (id, user_id, prompt, status, object_key, image_url, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING created_at, updated_at
	`, img.ID, img.UserID, img.Prompt, img.Status, img.ObjectKey, img.ImageURL, img.IsPublic, now).
		Scan(&img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}
	return nil
}

// GetByID retrieves an image record
func (r *ImageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GeneratedImage, error) {
	img := &models.GeneratedImage{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, prompt, status, object_key, image_url, is_public, created_at, updated_at
		FROM generated_images
		WHERE id = $1
	`, id).Scan(&img.ID, &img.UserID, &img.Prompt, &img.Status, &img.ObjectKey, &img.ImageURL, &img.IsPublic, &img.CreatedAt, &img.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image record: %w", err)
	}

	return img, nil
}

// ListByUser retrieves the caller's image records, newest first
func (r *ImageRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.GeneratedImage, error) {
	return r.list(ctx, `
		SELECT id, user_id, prompt, status, object_key, image_url, is_public, created_at, updated_at
		FROM generated_images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

// ListPublic retrieves completed public images across all users, newest
// first. Pending and failed records never appear here.
func (r *ImageRepository) ListPublic(ctx context.Context) ([]*models.GeneratedImage, error) {
	return r.list(ctx, `
		SELECT id, user_id, prompt, status, object_key, image_url, is_public, created_at, updated_at
		FROM generated_images
		WHERE is_public = TRUE AND status = $1
		ORDER BY created_at DESC
	`, models.ImageStatusCompleted)
}

func (r *ImageRepository) list(ctx context.Context, query string, args ...any) ([]*models.GeneratedImage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query image records: %w", err)
	}
	defer rows.Close()

	var images []*models.GeneratedImage
	for rows.Next() {
		img := &models.GeneratedImage{}
		if err := rows.Scan(&img.ID, &img.UserID, &img.Prompt, &img.Status, &img.ObjectKey, &img.ImageURL, &img.IsPublic, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image record: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image records: %w", err)
	}

	return images, nil
}

// SetVisibility updates is_public. The user scope makes toggling an image
// the caller does not own a silent no-op.
func (r *ImageRepository) SetVisibility(ctx context.Context, userID, imageID uuid.UUID, isPublic bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE generated_images
		SET is_public = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`, imageID, userID, isPublic, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set image visibility: %w", err)
	}
	return nil
}

// MarkCompleted transitions a record to completed with its stored asset
func (r *ImageRepository) MarkCompleted(ctx context.Context, id uuid.UUID, objectKey, imageURL string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE generated_images
		SET status = $2, object_key = $3, image_url = $4, updated_at = $5
		WHERE id = $1
	`, id, models.ImageStatusCompleted, objectKey, imageURL, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark image completed: %w", err)
	}
	return checkAffected(result, id)
}

// MarkFailed transitions a record to failed so it is never stuck pending
func (r *ImageRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE generated_images
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, id, models.ImageStatusFailed, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark image failed: %w", err)
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return nil
}
