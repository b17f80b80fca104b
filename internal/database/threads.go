package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
)

// DefaultModelName is returned when a thread has no preference row, which
// can happen for threads created before preferences existed.
const DefaultModelName = "claude-4-sonnet"

// ThreadRepository handles thread and model-preference database operations
type ThreadRepository struct {
	db *DB
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a thread and its model-preference row in one transaction,
// so a thread is never visible without a bound model.
func (r *ThreadRepository) Create(ctx context.Context, thread *models.Thread, modelName string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO threads (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, thread.ID, thread.UserID, thread.Title, now, now).Scan(&thread.CreatedAt, &thread.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO thread_model_preferences (thread_id, model_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, thread.ID, modelName, now, now)
	if err != nil {
		return fmt.Errorf("failed to create model preference: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread creation: %w", err)
	}

	return nil
}

// GetByID retrieves a thread by ID
func (r *ThreadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	thread := &models.Thread{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM threads
		WHERE id = $1
	`, id).Scan(&thread.ID, &thread.UserID, &thread.Title, &thread.CreatedAt, &thread.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	return thread, nil
}

// ListByUser retrieves the user's threads, most recently updated first
func (r *ThreadRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Thread, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM threads
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	var threads []*models.Thread
	for rows.Next() {
		thread := &models.Thread{}
		if err := rows.Scan(&thread.ID, &thread.UserID, &thread.Title, &thread.CreatedAt, &thread.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, thread)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	return threads, nil
}

// Rename updates a thread's title. The user scope makes renames of
// threads the caller does not own a no-op rather than an error.
func (r *ThreadRepository) Rename(ctx context.Context, userID, threadID uuid.UUID, title string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE threads
		SET title = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`, threadID, userID, title, time.Now())
	if err != nil {
		return fmt.Errorf("failed to rename thread: %w", err)
	}
	return nil
}

// Touch bumps a thread's updated_at so it sorts first in ListByUser
func (r *ThreadRepository) Touch(ctx context.Context, threadID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE threads SET updated_at = $2 WHERE id = $1
	`, threadID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to touch thread: %w", err)
	}
	return nil
}

// Delete removes a thread together with its messages, its preference row
// and any folder membership, in one transaction. Deleting a thread the
// caller does not own is a silent no-op so existence is not leaked.
func (r *ThreadRepository) Delete(ctx context.Context, userID, threadID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM threads WHERE id = $1 AND user_id = $2
	`, threadID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Not owned (or already gone): leave everything untouched
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM messages WHERE thread_id = $1
	`, threadID); err != nil {
		return fmt.Errorf("failed to delete thread messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM thread_model_preferences WHERE thread_id = $1
	`, threadID); err != nil {
		return fmt.Errorf("failed to delete model preference: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE folders
		SET thread_ids = array_remove(thread_ids, $1::text), updated_at = $3
		WHERE user_id = $2 AND $1 = ANY(thread_ids)
	`, threadID.String(), userID, time.Now()); err != nil {
		return fmt.Errorf("failed to remove thread from folders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread deletion: %w", err)
	}

	return nil
}

// GetPreference returns the model bound to a thread, or DefaultModelName
// when no preference row exists.
func (r *ThreadRepository) GetPreference(ctx context.Context, threadID uuid.UUID) (string, error) {
	var modelName string
	err := r.db.QueryRowContext(ctx, `
		SELECT model_name FROM thread_model_preferences WHERE thread_id = $1
	`, threadID).Scan(&modelName)

	if err == sql.ErrNoRows {
		return DefaultModelName, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get model preference: %w", err)
	}

	return modelName, nil
}

// SetPreference upserts the model bound to a thread. Upsert (rather than
// strict update) means threads that predate preference rows can still be
// switched to a new model.
func (r *ThreadRepository) SetPreference(ctx context.Context, threadID uuid.UUID, modelName string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO thread_model_preferences (thread_id, model_name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (thread_id)
		DO UPDATE SET model_name = EXCLUDED.model_name, updated_at = EXCLUDED.updated_at
	`, threadID, modelName, now)
	if err != nil {
		return fmt.Errorf("failed to set model preference: %w", err)
	}
	return nil
}
