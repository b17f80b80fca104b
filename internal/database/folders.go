package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// FolderRepository handles folder database operations. Folder member
// lists are stored as a text[] of thread ids in insertion order; the
// invariant that a thread belongs to at most one of a user's folders is
// maintained by MoveThread removing before appending.
type FolderRepository struct {
	db *DB
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create creates a folder with an empty member list
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO folders (id, user_id, name, thread_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, folder.ID, folder.UserID, folder.Name, pq.Array(threadIDStrings(folder.ThreadIDs)), now, now).
		Scan(&folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetByIDForUser retrieves a folder owned by the given user
func (r *FolderRepository) GetByIDForUser(ctx context.Context, userID, folderID uuid.UUID) (*models.Folder, error) {
	folder := &models.Folder{}
	var ids pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, thread_ids, created_at, updated_at
		FROM folders
		WHERE id = $1 AND user_id = $2
	`, folderID, userID).Scan(&folder.ID, &folder.UserID, &folder.Name, &ids, &folder.CreatedAt, &folder.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	folder.ThreadIDs, err = parseThreadIDs(ids)
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// ListByUser retrieves the user's folders with their ordered member lists
func (r *FolderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, thread_ids, created_at, updated_at
		FROM folders
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder := &models.Folder{}
		var ids pq.StringArray
		if err := rows.Scan(&folder.ID, &folder.UserID, &folder.Name, &ids, &folder.CreatedAt, &folder.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folder.ThreadIDs, err = parseThreadIDs(ids)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}

	return folders, nil
}

// MoveThread places a thread into the target folder: any current
// membership in the user's folders is removed first, then the id is
// appended to the target if absent. Re-adding an already-present id is a
// no-op. A target the caller does not own is silently ignored.
func (r *FolderRepository) MoveThread(ctx context.Context, userID, threadID, folderID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	id := threadID.String()

	// Verify target ownership before mutating anything
	var targetExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM folders WHERE id = $1 AND user_id = $2)
	`, folderID, userID).Scan(&targetExists)
	if err != nil {
		return fmt.Errorf("failed to check target folder: %w", err)
	}
	if !targetExists {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE folders
		SET thread_ids = array_remove(thread_ids, $1::text), updated_at = $3
		WHERE user_id = $2 AND $1 = ANY(thread_ids)
	`, id, userID, now); err != nil {
		return fmt.Errorf("failed to remove thread from current folder: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE folders
		SET thread_ids = array_append(thread_ids, $1::text), updated_at = $4
		WHERE id = $2 AND user_id = $3 AND NOT ($1 = ANY(thread_ids))
	`, id, folderID, userID, now); err != nil {
		return fmt.Errorf("failed to add thread to folder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread move: %w", err)
	}

	return nil
}

// RemoveThread removes a thread from whichever of the user's folders
// contains it. No-op when the thread is unorganized.
func (r *FolderRepository) RemoveThread(ctx context.Context, userID, threadID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE folders
		SET thread_ids = array_remove(thread_ids, $1::text), updated_at = $3
		WHERE user_id = $2 AND $1 = ANY(thread_ids)
	`, threadID.String(), userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to remove thread from folder: %w", err)
	}
	return nil
}

// Delete removes a folder. Member threads become unorganized; the threads
// themselves are untouched. Deleting a folder the caller does not own is
// a silent no-op.
func (r *FolderRepository) Delete(ctx context.Context, userID, folderID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM folders WHERE id = $1 AND user_id = $2
	`, folderID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

func threadIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseThreadIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse thread id %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
