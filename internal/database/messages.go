package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/google/uuid"
)

// MessageRepository handles message database operations
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateExchange persists the user's prompt and the assistant placeholder
// in one transaction. The prompt must be durable before any streaming
// output starts appending to the placeholder, so readers of the thread
// always see the prompt first.
func (r *MessageRepository) CreateExchange(ctx context.Context, prompt, placeholder *models.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, msg := range []*models.Message{prompt, placeholder} {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO messages (id, thread_id, role, content, status, model_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`, msg.ID, msg.ThreadID, msg.Role, msg.Content, msg.Status, msg.ModelName, now, now).
			Scan(&msg.CreatedAt, &msg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create %s message: %w", msg.Role, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message exchange: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, thread_id, role, content, status, model_name, created_at, updated_at
		FROM messages
		WHERE id = $1
	`, id).Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.Status, &msg.ModelName, &msg.CreatedAt, &msg.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return msg, nil
}

// ListByThread retrieves a thread's messages in chronological order with
// limit/offset pagination
func (r *MessageRepository) ListByThread(ctx context.Context, threadID uuid.UUID, limit, offset int) ([]*models.Message, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages WHERE thread_id = $1
	`, threadID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, role, content, status, model_name, created_at, updated_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, threadID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.Status, &msg.ModelName, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, total, nil
}

// History returns every complete message of a thread in order, for use as
// provider context when generating a continuation.
func (r *MessageRepository) History(ctx context.Context, threadID uuid.UUID) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, role, content, status, model_name, created_at, updated_at
		FROM messages
		WHERE thread_id = $1 AND status = $2
		ORDER BY created_at ASC, id ASC
	`, threadID, models.MessageStatusComplete)
	if err != nil {
		return nil, fmt.Errorf("failed to query message history: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.Status, &msg.ModelName, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message history: %w", err)
	}

	return messages, nil
}

// UpdateStream replaces a message's content and status. Used by the
// generation worker to flush streamed deltas and to settle the final
// complete or failed state.
func (r *MessageRepository) UpdateStream(ctx context.Context, id uuid.UUID, content string, status models.MessageStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET content = $2, status = $3, updated_at = $4
		WHERE id = $1
	`, id, content, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update message stream: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}

	return nil
}
