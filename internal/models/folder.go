package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a user-defined grouping of threads. A thread belongs to at
// most one folder per user; membership order is insertion order.
type Folder struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Name      string      `json:"name"`
	ThreadIDs []uuid.UUID `json:"thread_ids"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
