package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread represents a single conversation between a user and an AI model.
// Messages belonging to the thread are stored separately (see Message).
type Thread struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
