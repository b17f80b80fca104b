package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageStatus tracks an image-generation job through its lifecycle
type ImageStatus string

const (
	ImageStatusPending   ImageStatus = "pending"
	ImageStatusCompleted ImageStatus = "completed"
	ImageStatusFailed    ImageStatus = "failed"
)

// GeneratedImage tracks a user-submitted image-generation request.
// ObjectKey and ImageURL are populated when the job completes; a failed
// provider call leaves the record in failed rather than pending forever.
type GeneratedImage struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Prompt    string      `json:"prompt"`
	Status    ImageStatus `json:"status"`
	ObjectKey *string     `json:"object_key,omitempty"`
	ImageURL  *string     `json:"image_url,omitempty"`
	IsPublic  bool        `json:"is_public"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
