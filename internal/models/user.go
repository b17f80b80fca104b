package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user. Users are provisioned lazily on
// first request from the identity provider's subject claim.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	ProviderID    *string    `json:"provider_id,omitempty"`
	Name          *string    `json:"name,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
