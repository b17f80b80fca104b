package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a message
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageStatus tracks the lifecycle of a message
// User messages are created complete. Assistant messages start pending,
// move to streaming while the provider produces output, and end complete
// or failed.
type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "pending"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusComplete  MessageStatus = "complete"
	MessageStatusFailed    MessageStatus = "failed"
)

// Message represents a single message within a thread
type Message struct {
	ID        uuid.UUID     `json:"id"`
	ThreadID  uuid.UUID     `json:"thread_id"`
	Role      MessageRole   `json:"role"`
	Content   string        `json:"content"`
	Status    MessageStatus `json:"status"`
	ModelName string        `json:"model_name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the message will receive no further updates
func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusComplete || s == MessageStatusFailed
}
