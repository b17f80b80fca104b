package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of background job
type JobType string

const (
	// JobTypeChatGeneration generates an assistant reply for a thread
	JobTypeChatGeneration JobType = "chat_generation"
	// JobTypeImageGeneration renders an image for a submitted prompt
	JobTypeImageGeneration JobType = "image_generation"
)

// Job represents a background generation job
type Job struct {
	ID         uuid.UUID              `json:"id"`
	Type       JobType                `json:"type"`
	UserID     uuid.UUID              `json:"user_id"`
	ThreadID   *uuid.UUID             `json:"thread_id,omitempty"`
	MessageID  *uuid.UUID             `json:"message_id,omitempty"`
	ImageID    *uuid.UUID             `json:"image_id,omitempty"`
	ModelName  string                 `json:"model_name,omitempty"`
	NotBefore  *time.Time             `json:"not_before,omitempty"`
	NotAfter   *time.Time             `json:"not_after,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`
	MaxRetries int                    `json:"max_retries"`
}

// NewChatJob creates a job that generates the assistant reply stored at
// messageID for the given thread.
func NewChatJob(userID, threadID, messageID uuid.UUID, modelName string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeChatGeneration,
		UserID:     userID,
		ThreadID:   &threadID,
		MessageID:  &messageID,
		ModelName:  modelName,
		Metadata:   make(map[string]interface{}),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewImageJob creates a job that renders the image record identified by imageID.
func NewImageJob(userID, imageID uuid.UUID, modelName string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeImageGeneration,
		UserID:     userID,
		ImageID:    &imageID,
		ModelName:  modelName,
		Metadata:   make(map[string]interface{}),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}

	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
