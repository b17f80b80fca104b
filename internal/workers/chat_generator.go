package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/convoke/convoke-api/internal/services/ai"
)

// streamFlushInterval bounds how often partial output is written back to
// the database while a completion streams
const streamFlushInterval = 500 * time.Millisecond

// ProcessChatJob generates the assistant reply for a chat generation job.
// The reply record was created in pending state when the user message was
// accepted; this moves it through streaming to complete or failed.
func (g *Generator) ProcessChatJob(ctx context.Context, job *queue.Job) error {
	if job.ThreadID == nil || job.MessageID == nil {
		return fmt.Errorf("thread_id and message_id are required for chat generation job")
	}

	message, err := g.messageRepo.GetByID(ctx, *job.MessageID)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}

	// Redeliveries of an already finished message are a no-op
	if message.Status.IsTerminal() {
		log.Printf("Message %s already %s, skipping", message.ID, message.Status)
		return nil
	}

	thread, err := g.threadRepo.GetByID(ctx, *job.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to get thread: %w", err)
	}
	if thread.UserID != job.UserID {
		return fmt.Errorf("thread does not belong to user")
	}

	modelName := job.ModelName
	if modelName == "" {
		modelName, err = g.threadRepo.GetPreference(ctx, thread.ID)
		if err != nil {
			return fmt.Errorf("failed to get model preference: %w", err)
		}
	}

	descriptor, err := g.catalogRepo.GetByName(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to resolve model %q: %w", modelName, err)
	}

	provider, err := g.registry.Chat(descriptor.Provider)
	if err != nil {
		return fmt.Errorf("failed to get chat provider: %w", err)
	}

	// Completed messages only, so the pending reply itself is excluded
	history, err := g.messageRepo.History(ctx, thread.ID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	turns := make([]ai.ChatMessage, 0, len(history))
	for _, m := range history {
		turns = append(turns, ai.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	if err := g.messageRepo.UpdateStream(ctx, message.ID, "", models.MessageStatusStreaming); err != nil {
		return fmt.Errorf("failed to mark message streaming: %w", err)
	}

	var buf strings.Builder
	lastFlush := time.Now()
	onDelta := func(delta string) error {
		buf.WriteString(delta)
		if time.Since(lastFlush) >= streamFlushInterval {
			if err := g.messageRepo.UpdateStream(ctx, message.ID, buf.String(), models.MessageStatusStreaming); err != nil {
				return err
			}
			lastFlush = time.Now()
		}
		return nil
	}

	full, err := provider.StreamChat(ctx, modelName, turns, onDelta)
	if err != nil {
		// Keep the partial content but return to pending so a retry can restart
		if resetErr := g.messageRepo.UpdateStream(ctx, message.ID, buf.String(), models.MessageStatusPending); resetErr != nil {
			log.Printf("Failed to reset message %s to pending after error: %v", message.ID, resetErr)
		}
		return fmt.Errorf("chat generation failed: %w", err)
	}

	if err := g.messageRepo.UpdateStream(ctx, message.ID, full, models.MessageStatusComplete); err != nil {
		return fmt.Errorf("failed to complete message: %w", err)
	}

	if err := g.threadRepo.Touch(ctx, thread.ID); err != nil {
		log.Printf("Failed to touch thread %s: %v", thread.ID, err)
	}

	log.Printf("Generated reply for message %s (model=%s, %d chars)", message.ID, modelName, len(full))
	return nil
}
