package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/convoke/convoke-api/internal/database"
	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/convoke/convoke-api/internal/services/ai"
	"github.com/convoke/convoke-api/internal/storage"
)

// Generator processes chat and image generation jobs
type Generator struct {
	registry    *ai.Registry
	threadRepo  database.ThreadRepositoryInterface
	messageRepo database.MessageRepositoryInterface
	catalogRepo database.ModelCatalogRepositoryInterface
	imageRepo   database.ImageRepositoryInterface
	objectStore storage.ObjectStore
	jobQueue    queue.JobQueue // For re-enqueueing jobs with delays
}

// NewGenerator creates a new generation worker
func NewGenerator(
	registry *ai.Registry,
	threadRepo database.ThreadRepositoryInterface,
	messageRepo database.MessageRepositoryInterface,
	catalogRepo database.ModelCatalogRepositoryInterface,
	imageRepo database.ImageRepositoryInterface,
	objectStore storage.ObjectStore,
	jobQueue queue.JobQueue,
) *Generator {
	return &Generator{
		registry:    registry,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		catalogRepo: catalogRepo,
		imageRepo:   imageRepo,
		objectStore: objectStore,
		jobQueue:    jobQueue,
	}
}

// ProcessJob processes a job based on its type
func (g *Generator) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeChatGeneration:
		if err := g.ProcessChatJob(ctx, job); err != nil {
			return g.handleJobError(ctx, msg, job, err, "chat generation")
		}
	case queue.JobTypeImageGeneration:
		if err := g.ProcessImageJob(ctx, job); err != nil {
			return g.handleJobError(ctx, msg, job, err, "image generation")
		}
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError handles errors from job processing with retry logic
func (g *Generator) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobType string) error {
	// Quota errors get a long delay before the next attempt
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayed := *job
		delayed.NotBefore = &notBefore
		delayed.RetryCount = job.RetryCount + 1

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if g.jobQueue != nil {
			if enqueueErr := g.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				g.markJobFailed(ctx, job)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Re-enqueued %s job %s for retry at %v (quota exhausted)", jobType, job.ID, notBefore)
			return nil
		}

		g.markJobFailed(ctx, job)
		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Rate limit errors retry with backoff via the delayed exchange
	if ai.IsRateLimitError(err) && job.CanRetry() {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayed := *job
		delayed.NotBefore = &notBefore
		delayed.RetryCount = job.RetryCount + 1

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack rate limited job: %v", ackErr)
		}

		if g.jobQueue != nil {
			if enqueueErr := g.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v", jobType, job.ID, notBefore)
			return nil
		}
	}

	// Standard retry for other errors. A Nack-requeue would redeliver the
	// original body with the original RetryCount, so the attempt count
	// must travel through a fresh enqueue.
	if job.CanRetry() {
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		retry := *job
		retry.NotBefore = &notBefore
		retry.IncrementRetry()

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before retry re-enqueue: %v", ackErr)
		}

		if g.jobQueue != nil {
			if enqueueErr := g.jobQueue.Enqueue(ctx, &retry); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s for retry: %v", job.ID, enqueueErr)
				g.markJobFailed(ctx, job)
				return fmt.Errorf("job failed, could not re-enqueue retry: %w", enqueueErr)
			}
			log.Printf("%s job %s failed (attempt %d/%d): %v, re-enqueued for retry at %v", jobType, job.ID, retry.RetryCount, job.MaxRetries, err, notBefore)
			return nil
		}

		g.markJobFailed(ctx, job)
		return fmt.Errorf("job failed, no queue to retry on: %w", err)
	}

	// Max retries exceeded, mark the record failed and send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	g.markJobFailed(ctx, job)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// markJobFailed moves the record behind a job into its failed state so
// clients stop waiting on it. Best effort, errors are only logged.
func (g *Generator) markJobFailed(ctx context.Context, job *queue.Job) {
	switch job.Type {
	case queue.JobTypeChatGeneration:
		if job.MessageID == nil {
			return
		}
		message, err := g.messageRepo.GetByID(ctx, *job.MessageID)
		if err != nil {
			log.Printf("Failed to load message %s for failure marking: %v", *job.MessageID, err)
			return
		}
		if message.Status.IsTerminal() {
			return
		}
		if err := g.messageRepo.UpdateStream(ctx, message.ID, message.Content, models.MessageStatusFailed); err != nil {
			log.Printf("Failed to mark message %s as failed: %v", message.ID, err)
		}
	case queue.JobTypeImageGeneration:
		if job.ImageID == nil {
			return
		}
		if err := g.imageRepo.MarkFailed(ctx, *job.ImageID); err != nil {
			log.Printf("Failed to mark image %s as failed: %v", *job.ImageID, err)
		}
	}
}
