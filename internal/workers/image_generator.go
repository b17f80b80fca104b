package workers

import (
	"context"
	"fmt"
	"log"

	"github.com/convoke/convoke-api/internal/models"
	"github.com/convoke/convoke-api/internal/queue"
	"github.com/convoke/convoke-api/internal/storage"
)

// ProcessImageJob renders the image behind an image generation job, uploads
// the bytes to object storage, and completes the record with its URL.
func (g *Generator) ProcessImageJob(ctx context.Context, job *queue.Job) error {
	if job.ImageID == nil {
		return fmt.Errorf("image_id is required for image generation job")
	}

	img, err := g.imageRepo.GetByID(ctx, *job.ImageID)
	if err != nil {
		return fmt.Errorf("failed to get image: %w", err)
	}

	// Redeliveries of an already finished image are a no-op
	if img.Status != models.ImageStatusPending {
		log.Printf("Image %s already %s, skipping", img.ID, img.Status)
		return nil
	}

	if img.UserID != job.UserID {
		return fmt.Errorf("image does not belong to user")
	}

	provider, err := g.registry.Image()
	if err != nil {
		return fmt.Errorf("failed to get image provider: %w", err)
	}

	data, contentType, err := provider.GenerateImage(ctx, job.ModelName, img.Prompt)
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}

	key := storage.NewImageKey(img.Prompt)
	if err := g.objectStore.PutImage(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	url, err := g.objectStore.ImageURL(ctx, key)
	if err != nil {
		// Remove the orphaned object so a retry starts clean
		if rmErr := g.objectStore.Remove(ctx, key); rmErr != nil {
			log.Printf("Failed to remove orphaned object %s: %v", key, rmErr)
		}
		return fmt.Errorf("failed to resolve image URL: %w", err)
	}

	if err := g.imageRepo.MarkCompleted(ctx, img.ID, key, url); err != nil {
		return fmt.Errorf("failed to complete image: %w", err)
	}

	log.Printf("Generated image %s (model=%s, %d bytes, key=%s)", img.ID, job.ModelName, len(data), key)
	return nil
}
