package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/convoke/convoke-api/internal/models"
)

// ModelCatalogRepository handles the read-mostly model catalog
type ModelCatalogRepository struct {
	db *DB
}

// NewModelCatalogRepository creates a new model catalog repository
func NewModelCatalogRepository(db *DB) *ModelCatalogRepository {
	return &ModelCatalogRepository{db: db}
}

// List returns every catalog entry in display order
func (r *ModelCatalogRepository) List(ctx context.Context) ([]*models.ModelDescriptor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT model_name, model_description, provider, order_number, created_at, updated_at
		FROM available_models
		ORDER BY order_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model catalog: %w", err)
	}
	defer rows.Close()

	var descriptors []*models.ModelDescriptor
	for rows.Next() {
		d := &models.ModelDescriptor{}
		if err := rows.Scan(&d.ModelName, &d.ModelDescription, &d.Provider, &d.OrderNumber, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model descriptor: %w", err)
		}
		descriptors = append(descriptors, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model catalog: %w", err)
	}

	return descriptors, nil
}

// GetByName retrieves one catalog entry
func (r *ModelCatalogRepository) GetByName(ctx context.Context, modelName string) (*models.ModelDescriptor, error) {
	d := &models.ModelDescriptor{}
	err := r.db.QueryRowContext(ctx, `
		SELECT model_name, model_description, provider, order_number, created_at, updated_at
		FROM available_models
		WHERE model_name = $1
	`, modelName).Scan(&d.ModelName, &d.ModelDescription, &d.Provider, &d.OrderNumber, &d.CreatedAt, &d.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("model %q: %w", modelName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model descriptor: %w", err)
	}

	return d, nil
}

// Upsert creates or replaces a catalog entry (configure CLI only)
func (r *ModelCatalogRepository) Upsert(ctx context.Context, d *models.ModelDescriptor) error {
	if !d.Provider.Valid() {
		return fmt.Errorf("unsupported provider %q", d.Provider)
	}

	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO available_models (model_name, model_description, provider, order_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (model_name)
		DO UPDATE SET model_description = EXCLUDED.model_description,
			provider = EXCLUDED.provider,
			order_number = EXCLUDED.order_number,
			updated_at = EXCLUDED.updated_at
	`, d.ModelName, d.ModelDescription, d.Provider, d.OrderNumber, now)
	if err != nil {
		return fmt.Errorf("failed to upsert model descriptor: %w", err)
	}

	return nil
}

// Delete removes a catalog entry (configure CLI only)
func (r *ModelCatalogRepository) Delete(ctx context.Context, modelName string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM available_models WHERE model_name = $1
	`, modelName)
	if err != nil {
		return fmt.Errorf("failed to delete model descriptor: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("model %q: %w", modelName, ErrNotFound)
	}

	return nil
}
