package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuotaRepository maintains the per-user, per-day message quota ledger.
// The charge is a single conditional upsert so concurrent sends from the
// same user can never push the count past the limit, and a rejected send
// never consumes ledger state (check-then-increment).
type QuotaRepository struct {
	db *DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

// TryCharge atomically increments the (user, day) counter if and only if
// the current count is below limit. It returns the count after the
// charge and whether the charge was applied. When charged is false the
// ledger is unchanged and the returned count equals the limit.
func (r *QuotaRepository) TryCharge(ctx context.Context, userID uuid.UUID, day string, limit int) (int, bool, error) {
	if limit <= 0 {
		return 0, false, nil
	}

	now := time.Now()
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_message_counts (user_id, day, count, created_at, updated_at)
		VALUES ($1, $2, 1, $4, $4)
		ON CONFLICT (user_id, day)
		DO UPDATE SET count = daily_message_counts.count + 1, updated_at = $4
		WHERE daily_message_counts.count < $3
		RETURNING count
	`, userID, day, limit, now).Scan(&count)

	if err == sql.ErrNoRows {
		// Conditional update did not fire: the day bucket is full
		current, getErr := r.GetCount(ctx, userID, day)
		if getErr != nil {
			return 0, false, getErr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to charge quota: %w", err)
	}

	return count, true, nil
}

// GetCount returns the number of messages the user has sent on the given
// day, zero when no bucket exists yet.
func (r *QuotaRepository) GetCount(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT count FROM daily_message_counts WHERE user_id = $1 AND day = $2
	`, userID, day).Scan(&count)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get quota count: %w", err)
	}

	return count, nil
}
