package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UsageRepository is the append-only ledger of billable requests.
type UsageRepository interface {
	// Append records a usage event. Events are immutable once written.
	Append(ctx context.Context, userID, requestType string, fileSize int64) error
	// CountSince counts events for the user at or after the cutoff timestamp.
	CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error)
}

type usageRepo struct {
	db *sql.DB
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(db *sql.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) Append(ctx context.Context, userID, requestType string, fileSize int64) error {
	const q = `
        INSERT INTO user_usage (user_id, request_type, file_size, created_at)
        VALUES ($1, $2, $3, NOW())
    `
	if _, err := r.db.ExecContext(ctx, q, userID, requestType, fileSize); err != nil {
		return fmt.Errorf("recording usage event for user %s: %w", userID, err)
	}
	return nil
}

func (r *usageRepo) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM user_usage
        WHERE user_id = $1
          AND created_at >= $2
    `
	var count int
	if err := r.db.QueryRowContext(ctx, q, userID, cutoff).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting usage events for user %s: %w", userID, err)
	}
	return count, nil
}
