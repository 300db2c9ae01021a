package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
)

// ErrCustomerNotMapped is returned when a billing customer ID has no known user.
var ErrCustomerNotMapped = errors.New("customer_not_mapped")

// LimitRepository stores per-user quota records and the billing
// customer-to-user mapping.
type LimitRepository interface {
	// GetOrCreateDefault returns the user's limit record, creating the free-tier
	// default atomically if none exists. Two concurrent first requests for the
	// same user must converge on a single row.
	GetOrCreateDefault(ctx context.Context, userID string, defaults model.TierPolicy, resetDate time.Time) (*model.UserLimit, error)
	// ApplyTier upserts the user's tier and its policy, opening a new usage
	// window starting at resetDate.
	ApplyTier(ctx context.Context, userID, tier string, policy model.TierPolicy, resetDate time.Time) error
	// ResetWindow rolls the usage window forward for a user whose reset date
	// has passed. Tier and policy are untouched.
	ResetWindow(ctx context.Context, userID string, resetDate time.Time) error
	// UserIDForCustomer resolves a billing customer ID to a user ID.
	// Returns ErrCustomerNotMapped when no mapping exists.
	UserIDForCustomer(ctx context.Context, customerID string) (string, error)
}

type limitRepo struct {
	db *sql.DB
}

// NewLimitRepo creates a new LimitRepository.
func NewLimitRepo(db *sql.DB) LimitRepository {
	return &limitRepo{db: db}
}

// GetOrCreateDefault inserts the default record with ON CONFLICT DO NOTHING and
// re-reads, so the insert-if-absent is a single atomic store operation rather
// than a read-then-write pair.
func (r *limitRepo) GetOrCreateDefault(ctx context.Context, userID string, defaults model.TierPolicy, resetDate time.Time) (*model.UserLimit, error) {
	const insertQ = `
        INSERT INTO user_limits (user_id, tier, monthly_quota, max_file_size, usage_reset_date, created_at, updated_at)
        VALUES ($1, 'free', $2, $3, $4, NOW(), NOW())
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.db.ExecContext(ctx, insertQ, userID, defaults.MonthlyQuota, defaults.MaxFileSize, resetDate); err != nil {
		return nil, fmt.Errorf("inserting default limits for user %s: %w", userID, err)
	}

	const selectQ = `
        SELECT user_id, tier, monthly_quota, max_file_size, usage_reset_date, created_at, updated_at
        FROM user_limits
        WHERE user_id = $1
    `
	var ul model.UserLimit
	err := r.db.QueryRowContext(ctx, selectQ, userID).Scan(
		&ul.UserID,
		&ul.Tier,
		&ul.MonthlyQuota,
		&ul.MaxFileSize,
		&ul.UsageResetDate,
		&ul.CreatedAt,
		&ul.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch limits for user %s: %w", userID, err)
	}
	return &ul, nil
}

// ApplyTier upserts the tier with its policy and opens a fresh usage window.
func (r *limitRepo) ApplyTier(ctx context.Context, userID, tier string, policy model.TierPolicy, resetDate time.Time) error {
	const q = `
        INSERT INTO user_limits (user_id, tier, monthly_quota, max_file_size, usage_reset_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET tier = EXCLUDED.tier,
            monthly_quota = EXCLUDED.monthly_quota,
            max_file_size = EXCLUDED.max_file_size,
            usage_reset_date = EXCLUDED.usage_reset_date,
            updated_at = NOW();
    `
	if _, err := r.db.ExecContext(ctx, q, userID, tier, policy.MonthlyQuota, policy.MaxFileSize, resetDate); err != nil {
		return fmt.Errorf("apply tier %s for user %s: %w", tier, userID, err)
	}
	return nil
}

// ResetWindow rolls the usage window forward without touching the tier.
func (r *limitRepo) ResetWindow(ctx context.Context, userID string, resetDate time.Time) error {
	const q = `
        UPDATE user_limits
        SET usage_reset_date = $2,
            updated_at = NOW()
        WHERE user_id = $1
    `
	if _, err := r.db.ExecContext(ctx, q, userID, resetDate); err != nil {
		return fmt.Errorf("reset usage window for user %s: %w", userID, err)
	}
	return nil
}

// UserIDForCustomer resolves the Stripe customer ID to our user ID.
func (r *limitRepo) UserIDForCustomer(ctx context.Context, customerID string) (string, error) {
	const q = `SELECT user_id FROM stripe_customers WHERE customer_id = $1`
	var userID string
	err := r.db.QueryRowContext(ctx, q, customerID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCustomerNotMapped
	}
	if err != nil {
		return "", fmt.Errorf("resolve customer %s: %w", customerID, err)
	}
	return userID, nil
}
