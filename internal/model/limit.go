package model

import "time"

// Subscription tiers. Quota and size policy are derived from the tier by the
// tier service's policy table, never stored independently of it.
const (
	TierFree  = "free"
	TierBasic = "basic"
	TierPro   = "pro"
)

// UserLimit is the per-user quota record. Exactly one row exists per user;
// it is created on first quota check and mutated by the billing reconciler
// or the window-reset logic, never deleted.
type UserLimit struct {
	UserID         string    `db:"user_id" json:"user_id"`
	Tier           string    `db:"tier" json:"tier"`
	MonthlyQuota   int       `db:"monthly_quota" json:"monthly_quota"`
	MaxFileSize    int64     `db:"max_file_size" json:"max_file_size"`
	UsageResetDate time.Time `db:"usage_reset_date" json:"usage_reset_date"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TierPolicy is the quota and size policy attached to a tier.
type TierPolicy struct {
	MonthlyQuota int
	MaxFileSize  int64
}
