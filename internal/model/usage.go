package model

import "time"

// UsageEvent is an append-only record of a billable request. Rows are never
// updated or deleted; usage for a billing window is the count of rows since
// the window's reset date.
type UsageEvent struct {
	ID          int64     `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	RequestType string    `db:"request_type" json:"request_type"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserUsage summarizes a user's consumption within the current window.
type UserUsage struct {
	Tier         string    `json:"tier"`
	CurrentUsage int       `json:"usage"`
	MonthlyQuota int       `json:"quota"`
	ResetDate    time.Time `json:"reset_date"`
}
