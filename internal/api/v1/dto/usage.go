package dto

import "time"

// UsageResponse reports the caller's tier, consumption and window reset date.
type UsageResponse struct {
	Tier      string    `json:"tier"`
	Usage     int       `json:"usage"`
	Quota     int       `json:"quota"`
	ResetDate time.Time `json:"reset_date"`
}
