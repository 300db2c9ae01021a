package service

import (
	"context"
	"time"

	"app/internal/metrics"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Deny reasons for the quota gate.
const (
	DenyReasonQuotaExceeded = "quota_exceeded"
	DenyReasonFileTooLarge  = "file_too_large"
)

// usageWindow is the length of one billing window for self-managed resets.
const usageWindow = 30 * 24 * time.Hour

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed      bool
	Reason       string
	CurrentUsage int
	Limit        *model.UserLimit
}

// QuotaService is the synchronous gate invoked per request.
type QuotaService interface {
	// CheckAndConsume decides allow/deny for one request and, on allow, records
	// the usage event before any paid downstream call is made. A crash after
	// this point still counts against quota; undercounting available quota is
	// preferred over letting retries bypass billing.
	CheckAndConsume(ctx context.Context, userID string, fileSize int64, requestType string) (*Decision, error)
	// GetUsage reports the user's consumption within the current window.
	GetUsage(ctx context.Context, userID string) (*model.UserUsage, error)
}

type quotaService struct {
	limits repository.LimitRepository
	usage  repository.UsageRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewQuotaService creates a new QuotaService with a scoped logger.
func NewQuotaService(limits repository.LimitRepository, usage repository.UsageRepository, logger zerolog.Logger) QuotaService {
	return &quotaService{
		limits: limits,
		usage:  usage,
		logger: logger.With().Str("service", "QuotaService").Logger(),
		now:    time.Now,
	}
}

// currentLimit fetches the user's limit record, creating the free-tier default
// on first sight and rolling the window forward when the reset date has passed.
// The record itself is never deleted; expiry is a soft reset. Subscription
// changes store a reset date of "now", so the next check here rolls the window
// and the user starts a fresh one.
func (s *quotaService) currentLimit(ctx context.Context, userID string) (*model.UserLimit, error) {
	now := s.now()
	limit, err := s.limits.GetOrCreateDefault(ctx, userID, PolicyForTier(model.TierFree), now.Add(usageWindow))
	if err != nil {
		return nil, err
	}
	if now.After(limit.UsageResetDate) {
		newReset := now.Add(usageWindow)
		if err := s.limits.ResetWindow(ctx, userID, newReset); err != nil {
			// Counting against the stale window denies sooner, never later.
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to roll usage window forward, counting against stale window")
		} else {
			limit.UsageResetDate = newReset
		}
	}
	return limit, nil
}

// windowStart is the cutoff for usage counting: UsageResetDate marks the end
// of the current window, so events in the trailing window before it count.
func windowStart(limit *model.UserLimit) time.Time {
	return limit.UsageResetDate.Add(-usageWindow)
}

func (s *quotaService) CheckAndConsume(ctx context.Context, userID string, fileSize int64, requestType string) (*Decision, error) {
	limit, err := s.currentLimit(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user limits")
		return nil, err
	}

	if fileSize > limit.MaxFileSize {
		metrics.QuotaDecisionsTotal.WithLabelValues(DenyReasonFileTooLarge).Inc()
		return &Decision{Reason: DenyReasonFileTooLarge, Limit: limit}, nil
	}

	count, err := s.usage.CountSince(ctx, userID, windowStart(limit))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to count usage events")
		return nil, err
	}
	if count >= limit.MonthlyQuota {
		metrics.QuotaDecisionsTotal.WithLabelValues(DenyReasonQuotaExceeded).Inc()
		return &Decision{Reason: DenyReasonQuotaExceeded, CurrentUsage: count, Limit: limit}, nil
	}

	// The ledger write happens before any downstream paid call so a crash
	// mid-request still counts against quota. A failed write is logged but does
	// not fail the request already underway.
	if err := s.usage.Append(ctx, userID, requestType, fileSize); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record usage event")
	}

	metrics.QuotaDecisionsTotal.WithLabelValues("allowed").Inc()
	return &Decision{Allowed: true, CurrentUsage: count + 1, Limit: limit}, nil
}

func (s *quotaService) GetUsage(ctx context.Context, userID string) (*model.UserUsage, error) {
	limit, err := s.currentLimit(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user limits")
		return nil, err
	}
	count, err := s.usage.CountSince(ctx, userID, windowStart(limit))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to count usage events")
		return nil, err
	}
	return &model.UserUsage{
		Tier:         limit.Tier,
		CurrentUsage: count,
		MonthlyQuota: limit.MonthlyQuota,
		ResetDate:    limit.UsageResetDate,
	}, nil
}
