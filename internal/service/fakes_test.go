package service

import (
	"context"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/repository"
)

// fakeLimitRepo mimics the store's atomic insert-if-absent semantics in memory.
type fakeLimitRepo struct {
	mu       sync.Mutex
	limits   map[string]*model.UserLimit
	customer map[string]string
	created  int

	getErr   error
	applyErr error
}

func newFakeLimitRepo() *fakeLimitRepo {
	return &fakeLimitRepo{
		limits:   make(map[string]*model.UserLimit),
		customer: make(map[string]string),
	}
}

func (f *fakeLimitRepo) GetOrCreateDefault(ctx context.Context, userID string, defaults model.TierPolicy, resetDate time.Time) (*model.UserLimit, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.limits[userID]; ok {
		cp := *existing
		return &cp, nil
	}
	f.created++
	f.limits[userID] = &model.UserLimit{
		UserID:         userID,
		Tier:           model.TierFree,
		MonthlyQuota:   defaults.MonthlyQuota,
		MaxFileSize:    defaults.MaxFileSize,
		UsageResetDate: resetDate,
	}
	cp := *f.limits[userID]
	return &cp, nil
}

func (f *fakeLimitRepo) ApplyTier(ctx context.Context, userID, tier string, policy model.TierPolicy, resetDate time.Time) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits[userID] = &model.UserLimit{
		UserID:         userID,
		Tier:           tier,
		MonthlyQuota:   policy.MonthlyQuota,
		MaxFileSize:    policy.MaxFileSize,
		UsageResetDate: resetDate,
	}
	return nil
}

func (f *fakeLimitRepo) ResetWindow(ctx context.Context, userID string, resetDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limits[userID]; ok {
		l.UsageResetDate = resetDate
	}
	return nil
}

func (f *fakeLimitRepo) UserIDForCustomer(ctx context.Context, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.customer[customerID]
	if !ok {
		return "", repository.ErrCustomerNotMapped
	}
	return userID, nil
}

func (f *fakeLimitRepo) get(userID string) *model.UserLimit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.limits[userID]; ok {
		cp := *l
		return &cp
	}
	return nil
}

// fakeUsageRepo is an in-memory append-only ledger.
type fakeUsageRepo struct {
	mu     sync.Mutex
	events []model.UsageEvent

	appendErr error
	countErr  error
}

func (f *fakeUsageRepo) Append(ctx context.Context, userID, requestType string, fileSize int64) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, model.UsageEvent{
		UserID:      userID,
		RequestType: requestType,
		FileSize:    fileSize,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (f *fakeUsageRepo) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.UserID == userID && !e.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}
