package service

import (
	"context"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

type staticTierService struct {
	tier string
}

func (s *staticTierService) ResolveTier(ctx context.Context, productID string) string {
	return s.tier
}

func newBillingService(limits *fakeLimitRepo, tier string) *BillingService {
	return &BillingService{
		cfg:    &config.Config{},
		limits: limits,
		tiers:  &staticTierService{tier: tier},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
}

func subscriptionEvent(customerID, productID string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:       "sub_1",
		Customer: &stripe.Customer{ID: customerID},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{Product: &stripe.Product{ID: productID}}},
			},
		},
	}
}

func TestApplySubscriptionChange(t *testing.T) {
	limits := newFakeLimitRepo()
	limits.customer["cus_1"] = "u1"
	svc := newBillingService(limits, model.TierBasic)

	err := svc.ApplySubscriptionChange(context.Background(), subscriptionEvent("cus_1", "prod_basic"))
	require.NoError(t, err)

	limit := limits.get("u1")
	require.NotNil(t, limit)
	assert.Equal(t, model.TierBasic, limit.Tier)
	assert.Equal(t, 50, limit.MonthlyQuota)
	assert.Equal(t, int64(50_000_000), limit.MaxFileSize)
	assert.WithinDuration(t, time.Now(), limit.UsageResetDate, time.Minute)
}

func TestApplySubscriptionChangeIsIdempotent(t *testing.T) {
	limits := newFakeLimitRepo()
	limits.customer["cus_1"] = "u1"
	svc := newBillingService(limits, model.TierBasic)
	// Pin the clock so both deliveries write the same window.
	fixed := time.Now()
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, svc.ApplySubscriptionChange(ctx, subscriptionEvent("cus_1", "prod_basic")))
	first := limits.get("u1")

	// At-least-once delivery: reprocessing the same event must not change state.
	require.NoError(t, svc.ApplySubscriptionChange(ctx, subscriptionEvent("cus_1", "prod_basic")))
	second := limits.get("u1")

	assert.Equal(t, first, second)
}

func TestApplySubscriptionDeletedDowngradesToFree(t *testing.T) {
	limits := newFakeLimitRepo()
	limits.customer["cus_1"] = "u1"
	require.NoError(t, limits.ApplyTier(context.Background(), "u1", model.TierPro, PolicyForTier(model.TierPro), time.Now()))
	svc := newBillingService(limits, model.TierPro)

	err := svc.ApplySubscriptionDeleted(context.Background(), subscriptionEvent("cus_1", "prod_pro"))
	require.NoError(t, err)

	limit := limits.get("u1")
	require.NotNil(t, limit)
	assert.Equal(t, model.TierFree, limit.Tier)
	assert.Equal(t, 10, limit.MonthlyQuota)
	assert.Equal(t, int64(25_000_000), limit.MaxFileSize)
}

func TestApplySubscriptionChangeUnmappedCustomer(t *testing.T) {
	limits := newFakeLimitRepo()
	svc := newBillingService(limits, model.TierBasic)

	// The event cannot be applied without a known user: logged and dropped,
	// never surfaced as a webhook failure.
	err := svc.ApplySubscriptionChange(context.Background(), subscriptionEvent("cus_unknown", "prod_basic"))
	assert.NoError(t, err)
	assert.Empty(t, limits.limits)
}

func TestApplySubscriptionChangeNoItems(t *testing.T) {
	limits := newFakeLimitRepo()
	limits.customer["cus_1"] = "u1"
	svc := newBillingService(limits, model.TierBasic)

	sub := &stripe.Subscription{
		ID:       "sub_1",
		Customer: &stripe.Customer{ID: "cus_1"},
		Items:    &stripe.SubscriptionItemList{},
	}
	err := svc.ApplySubscriptionChange(context.Background(), sub)
	assert.NoError(t, err)
	assert.Empty(t, limits.limits)
}
