package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/metrics"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// BillingService reconciles Stripe subscription lifecycle events into user
// limit state. Delivery is at-least-once; applying an event is a pure upsert
// of the tier's policy, so reprocessing the same event is idempotent.
type BillingService struct {
	cfg    *config.Config
	limits repository.LimitRepository
	tiers  TierService
	logger zerolog.Logger
	now    func() time.Time
}

// NewBillingService initializes the Stripe key and returns the service with a
// scoped logger.
func NewBillingService(cfg *config.Config, limits repository.LimitRepository, tiers TierService, logger zerolog.Logger) *BillingService {
	stripe.Key = cfg.StripeSecretKey
	return &BillingService{
		cfg:    cfg,
		limits: limits,
		tiers:  tiers,
		logger: logger.With().Str("service", "BillingService").Logger(),
		now:    time.Now,
	}
}

// resolveUser maps the event's customer to our user ID. An unmapped customer
// cannot be applied; the event is dropped without failing the webhook.
func (s *BillingService) resolveUser(ctx context.Context, sub *stripe.Subscription) (string, bool, error) {
	if sub.Customer == nil || sub.Customer.ID == "" {
		s.logger.Warn().Str("subscription_id", sub.ID).Msg("Subscription event has no customer, dropping")
		return "", false, nil
	}
	userID, err := s.limits.UserIDForCustomer(ctx, sub.Customer.ID)
	if errors.Is(err, repository.ErrCustomerNotMapped) {
		s.logger.Warn().Str("stripe_customer_id", sub.Customer.ID).Str("subscription_id", sub.ID).Msg("No user mapped to customer, dropping event")
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}

// ApplySubscriptionChange handles created and updated events: the first line
// item's product decides the tier, and the user's limits are upserted with the
// tier's policy and a usage window starting now. Opening a new window on every
// upgrade or downgrade (including metadata-only updates) is a deliberate
// choice, not a bug.
func (s *BillingService) ApplySubscriptionChange(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		s.logger.Warn().Str("subscription_id", sub.ID).Msg("Subscription event has no items, dropping")
		return nil
	}
	item := sub.Items.Data[0]
	if item.Price == nil || item.Price.Product == nil || item.Price.Product.ID == "" {
		s.logger.Warn().Str("subscription_id", sub.ID).Msg("Subscription item has no product, dropping")
		return nil
	}

	tier := s.tiers.ResolveTier(ctx, item.Price.Product.ID)

	userID, ok, err := s.resolveUser(ctx, sub)
	if err != nil || !ok {
		return err
	}

	if err := s.limits.ApplyTier(ctx, userID, tier, PolicyForTier(tier), s.now()); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("tier", tier).Msg("Failed to apply tier from subscription event")
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("tier", tier).Str("subscription_id", sub.ID).Msg("Applied subscription tier")
	return nil
}

// ApplySubscriptionDeleted downgrades the user to the free tier's policy with
// a usage window starting now.
func (s *BillingService) ApplySubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	userID, ok, err := s.resolveUser(ctx, sub)
	if err != nil || !ok {
		return err
	}
	if err := s.limits.ApplyTier(ctx, userID, model.TierFree, PolicyForTier(model.TierFree), s.now()); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to downgrade user on subscription deletion")
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("subscription_id", sub.ID).Msg("Downgraded user to free tier")
	return nil
}

// webhookBodyLimit caps event payload reads; Stripe keeps events well under 64KB.
const webhookBodyLimit = 65536

// HandleWebhook processes Stripe webhook events.
func (s *BillingService) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	ctx := r.Context()
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.Error().Err(err).Msg("Invalid subscription payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		if err := s.ApplySubscriptionChange(ctx, &sub); err != nil {
			metrics.SubscriptionEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
			http.Error(w, "failed to apply subscription event", http.StatusInternalServerError)
			return
		}
		metrics.SubscriptionEventsTotal.WithLabelValues(string(event.Type), "applied").Inc()
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.Error().Err(err).Msg("Invalid subscription payload")
			http.Error(w, "invalid subscription data", http.StatusBadRequest)
			return
		}
		if err := s.ApplySubscriptionDeleted(ctx, &sub); err != nil {
			metrics.SubscriptionEventsTotal.WithLabelValues(string(event.Type), "error").Inc()
			http.Error(w, "failed to apply subscription event", http.StatusInternalServerError)
			return
		}
		metrics.SubscriptionEventsTotal.WithLabelValues(string(event.Type), "applied").Inc()
	default:
		s.logger.Warn().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event")
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
