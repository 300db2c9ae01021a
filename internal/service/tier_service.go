package service

import (
	"context"

	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/product"
)

// PolicyForTier is the single source of truth for quota and size policy.
// Both the quota gate and the billing reconciler resolve policy through this
// function; quota amounts must never be derived anywhere else.
func PolicyForTier(tier string) model.TierPolicy {
	switch tier {
	case model.TierFree:
		return model.TierPolicy{MonthlyQuota: 10, MaxFileSize: 25_000_000}
	case model.TierBasic:
		return model.TierPolicy{MonthlyQuota: 50, MaxFileSize: 50_000_000}
	default:
		// pro and any unknown paid tier
		return model.TierPolicy{MonthlyQuota: 250, MaxFileSize: 100_000_000}
	}
}

// ProductMetadataClient looks up the tier label attached to a billing product.
type ProductMetadataClient interface {
	TierForProduct(ctx context.Context, productID string) (string, error)
}

// stripeProductClient reads the tier from Stripe product metadata.
type stripeProductClient struct{}

// NewStripeProductClient returns a ProductMetadataClient backed by the Stripe
// product API. The global Stripe key must already be configured.
func NewStripeProductClient() ProductMetadataClient {
	return &stripeProductClient{}
}

func (c *stripeProductClient) TierForProduct(ctx context.Context, productID string) (string, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	p, err := product.Get(productID, params)
	if err != nil {
		return "", err
	}
	return p.Metadata["tier"], nil
}

// TierService maps billing product IDs to internal tier names.
type TierService interface {
	// ResolveTier returns the tier for a product, failing open to "free" when
	// the metadata lookup fails so the billing webhook is never blocked.
	ResolveTier(ctx context.Context, productID string) string
}

type tierService struct {
	products ProductMetadataClient
	logger   zerolog.Logger
}

// NewTierService creates a new TierService with a scoped logger.
func NewTierService(products ProductMetadataClient, logger zerolog.Logger) TierService {
	return &tierService{
		products: products,
		logger:   logger.With().Str("service", "TierService").Logger(),
	}
}

func (s *tierService) ResolveTier(ctx context.Context, productID string) string {
	tier, err := s.products.TierForProduct(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("Failed to fetch product metadata, falling back to free tier")
		return model.TierFree
	}
	if tier == "" {
		s.logger.Warn().Str("product_id", productID).Msg("Product has no tier metadata, falling back to free tier")
		return model.TierFree
	}
	return tier
}
