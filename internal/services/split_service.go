package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

var (
	hundred        = decimal.NewFromInt(100)
	splitTolerance = decimal.RequireFromString("0.01")
)

type SplitRule struct {
	RecipientID         string
	Percentage          decimal.Decimal
	Liable              bool
	ChargeProcessingFee bool
	ChargeRemainderFee  bool
}

type SplitResult struct {
	Rules []SplitRule
	// Affiliate is set only when the default affiliate split was applied.
	Affiliate *db_models.Affiliate
}

func (r *SplitResult) Empty() bool {
	return r == nil || len(r.Rules) == 0
}

// AffiliateShare is the affiliate's part of amount, rounded to the minor unit.
func (r *SplitResult) AffiliateShare(amount int64) *int64 {
	if r == nil || r.Affiliate == nil {
		return nil
	}
	share := PercentOf(amount, r.Affiliate.Commission)
	return &share
}

func PercentOf(amount int64, percentage decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(percentage).Div(hundred).Round(0).IntPart()
}

type SplitResolver interface {
	Resolve(ctx context.Context, product *db_models.Product, affiliateRef string) (*SplitResult, error)
}

type splitResolver struct {
	affiliates          repositories.AffiliateRepository
	platformRecipientID string
	log                 *zap.Logger
}

func NewSplitResolver(affiliates repositories.AffiliateRepository, platformRecipientID string, log *zap.Logger) SplitResolver {
	return &splitResolver{
		affiliates:          affiliates,
		platformRecipientID: platformRecipientID,
		log:                 log,
	}
}

func (s *splitResolver) Resolve(ctx context.Context, product *db_models.Product, affiliateRef string) (*SplitResult, error) {
	if cfg := product.SplitConfiguration; cfg != nil && cfg.Active && len(cfg.Recipients) > 0 {
		return s.fromConfiguration(product, cfg), nil
	}

	affiliateRef = strings.TrimSpace(affiliateRef)
	if affiliateRef == "" {
		return &SplitResult{}, nil
	}

	affiliate, err := s.affiliates.FindActiveByRecipientID(ctx, affiliateRef)
	if err != nil {
		return nil, fmt.Errorf("%w: load affiliate: %v", utils.ErrDatabaseError, err)
	}
	if affiliate == nil {
		s.log.Info("affiliate reference not found or inactive", zap.String("affiliate_ref", affiliateRef))
		return &SplitResult{}, nil
	}
	if affiliate.RecipientID == "" || affiliate.RecipientID == s.platformRecipientID {
		s.log.Warn("affiliate has no usable recipient", zap.String("affiliate_id", affiliate.ID.String()))
		return &SplitResult{}, nil
	}
	if !affiliate.Commission.IsPositive() || affiliate.Commission.GreaterThanOrEqual(hundred) {
		s.log.Warn("affiliate commission out of range, not splitting",
			zap.String("affiliate_id", affiliate.ID.String()),
			zap.String("commission", affiliate.Commission.String()))
		return &SplitResult{}, nil
	}

	return &SplitResult{
		Rules: []SplitRule{
			{
				RecipientID:         s.platformRecipientID,
				Percentage:          hundred.Sub(affiliate.Commission),
				Liable:              true,
				ChargeProcessingFee: true,
				ChargeRemainderFee:  true,
			},
			{
				RecipientID: affiliate.RecipientID,
				Percentage:  affiliate.Commission,
			},
		},
		Affiliate: affiliate,
	}, nil
}

// fromConfiguration copies the configured recipients verbatim. Sums other than 100 are
// accepted and only logged.
func (s *splitResolver) fromConfiguration(product *db_models.Product, cfg *db_models.SplitConfiguration) *SplitResult {
	rules := make([]SplitRule, 0, len(cfg.Recipients))
	total := decimal.Zero
	for _, r := range cfg.Recipients {
		rules = append(rules, SplitRule{
			RecipientID:         r.RecipientID,
			Percentage:          r.Percentage,
			Liable:              r.Liable,
			ChargeProcessingFee: r.ChargeProcessingFee,
			ChargeRemainderFee:  r.ChargeRemainderFee,
		})
		total = total.Add(r.Percentage)
	}

	if total.Sub(hundred).Abs().GreaterThan(splitTolerance) {
		s.log.Warn("split configuration does not sum to 100",
			zap.String("product_id", product.ID.String()),
			zap.String("split_configuration_id", cfg.ID.String()),
			zap.String("total", total.String()))
	}
	return &SplitResult{Rules: rules}
}
