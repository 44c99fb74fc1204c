package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type CouponService interface {
	Validate(ctx context.Context, code string, productID uuid.UUID) (*response_models.CouponValidationResponse, error)
	// FindUsable returns nil when the coupon does not exist or cannot be applied to productID.
	FindUsable(ctx context.Context, code string, productID uuid.UUID) (*db_models.Coupon, error)
}

type couponService struct {
	coupons repositories.CouponRepository
	now     func() time.Time
	log     *zap.Logger
}

func NewCouponService(coupons repositories.CouponRepository, log *zap.Logger) CouponService {
	return &couponService{coupons: coupons, now: time.Now, log: log}
}

func (c *couponService) FindUsable(ctx context.Context, code string, productID uuid.UUID) (*db_models.Coupon, error) {
	coupon, err := c.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: load coupon: %v", utils.ErrDatabaseError, err)
	}
	if coupon == nil || !coupon.Usable(productID.String(), c.now().Unix()) {
		return nil, nil
	}
	return coupon, nil
}

func (c *couponService) Validate(ctx context.Context, code string, productID uuid.UUID) (*response_models.CouponValidationResponse, error) {
	normalized := db_models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty coupon code", utils.ErrInvalidRequest)
	}

	coupon, err := c.coupons.FindByCode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: load coupon: %v", utils.ErrDatabaseError, err)
	}
	if coupon == nil {
		return &response_models.CouponValidationResponse{Code: normalized, Message: "coupon_not_found"}, nil
	}
	if !coupon.Usable(productID.String(), c.now().Unix()) {
		return &response_models.CouponValidationResponse{Code: normalized, Message: "coupon_not_applicable"}, nil
	}

	return &response_models.CouponValidationResponse{
		Valid:              true,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage.String(),
		Message:            "coupon_applied",
	}, nil
}
