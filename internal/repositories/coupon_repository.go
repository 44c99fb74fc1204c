package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models/db_models"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*db_models.Coupon, error)
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

// Codes are stored upper-cased, so lookups are case-insensitive.
func (c *couponRepository) FindByCode(ctx context.Context, code string) (*db_models.Coupon, error) {
	var coupon db_models.Coupon
	err := c.db.WithContext(ctx).
		First(&coupon, "code = ?", db_models.NormalizeCouponCode(code)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

func (c *couponRepository) IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := conn(c.db, tx).WithContext(ctx).
		Model(&db_models.Coupon{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("coupon not found")
	}
	return nil
}

func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
