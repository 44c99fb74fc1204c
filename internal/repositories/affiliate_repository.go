package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models/db_models"
)

type AffiliateRepository interface {
	FindActiveByRecipientID(ctx context.Context, recipientID string) (*db_models.Affiliate, error)
	AdjustPendingBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int64) error
}

type affiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) AffiliateRepository {
	return &affiliateRepository{db: db}
}

func (a *affiliateRepository) FindActiveByRecipientID(ctx context.Context, recipientID string) (*db_models.Affiliate, error) {
	var affiliate db_models.Affiliate
	err := a.db.WithContext(ctx).
		Where("recipient_id = ? AND active = ?", recipientID, true).
		First(&affiliate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &affiliate, nil
}

func (a *affiliateRepository) AdjustPendingBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int64) error {
	return conn(a.db, tx).WithContext(ctx).
		Model(&db_models.Affiliate{}).
		Where("id = ?", id).
		UpdateColumn("balance_pending", gorm.Expr("balance_pending + ?", delta)).Error
}
