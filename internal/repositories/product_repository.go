package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models/db_models"
)

type ProductRepository interface {
	// FindWithActivePrice returns the product with its split configuration and its newest
	// active price. Either value is nil when missing.
	FindWithActivePrice(ctx context.Context, id uuid.UUID) (*db_models.Product, *db_models.Price, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (p *productRepository) FindWithActivePrice(ctx context.Context, id uuid.UUID) (*db_models.Product, *db_models.Price, error) {
	var product db_models.Product
	err := p.db.WithContext(ctx).
		Preload("SplitConfiguration").
		Preload("SplitConfiguration.Recipients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var price db_models.Price
	err = p.db.WithContext(ctx).
		Where("product_id = ? AND active = ?", id, true).
		Order("created_at DESC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &product, nil, nil
		}
		return nil, nil, err
	}

	return &product, &price, nil
}
