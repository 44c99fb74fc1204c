package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

// ResolvedProduct is a product paired with its authoritative price.
type ResolvedProduct struct {
	Product *db_models.Product
	Price   int64
}

type PriceAuthority interface {
	Resolve(ctx context.Context, productID uuid.UUID) (*ResolvedProduct, error)
	// ValidatePrice fails with utils.ErrInvalidProduct unless submitted is exactly the current price.
	ValidatePrice(ctx context.Context, productID uuid.UUID, submitted int64) (*ResolvedProduct, error)
	ResolveAddons(ctx context.Context, ids []uuid.UUID) ([]ResolvedProduct, error)
}

type priceAuthority struct {
	products repositories.ProductRepository
	log      *zap.Logger
}

func NewPriceAuthority(products repositories.ProductRepository, log *zap.Logger) PriceAuthority {
	return &priceAuthority{products: products, log: log}
}

func (p *priceAuthority) Resolve(ctx context.Context, productID uuid.UUID) (*ResolvedProduct, error) {
	product, price, err := p.products.FindWithActivePrice(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: load product %s: %v", utils.ErrDatabaseError, productID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %s not found", utils.ErrInvalidProduct, productID)
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: product %s is inactive", utils.ErrInvalidProduct, productID)
	}
	if price == nil {
		return nil, fmt.Errorf("%w: product %s has no active price", utils.ErrInvalidProduct, productID)
	}
	return &ResolvedProduct{Product: product, Price: price.Amount}, nil
}

func (p *priceAuthority) ValidatePrice(ctx context.Context, productID uuid.UUID, submitted int64) (*ResolvedProduct, error) {
	resolved, err := p.Resolve(ctx, productID)
	if err != nil {
		return nil, err
	}
	if resolved.Price != submitted {
		p.log.Warn("submitted price does not match",
			zap.String("product_id", productID.String()),
			zap.Int64("submitted", submitted),
			zap.Int64("authoritative", resolved.Price))
		return nil, fmt.Errorf("%w: price %d does not match current price", utils.ErrInvalidProduct, submitted)
	}
	return resolved, nil
}

func (p *priceAuthority) ResolveAddons(ctx context.Context, ids []uuid.UUID) ([]ResolvedProduct, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	addons := make([]ResolvedProduct, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		resolved, err := p.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("add-on: %w", err)
		}
		addons = append(addons, *resolved)
	}
	return addons, nil
}
