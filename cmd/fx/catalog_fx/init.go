package catalog_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Provide(
	provideProductRepo, provideCouponRepo, provideAffiliateRepo,
	providePriceAuthority, provideCouponService, provideSplitResolver,
)

func provideProductRepo(db *gorm.DB) repositories.ProductRepository {
	return repositories.NewProductRepository(db)
}

func provideCouponRepo(db *gorm.DB) repositories.CouponRepository {
	return repositories.NewCouponRepository(db)
}

func provideAffiliateRepo(db *gorm.DB) repositories.AffiliateRepository {
	return repositories.NewAffiliateRepository(db)
}

func providePriceAuthority(products repositories.ProductRepository, log *zap.Logger) services.PriceAuthority {
	return services.NewPriceAuthority(products, log.Named("prices"))
}

func provideCouponService(coupons repositories.CouponRepository, log *zap.Logger) services.CouponService {
	return services.NewCouponService(coupons, log.Named("coupons"))
}

func provideSplitResolver(affiliates repositories.AffiliateRepository, cfg *config.Config, log *zap.Logger) services.SplitResolver {
	return services.NewSplitResolver(affiliates, cfg.PlatformRecipientID, log.Named("split"))
}
