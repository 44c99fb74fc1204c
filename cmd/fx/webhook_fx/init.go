package webhook_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Provide(provideWebhookService)

func provideWebhookService(
	db *gorm.DB,
	cfg *config.Config,
	orders repositories.OrderRepository,
	coupons repositories.CouponRepository,
	affiliates repositories.AffiliateRepository,
	events repositories.WebhookEventRepository,
	log *zap.Logger,
) services.WebhookService {
	return services.NewWebhookService(db, cfg.WebhookSecret, orders, coupons, affiliates, events, log.Named("webhooks"))
}
