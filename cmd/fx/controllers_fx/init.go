package controllers_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"storefront/internal/api/controllers"
	"storefront/internal/config"
	"storefront/internal/services"
)

var Module = fx.Options(
	fx.Provide(controllers.NewCheckoutController),
	fx.Provide(provideWebhookController),
	fx.Provide(controllers.NewOrderController),
	fx.Provide(controllers.NewCouponController),
	fx.Provide(controllers.NewHealthController))

func provideWebhookController(webhooks services.WebhookService, cfg *config.Config, log *zap.Logger) *controllers.WebhookController {
	return controllers.NewWebhookController(webhooks, cfg.WebhookSignatureHeader, log)
}
