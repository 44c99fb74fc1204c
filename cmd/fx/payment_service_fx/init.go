package payment_service_fx

import (
	"go.uber.org/fx"

	"storefront/internal/config"
	"storefront/internal/services"
	"storefront/pkg/gateway"
)

var Module = fx.Provide(
	providePaymentGateway,
)

func providePaymentGateway(cfg *config.Config) (services.PaymentGateway, error) {
	return gateway.NewClient(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		SecretKey: cfg.GatewaySecretKey,
		Timeout:   cfg.GatewayTimeout,
	})
}
