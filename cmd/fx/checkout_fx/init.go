package checkout_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Provide(provideCheckoutService)

type checkoutDeps struct {
	fx.In

	DB        *gorm.DB
	Config    *config.Config
	Log       *zap.Logger
	Prices    services.PriceAuthority
	Coupons   services.CouponService
	Splits    services.SplitResolver
	Gateway   services.PaymentGateway
	Customers repositories.CustomerRepository
	Orders    repositories.OrderRepository
}

func provideCheckoutService(d checkoutDeps) services.CheckoutService {
	return services.NewCheckoutService(
		d.DB, d.Prices, d.Coupons, d.Splits, d.Gateway, d.Customers, d.Orders,
		services.CheckoutConfig{
			PixExpiresIn:     d.Config.PixExpiresIn,
			PhoneCountryCode: d.Config.PhoneCountryCode,
		},
		d.Log.Named("checkout"),
	)
}
