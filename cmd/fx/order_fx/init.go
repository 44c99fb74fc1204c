package order_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"storefront/internal/repositories"
	"storefront/internal/services"
)

var Module = fx.Provide(
	provideCustomerRepo, provideOrderRepo, provideWebhookEventRepo, provideOrderService,
)

func provideCustomerRepo(db *gorm.DB) repositories.CustomerRepository {
	return repositories.NewCustomerRepository(db)
}

func provideOrderRepo(db *gorm.DB) repositories.OrderRepository {
	return repositories.NewOrderRepository(db)
}

func provideWebhookEventRepo(db *gorm.DB) repositories.WebhookEventRepository {
	return repositories.NewWebhookEventRepository(db)
}

func provideOrderService(orders repositories.OrderRepository, events repositories.WebhookEventRepository) services.OrderService {
	return services.NewOrderService(orders, events)
}
