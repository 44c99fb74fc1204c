package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"storefront/internal/api/controllers"
	"storefront/internal/config"
	mem "storefront/pkg/memcache"
	"storefront/pkg/middleware"
)

type RouterParams struct {
	fx.In

	Config   *config.Config
	Log      *zap.Logger
	Limiter  mem.Limiter
	Checkout *controllers.CheckoutController
	Webhook  *controllers.WebhookController
	Orders   *controllers.OrderController
	Coupons  *controllers.CouponController
	Health   *controllers.HealthController
}

func NewRouter(p RouterParams) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Log))
	r.Use(middleware.CORSMiddleware(p.Config.AllowedOrigins()))

	RegisterRoutes(r, p)
	return r
}

func RegisterRoutes(r *gin.Engine, p RouterParams) {
	r.GET("/healthz", p.Health.Health)

	r.POST("/checkout", middleware.RateLimit(p.Limiter, "checkout", p.Log), p.Checkout.Checkout)

	r.GET("/orders/:id", p.Orders.GetOrderStatus)

	r.POST("/coupons/validate", p.Coupons.ValidateCoupon)

	webhooks := r.Group("/webhooks")
	webhooks.POST("/gateway", p.Webhook.HandleGatewayEvent)
	webhooks.PUT("/gateway", p.Webhook.HandleGatewayEvent)
	webhooks.PATCH("/gateway", p.Webhook.HandleGatewayEvent)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(p.Config.JWTSecret), middleware.RoleMiddleware("admin"))
	admin.GET("/orders/:id/settlements", p.Orders.GetSettlements)
}
