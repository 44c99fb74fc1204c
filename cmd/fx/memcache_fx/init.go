package memcache_fx

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/infra"
	mem "storefront/pkg/memcache"
)

var Module = fx.Provide(provideRedisClient, provideLimiter)

// provideRedisClient yields a nil client when REDIS_ADDR is unset.
func provideRedisClient(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	client, err := infra.InitRedis(cfg)
	if err != nil || client == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func provideLimiter(cfg *config.Config, client *redis.Client, log *zap.Logger) mem.Limiter {
	policy := mem.Policy{PerMinute: cfg.CheckoutRatePerMinute, Burst: cfg.CheckoutRateBurst}
	if client == nil {
		log.Warn("REDIS_ADDR not set, checkout limiter is local to this instance")
		return mem.NewLocalLimiter(policy)
	}
	return mem.NewRedisLimiter(client, policy)
}
