package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"storefront/cmd/fx/catalog_fx"
	"storefront/cmd/fx/checkout_fx"
	"storefront/cmd/fx/config_fx"
	"storefront/cmd/fx/controllers_fx"
	"storefront/cmd/fx/db_fx"
	"storefront/cmd/fx/logger_fx"
	"storefront/cmd/fx/memcache_fx"
	"storefront/cmd/fx/order_fx"
	"storefront/cmd/fx/payment_service_fx"
	"storefront/cmd/fx/webhook_fx"
	"storefront/internal/api"
	"storefront/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Checkout and order settlement service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(purgeDraftsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				config_fx.Module,
				logger_fx.Module,
				fx.Invoke(validateConfig),
				db_fx.Module,
				memcache_fx.Module,
				payment_service_fx.Module,
				catalog_fx.Module,
				order_fx.Module,
				checkout_fx.Module,
				webhook_fx.Module,
				controllers_fx.Module,

				fx.Provide(api.NewRouter),
				fx.Invoke(StartServer),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func validateConfig(cfg *config.Config) error {
	return cfg.Validate()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting HTTP server", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
