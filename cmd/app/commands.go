package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/cmd/fx/config_fx"
	"storefront/cmd/fx/db_fx"
	"storefront/cmd/fx/logger_fx"
	"storefront/cmd/fx/order_fx"
	"storefront/internal/config"
	"storefront/internal/infra"
	"storefront/internal/seed"
	"storefront/internal/services"
)

// runOnce builds a short-lived app, runs its invokes and closes it again.
func runOnce(ctx context.Context, opts ...fx.Option) error {
	app := fx.New(append([]fx.Option{
		config_fx.Module,
		logger_fx.Module,
		db_fx.Module,
	}, opts...)...)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), fx.Invoke(func(db *gorm.DB, log *zap.Logger) error {
				if err := infra.Migrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				log.Info("schema migrated")
				return nil
			}))
		},
	}
}

func seedCmd() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "seed [catalog.yaml]",
		Short: "Apply a YAML catalog of products, coupons and affiliates",
		Long: `Apply a YAML catalog idempotently.

Products and split configurations are matched by name, coupons by code and
affiliates by recipient id. A changed price appends a new price row.

Examples:
  storefront seed deploy/catalog.yaml
  storefront seed catalog.yaml --migrate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), fx.Invoke(func(db *gorm.DB, log *zap.Logger) error {
				if migrateFirst {
					if err := infra.Migrate(db); err != nil {
						return fmt.Errorf("migrate: %w", err)
					}
				}
				_, err := seed.Apply(cmd.Context(), db, catalog, log)
				return err
			}))
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "migrate the schema before seeding")
	return cmd
}

func purgeDraftsCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-drafts",
		Short: "Delete draft orders that never reached the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(),
				order_fx.Module,
				fx.Invoke(func(orders services.OrderService, cfg *config.Config, log *zap.Logger) error {
					ttl, err := cfg.DraftRetention(olderThan)
					if err != nil {
						return err
					}
					cutoff := time.Now().Add(-ttl)
					n, err := orders.PurgeStaleDrafts(cmd.Context(), cutoff.Unix())
					if err != nil {
						return err
					}
					log.Info("stale drafts purged", zap.Int64("orders", n), zap.Time("created_before", cutoff))
					return nil
				}))
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "override DRAFT_TTL")
	return cmd
}
