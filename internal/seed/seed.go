// Package seed loads a YAML catalog and applies it idempotently. Rows are matched by natural
// key: split configuration and product by name, coupon by code, user by email and affiliate
// by recipient id.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
	"storefront/pkg/utils"
)

type Catalog struct {
	SplitConfigurations []SplitConfiguration `yaml:"split_configurations"`
	Products            []Product            `yaml:"products"`
	Coupons             []Coupon             `yaml:"coupons"`
	Affiliates          []Affiliate          `yaml:"affiliates"`
}

type SplitConfiguration struct {
	Name       string           `yaml:"name"`
	Active     *bool            `yaml:"active"`
	Recipients []SplitRecipient `yaml:"recipients"`
}

type SplitRecipient struct {
	RecipientID         string `yaml:"recipient_id"`
	Percentage          string `yaml:"percentage"`
	Liable              bool   `yaml:"liable"`
	ChargeProcessingFee bool   `yaml:"charge_processing_fee"`
	ChargeRemainderFee  bool   `yaml:"charge_remainder_fee"`
}

type Product struct {
	Name               string `yaml:"name"`
	Description        string `yaml:"description"`
	ProductType        string `yaml:"product_type"`
	Active             *bool  `yaml:"active"`
	Price              int64  `yaml:"price"`
	SplitConfiguration string `yaml:"split_configuration"`
}

type Coupon struct {
	Code               string   `yaml:"code"`
	DiscountPercentage string   `yaml:"discount_percentage"`
	Active             *bool    `yaml:"active"`
	MaxUses            *int     `yaml:"max_uses"`
	ExpiresAt          string   `yaml:"expires_at"` // RFC3339 or YYYY-MM-DD
	Products           []string `yaml:"products"`   // product names
}

type Affiliate struct {
	Name        string                    `yaml:"name"`
	Email       string                    `yaml:"email"`
	RecipientID string                    `yaml:"recipient_id"`
	Commission  string                    `yaml:"commission"`
	Active      *bool                     `yaml:"active"`
	Settlement  *db_models.SettlementInfo `yaml:"settlement"`
}

type Summary struct {
	SplitConfigurations int
	Products            int
	Prices              int
	Coupons             int
	Affiliates          int
}

func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

func enabled(b *bool) bool {
	return b == nil || *b
}

// Apply writes the catalog in one transaction.
func Apply(ctx context.Context, db *gorm.DB, c *Catalog, log *zap.Logger) (Summary, error) {
	var sum Summary
	err := infra.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		configs := make(map[string]*db_models.SplitConfiguration, len(c.SplitConfigurations))
		for _, sc := range c.SplitConfigurations {
			cfg, err := applySplitConfiguration(tx, sc)
			if err != nil {
				return fmt.Errorf("split configuration %q: %w", sc.Name, err)
			}
			configs[sc.Name] = cfg
			sum.SplitConfigurations++
		}

		products := make(map[string]*db_models.Product, len(c.Products))
		for _, p := range c.Products {
			product, priced, err := applyProduct(tx, p, configs)
			if err != nil {
				return fmt.Errorf("product %q: %w", p.Name, err)
			}
			products[p.Name] = product
			sum.Products++
			if priced {
				sum.Prices++
			}
		}

		for _, cp := range c.Coupons {
			if err := applyCoupon(tx, cp, products); err != nil {
				return fmt.Errorf("coupon %q: %w", cp.Code, err)
			}
			sum.Coupons++
		}

		for _, a := range c.Affiliates {
			if err := applyAffiliate(tx, a); err != nil {
				return fmt.Errorf("affiliate %q: %w", a.RecipientID, err)
			}
			sum.Affiliates++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	log.Info("catalog applied",
		zap.Int("split_configurations", sum.SplitConfigurations),
		zap.Int("products", sum.Products),
		zap.Int("new_prices", sum.Prices),
		zap.Int("coupons", sum.Coupons),
		zap.Int("affiliates", sum.Affiliates))
	return sum, nil
}

func applySplitConfiguration(tx *gorm.DB, sc SplitConfiguration) (*db_models.SplitConfiguration, error) {
	if sc.Name == "" {
		return nil, errors.New("name is required")
	}

	var cfg db_models.SplitConfiguration
	err := tx.Where("name = ?", sc.Name).First(&cfg).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cfg = db_models.SplitConfiguration{Name: sc.Name, Active: true}
		if err := tx.Create(&cfg).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}
	if err := tx.Model(&cfg).Update("active", enabled(sc.Active)).Error; err != nil {
		return nil, err
	}

	// recipients are replaced as a whole to keep positions contiguous
	if err := tx.Unscoped().Where("split_configuration_id = ?", cfg.ID).Delete(&db_models.SplitRecipient{}).Error; err != nil {
		return nil, err
	}
	for i, r := range sc.Recipients {
		pct, err := decimal.NewFromString(r.Percentage)
		if err != nil {
			return nil, fmt.Errorf("recipient %q percentage: %w", r.RecipientID, err)
		}
		row := db_models.SplitRecipient{
			SplitConfigurationID: cfg.ID,
			Position:             i,
			RecipientID:          r.RecipientID,
			Percentage:           pct,
			Liable:               r.Liable,
			ChargeProcessingFee:  r.ChargeProcessingFee,
			ChargeRemainderFee:   r.ChargeRemainderFee,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// applyProduct appends a price row only when the catalog price differs from the current one.
func applyProduct(tx *gorm.DB, p Product, configs map[string]*db_models.SplitConfiguration) (*db_models.Product, bool, error) {
	if p.Name == "" {
		return nil, false, errors.New("name is required")
	}
	if p.Price <= 0 {
		return nil, false, errors.New("price must be positive")
	}

	var splitID *uuid.UUID
	if p.SplitConfiguration != "" {
		cfg, ok := configs[p.SplitConfiguration]
		if !ok {
			return nil, false, fmt.Errorf("unknown split configuration %q", p.SplitConfiguration)
		}
		splitID = &cfg.ID
	}

	var product db_models.Product
	err := tx.Where("name = ?", p.Name).First(&product).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		product = db_models.Product{Name: p.Name, Active: true}
		if err := tx.Create(&product).Error; err != nil {
			return nil, false, err
		}
	case err != nil:
		return nil, false, err
	}

	var description *string
	if p.Description != "" {
		description = &p.Description
	}
	err = tx.Model(&product).Updates(map[string]any{
		"description":            description,
		"product_type":           p.ProductType,
		"active":                 enabled(p.Active),
		"split_configuration_id": splitID,
	}).Error
	if err != nil {
		return nil, false, err
	}

	var current db_models.Price
	err = tx.Where("product_id = ? AND active = ?", product.ID, true).Order("created_at DESC").First(&current).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if err == nil && current.Amount == p.Price {
		return &product, false, nil
	}

	price := db_models.Price{ProductID: product.ID, Amount: p.Price, Active: true}
	if err == nil && current.CreatedAt >= time.Now().Unix() {
		// keep the new row strictly newest within the same second
		price.CreatedAt = current.CreatedAt + 1
	}
	if err := tx.Create(&price).Error; err != nil {
		return nil, false, err
	}
	return &product, true, nil
}

func applyCoupon(tx *gorm.DB, cp Coupon, products map[string]*db_models.Product) error {
	pct, err := decimal.NewFromString(cp.DiscountPercentage)
	if err != nil {
		return fmt.Errorf("discount percentage: %w", err)
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("discount percentage %s outside 0-100", pct)
	}

	coupon := db_models.Coupon{
		Code:               cp.Code,
		Active:             enabled(cp.Active),
		DiscountPercentage: pct,
		MaxUses:            cp.MaxUses,
		ProductIDs:         pq.StringArray{},
	}
	if cp.ExpiresAt != "" {
		at, err := utils.ParseDateOrTime(cp.ExpiresAt)
		if err != nil {
			return fmt.Errorf("expires_at: %w", err)
		}
		unix := at.Unix()
		coupon.ExpiresAt = &unix
	}
	for _, name := range cp.Products {
		p, ok := products[name]
		if !ok {
			return fmt.Errorf("unknown product %q", name)
		}
		coupon.ProductIDs = append(coupon.ProductIDs, p.ID.String())
	}

	// usage_count is owned by settlement and never reset here
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"discount_percentage", "max_uses", "expires_at", "product_ids", "updated_at",
		}),
	}).Create(&coupon).Error
	if err != nil {
		return err
	}
	// a false active would be dropped from the insert in favour of the column default
	return tx.Model(&db_models.Coupon{}).
		Where("code = ?", db_models.NormalizeCouponCode(cp.Code)).
		UpdateColumn("active", enabled(cp.Active)).Error
}

func applyAffiliate(tx *gorm.DB, a Affiliate) error {
	if a.RecipientID == "" || a.Email == "" {
		return errors.New("recipient_id and email are required")
	}
	commission, err := decimal.NewFromString(a.Commission)
	if err != nil {
		return fmt.Errorf("commission: %w", err)
	}

	user := db_models.User{Name: a.Name, Email: a.Email}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return err
	}
	// on conflict the generated id is not the stored one
	var stored db_models.User
	if err := tx.Where("email = ?", a.Email).First(&stored).Error; err != nil {
		return err
	}

	var affiliate db_models.Affiliate
	err = tx.Where("recipient_id = ?", a.RecipientID).First(&affiliate).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		info := db_models.SettlementInfo{}
		if a.Settlement != nil {
			info = info.Merge(*a.Settlement)
		}
		affiliate = db_models.Affiliate{
			UserID:      stored.ID,
			Commission:  commission,
			Active:      true,
			RecipientID: a.RecipientID,
			Settlement:  datatypes.NewJSONType(info),
		}
		if err := tx.Create(&affiliate).Error; err != nil {
			return err
		}
		if !enabled(a.Active) {
			return tx.Model(&affiliate).Update("active", false).Error
		}
		return nil
	case err != nil:
		return err
	}

	info := affiliate.Settlement.Data()
	if a.Settlement != nil {
		info = info.Merge(*a.Settlement)
	}
	return tx.Model(&affiliate).Updates(map[string]any{
		"user_id":    stored.ID,
		"commission": commission,
		"active":     enabled(a.Active),
		"settlement": datatypes.NewJSONType(info),
	}).Error
}
