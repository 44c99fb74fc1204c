package db_models

import (
	"slices"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Coupon struct {
	BaseModel
	Code               string          `gorm:"uniqueIndex;size:64;not null"`
	Active             bool            `gorm:"default:true"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	MaxUses            *int
	UsageCount         int            `gorm:"not null;default:0"`
	ExpiresAt          *int64         // unix seconds
	ProductIDs         pq.StringArray `gorm:"type:text[]"` // empty applies to every product
}

func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Usable reports whether the coupon can be applied to productID at unix time now.
func (c *Coupon) Usable(productID string, now int64) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && *c.ExpiresAt <= now {
		return false
	}
	if c.MaxUses != nil && c.UsageCount >= *c.MaxUses {
		return false
	}
	return c.AppliesTo(productID)
}

func (c *Coupon) AppliesTo(productID string) bool {
	if len(c.ProductIDs) == 0 {
		return true
	}
	return slices.Contains(c.ProductIDs, productID)
}
