package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string `gorm:"uniqueIndex;not null"`
	Description *string
	Active      bool   `gorm:"default:true;index"`
	ProductType string `gorm:"size:64"` // provisioning hint, opaque here

	SplitConfigurationID *uuid.UUID          `gorm:"type:uuid;index"`
	SplitConfiguration   *SplitConfiguration `gorm:"foreignKey:SplitConfigurationID"`

	Prices []Price `gorm:"foreignKey:ProductID"`
}

// Price rows are append-only history; the newest active one wins.
type Price struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount    int64     `gorm:"not null"` // minor units
	Active    bool      `gorm:"default:true;index"`
}

type SplitConfiguration struct {
	BaseModel
	Name       string
	Active     bool             `gorm:"default:true"`
	Recipients []SplitRecipient `gorm:"foreignKey:SplitConfigurationID"`
}

type SplitRecipient struct {
	BaseModel
	SplitConfigurationID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Position             int             `gorm:"not null;default:0"`
	RecipientID          string          `gorm:"size:64;not null"`
	Percentage           decimal.Decimal `gorm:"type:numeric(7,4);not null"`
	Liable               bool
	ChargeProcessingFee  bool
	ChargeRemainderFee   bool
}
