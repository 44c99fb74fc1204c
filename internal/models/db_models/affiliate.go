package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	Name  string
	Email string `gorm:"uniqueIndex"`
}

type Affiliate struct {
	BaseModel
	UserID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	User           User            `gorm:"foreignKey:UserID"`
	Commission     decimal.Decimal `gorm:"type:numeric(5,2);not null"` // percent, 0-100
	Active         bool            `gorm:"default:true"`
	RecipientID    string          `gorm:"uniqueIndex;size:64;not null"` // gateway payout recipient
	BalancePending int64           `gorm:"not null;default:0"`           // minor units, settled by webhooks

	Settlement datatypes.JSONType[SettlementInfo] `gorm:"type:jsonb"`
}

const SettlementInfoVersion = 1

// SettlementInfo is the payout destination of an affiliate.
type SettlementInfo struct {
	Version        int     `json:"version" yaml:"version"`
	BankCode       string  `json:"bank_code,omitempty" yaml:"bank_code,omitempty"`
	BranchNumber   string  `json:"branch_number,omitempty" yaml:"branch_number,omitempty"`
	BranchDigit    string  `json:"branch_digit,omitempty" yaml:"branch_digit,omitempty"`
	AccountNumber  string  `json:"account_number,omitempty" yaml:"account_number,omitempty"`
	AccountDigit   string  `json:"account_digit,omitempty" yaml:"account_digit,omitempty"`
	AccountType    string  `json:"account_type,omitempty" yaml:"account_type,omitempty"`
	HolderName     string  `json:"holder_name,omitempty" yaml:"holder_name,omitempty"`
	HolderDocument string  `json:"holder_document,omitempty" yaml:"holder_document,omitempty"`
	PixKey         *string `json:"pix_key,omitempty" yaml:"pix_key,omitempty"`
}

// Merge overlays the non-empty fields of patch onto s.
func (s SettlementInfo) Merge(patch SettlementInfo) SettlementInfo {
	out := s
	out.Version = SettlementInfoVersion
	if patch.BankCode != "" {
		out.BankCode = patch.BankCode
	}
	if patch.BranchNumber != "" {
		out.BranchNumber = patch.BranchNumber
	}
	if patch.BranchDigit != "" {
		out.BranchDigit = patch.BranchDigit
	}
	if patch.AccountNumber != "" {
		out.AccountNumber = patch.AccountNumber
	}
	if patch.AccountDigit != "" {
		out.AccountDigit = patch.AccountDigit
	}
	if patch.AccountType != "" {
		out.AccountType = patch.AccountType
	}
	if patch.HolderName != "" {
		out.HolderName = patch.HolderName
	}
	if patch.HolderDocument != "" {
		out.HolderDocument = patch.HolderDocument
	}
	if patch.PixKey != nil {
		key := *patch.PixKey
		out.PixKey = &key
	}
	return out
}
