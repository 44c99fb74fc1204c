package db_models

import (
	"github.com/google/uuid"
)

type OrderStatus string

const (
	// OrderStatusCreating marks a local draft written before the gateway was called.
	OrderStatusCreating OrderStatus = "creating"
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed || s == OrderStatusRefunded
}

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPix        PaymentMethod = "pix"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCreditCard || m == PaymentMethodPix
}

// Asynchronous methods are confirmed later through webhooks.
func (m PaymentMethod) Asynchronous() bool {
	return m == PaymentMethodPix
}

type Order struct {
	BaseModel
	CustomerID            uuid.UUID     `gorm:"type:uuid;index;not null"`
	Customer              Customer      `gorm:"foreignKey:CustomerID"`
	Status                OrderStatus   `gorm:"size:16;index;not null"`
	Amount                int64         `gorm:"not null"` // minor units
	PaymentMethod         PaymentMethod `gorm:"size:16;not null"`
	ExternalTransactionID *string       `gorm:"size:64;index"`

	AffiliateID *uuid.UUID `gorm:"type:uuid;index"`
	SplitAmount *int64     // affiliate share, informational
	CouponID    *uuid.UUID `gorm:"type:uuid;index"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name      string
	Price     int64 `gorm:"not null"`
	Quantity  int   `gorm:"not null;default:1"`
	IsAddon   bool
}

// OrderTransition records the first arrival of an order at a status.
// The unique index is what keeps settlement side effects from running twice.
type OrderTransition struct {
	BaseModel
	OrderID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:ux_order_transitions_order_status,priority:1"`
	Status  OrderStatus `gorm:"size:16;not null;uniqueIndex:ux_order_transitions_order_status,priority:2"`
	From    OrderStatus `gorm:"size:16"`
	EventID string      `gorm:"size:128"`
}
