package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type WebhookOutcome string

const (
	WebhookOutcomeApplied  WebhookOutcome = "applied"
	WebhookOutcomeNoop     WebhookOutcome = "noop"
	WebhookOutcomeIgnored  WebhookOutcome = "ignored"
	WebhookOutcomeNotFound WebhookOutcome = "order_not_found"
	WebhookOutcomeFailed   WebhookOutcome = "failed"
)

// WebhookEvent stores every authenticated gateway delivery for later inspection.
type WebhookEvent struct {
	BaseModel
	EventID         string         `gorm:"size:128;index"`
	EventType       string         `gorm:"size:64;index;not null"`
	GatewayOrderID  string         `gorm:"size:64;index"`
	OrderID         *uuid.UUID     `gorm:"type:uuid;index"`
	Outcome         WebhookOutcome `gorm:"size:32;index"`
	ProcessingError string         `gorm:"type:text"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	ProcessedAt     int64
}
