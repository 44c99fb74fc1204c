package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/models/db_models"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, event *db_models.WebhookEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]db_models.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (w *webhookEventRepository) Record(ctx context.Context, event *db_models.WebhookEvent) error {
	return w.db.WithContext(ctx).Create(event).Error
}

func (w *webhookEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]db_models.WebhookEvent, error) {
	var events []db_models.WebhookEvent
	err := w.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("processed_at ASC").
		Find(&events).Error
	return events, err
}
