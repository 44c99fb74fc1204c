package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models/db_models"
)

var ErrDraftNotFound = errors.New("draft order not found")

type OrderRepository interface {
	// CreateDraft stores the order and its items in the creating state.
	CreateDraft(ctx context.Context, tx *gorm.DB, order *db_models.Order) error
	// Finalize attaches the gateway transaction to a draft and moves it to status.
	// It returns ErrDraftNotFound once the order has left creating.
	Finalize(ctx context.Context, id uuid.UUID, transactionID string, status db_models.OrderStatus) error
	// DiscardDraft hard deletes a draft and its items.
	DiscardDraft(ctx context.Context, id uuid.UUID) error
	PurgeStaleDrafts(ctx context.Context, createdBefore int64) (int64, error)

	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error)
	FindByExternalTransactionID(ctx context.Context, transactionID string) (*db_models.Order, error)

	// LockByID reads the order with a row lock held until tx ends.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*db_models.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, order *db_models.Order, status db_models.OrderStatus, transactionID string) error
	// RecordTransition returns true only for the first arrival of the order at status.
	RecordTransition(ctx context.Context, tx *gorm.DB, t *db_models.OrderTransition) (bool, error)
	HasTransition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status db_models.OrderStatus) (bool, error)
	ListTransitions(ctx context.Context, orderID uuid.UUID) ([]db_models.OrderTransition, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (o *orderRepository) CreateDraft(ctx context.Context, tx *gorm.DB, order *db_models.Order) error {
	order.Status = db_models.OrderStatusCreating
	order.ExternalTransactionID = nil
	return conn(o.db, tx).WithContext(ctx).Omit("Customer").Create(order).Error
}

func (o *orderRepository) Finalize(ctx context.Context, id uuid.UUID, transactionID string, status db_models.OrderStatus) error {
	res := o.db.WithContext(ctx).
		Model(&db_models.Order{}).
		Where("id = ? AND status = ?", id, db_models.OrderStatusCreating).
		Updates(map[string]interface{}{
			"external_transaction_id": transactionID,
			"status":                  status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (o *orderRepository) DiscardDraft(ctx context.Context, id uuid.UUID) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("id = ? AND status = ?", id, db_models.OrderStatusCreating).
			Delete(&db_models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDraftNotFound
		}
		return tx.Unscoped().Where("order_id = ?", id).Delete(&db_models.OrderItem{}).Error
	})
}

func (o *orderRepository) PurgeStaleDrafts(ctx context.Context, createdBefore int64) (int64, error) {
	var purged int64
	err := o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&db_models.Order{}).
			Where("status = ? AND external_transaction_id IS NULL AND created_at < ?",
				db_models.OrderStatusCreating, createdBefore).
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		if err := tx.Unscoped().Where("order_id IN ?", ids).Delete(&db_models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id IN ?", ids).Delete(&db_models.Order{})
		purged = res.RowsAffected
		return res.Error
	})
	return purged, err
}

func (o *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := o.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (o *orderRepository) FindByExternalTransactionID(ctx context.Context, transactionID string) (*db_models.Order, error) {
	if transactionID == "" {
		return nil, nil
	}
	var order db_models.Order
	err := o.db.WithContext(ctx).Preload("Items").First(&order, "external_transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (o *orderRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := conn(o.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (o *orderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, order *db_models.Order, status db_models.OrderStatus, transactionID string) error {
	updates := map[string]interface{}{"status": status}
	if order.ExternalTransactionID == nil && transactionID != "" {
		updates["external_transaction_id"] = transactionID
	}
	err := conn(o.db, tx).WithContext(ctx).
		Model(&db_models.Order{}).
		Where("id = ?", order.ID).
		Updates(updates).Error
	if err != nil {
		return err
	}
	order.Status = status
	if id, ok := updates["external_transaction_id"].(string); ok {
		order.ExternalTransactionID = &id
	}
	return nil
}

func (o *orderRepository) RecordTransition(ctx context.Context, tx *gorm.DB, t *db_models.OrderTransition) (bool, error) {
	res := conn(o.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(t)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (o *orderRepository) HasTransition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status db_models.OrderStatus) (bool, error) {
	var count int64
	err := conn(o.db, tx).WithContext(ctx).
		Model(&db_models.OrderTransition{}).
		Where("order_id = ? AND status = ?", orderID, status).
		Count(&count).Error
	return count > 0, err
}

func (o *orderRepository) ListTransitions(ctx context.Context, orderID uuid.UUID) ([]db_models.OrderTransition, error) {
	var transitions []db_models.OrderTransition
	err := o.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&transitions).Error
	return transitions, err
}
