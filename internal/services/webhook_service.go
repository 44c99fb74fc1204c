package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

// Gateway event types that move an order.
const (
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
	EventOrderRefunded      = "order.refunded"
	EventOrderPending       = "order.pending"
)

var eventTargets = map[string]db_models.OrderStatus{
	EventOrderPaid:          db_models.OrderStatusPaid,
	EventOrderPaymentFailed: db_models.OrderStatusFailed,
	EventOrderRefunded:      db_models.OrderStatusRefunded,
	EventOrderPending:       db_models.OrderStatusPending,
}

type WebhookResult struct {
	Outcome db_models.WebhookOutcome
	OrderID *uuid.UUID
	Status  db_models.OrderStatus
}

type WebhookService interface {
	// Handle authenticates and applies one gateway delivery. It returns utils.ErrUnauthorized
	// for bad signatures and utils.ErrInvalidRequest for unparseable bodies.
	Handle(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error)
}

type webhookService struct {
	db         *gorm.DB
	secret     string
	orders     repositories.OrderRepository
	coupons    repositories.CouponRepository
	affiliates repositories.AffiliateRepository
	events     repositories.WebhookEventRepository
	log        *zap.Logger
}

func NewWebhookService(
	db *gorm.DB,
	secret string,
	orders repositories.OrderRepository,
	coupons repositories.CouponRepository,
	affiliates repositories.AffiliateRepository,
	events repositories.WebhookEventRepository,
	log *zap.Logger,
) WebhookService {
	return &webhookService{
		db:         db,
		secret:     secret,
		orders:     orders,
		coupons:    coupons,
		affiliates: affiliates,
		events:     events,
		log:        log,
	}
}

type lookupPath int

const (
	byTransactionID lookupPath = iota
	byPrimaryKey
	byCode
)

func (w *webhookService) Handle(ctx context.Context, rawBody []byte, signature string) (*WebhookResult, error) {
	if !utils.VerifySignature(w.secret, rawBody, signature) {
		w.log.Warn("webhook signature rejected", zap.Bool("signature_present", signature != ""))
		return nil, utils.ErrUnauthorized
	}

	var body request_models.GatewayWebhook
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("%w: webhook payload: %v", utils.ErrInvalidRequest, err)
	}
	if body.Type == "" {
		return nil, fmt.Errorf("%w: webhook without type", utils.ErrInvalidRequest)
	}

	log := w.log.With(
		zap.String("event_id", body.ID),
		zap.String("event_type", body.Type),
		zap.String("gateway_order_id", body.Data.Order.ID))

	event := &db_models.WebhookEvent{
		EventID:        body.ID,
		EventType:      body.Type,
		GatewayOrderID: body.Data.Order.ID,
		Payload:        rawBody,
	}

	result, err := w.process(ctx, body, log)
	if err != nil {
		event.Outcome = db_models.WebhookOutcomeFailed
		event.ProcessingError = err.Error()
	} else {
		event.Outcome = result.Outcome
		event.OrderID = result.OrderID
	}
	w.record(ctx, event, log)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *webhookService) process(ctx context.Context, body request_models.GatewayWebhook, log *zap.Logger) (*WebhookResult, error) {
	target, known := eventTargets[body.Type]
	if !known {
		log.Info("webhook event type ignored")
		return &WebhookResult{Outcome: db_models.WebhookOutcomeIgnored}, nil
	}

	order, path, err := w.locate(ctx, body.Data.Order)
	if err != nil {
		return nil, fmt.Errorf("%w: locate order: %v", utils.ErrDatabaseError, err)
	}
	if order == nil {
		log.Warn("webhook for unknown order dropped")
		return &WebhookResult{Outcome: db_models.WebhookOutcomeNotFound}, nil
	}
	if path != byTransactionID {
		log.Warn("order located through fallback lookup",
			zap.String("order_id", order.ID.String()),
			zap.Int("lookup_path", int(path)))
	}

	// only the code path proves data.order.id is a gateway id
	transactionID := ""
	if path == byCode {
		transactionID = body.Data.Order.ID
	}

	var result *WebhookResult
	err = infra.WithTransaction(ctx, w.db, func(tx *gorm.DB) error {
		var txErr error
		result, txErr = w.transition(ctx, tx, order.ID, target, body.ID, transactionID)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: apply %s: %v", utils.ErrDatabaseError, target, err)
	}

	log.Info("webhook processed",
		zap.String("order_id", order.ID.String()),
		zap.String("outcome", string(result.Outcome)),
		zap.String("status", string(result.Status)))
	return result, nil
}

// locate tries the gateway transaction id first, then treats the gateway order id and the
// order code as local primary keys for payloads that carry our id instead.
func (w *webhookService) locate(ctx context.Context, o request_models.GatewayWebhookOrder) (*db_models.Order, lookupPath, error) {
	order, err := w.orders.FindByExternalTransactionID(ctx, o.ID)
	if err != nil || order != nil {
		return order, byTransactionID, err
	}

	if id, parseErr := uuid.Parse(o.ID); parseErr == nil {
		order, err = w.orders.FindByID(ctx, id)
		if err != nil || order != nil {
			return order, byPrimaryKey, err
		}
	}

	if id, parseErr := uuid.Parse(o.Code); parseErr == nil {
		order, err = w.orders.FindByID(ctx, id)
		if err != nil || order != nil {
			return order, byCode, err
		}
	}
	return nil, byTransactionID, nil
}

// transition runs under the order row lock. Status is last-write-wins; side effects run only
// when the (order, status) ledger row is inserted for the first time.
func (w *webhookService) transition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, target db_models.OrderStatus, eventID, transactionID string) (*WebhookResult, error) {
	order, err := w.orders.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return &WebhookResult{Outcome: db_models.WebhookOutcomeNotFound}, nil
	}
	result := &WebhookResult{OrderID: &order.ID}

	if target == db_models.OrderStatusPending && order.Status != db_models.OrderStatusCreating {
		// re-affirmation of a state the order is already past or in
		result.Outcome = db_models.WebhookOutcomeNoop
		result.Status = order.Status
		return result, nil
	}

	from := order.Status
	if from != target || (transactionID != "" && order.ExternalTransactionID == nil) {
		if err := w.orders.UpdateStatus(ctx, tx, order, target, transactionID); err != nil {
			return nil, err
		}
	}

	first, err := w.orders.RecordTransition(ctx, tx, &db_models.OrderTransition{
		OrderID: order.ID,
		Status:  target,
		From:    from,
		EventID: eventID,
	})
	if err != nil {
		return nil, err
	}
	if first {
		if err := w.applySideEffects(ctx, tx, order, target); err != nil {
			return nil, err
		}
	}

	result.Status = target
	result.Outcome = db_models.WebhookOutcomeNoop
	if from != target || first {
		result.Outcome = db_models.WebhookOutcomeApplied
	}
	return result, nil
}

func (w *webhookService) applySideEffects(ctx context.Context, tx *gorm.DB, order *db_models.Order, target db_models.OrderStatus) error {
	switch target {
	case db_models.OrderStatusPaid:
		if order.CouponID != nil {
			if err := w.coupons.IncrementUsage(ctx, tx, *order.CouponID); err != nil {
				return fmt.Errorf("increment coupon usage: %w", err)
			}
		}
		if order.AffiliateID != nil && order.SplitAmount != nil {
			if err := w.affiliates.AdjustPendingBalance(ctx, tx, *order.AffiliateID, *order.SplitAmount); err != nil {
				return fmt.Errorf("credit affiliate: %w", err)
			}
		}
	case db_models.OrderStatusRefunded:
		if order.AffiliateID == nil || order.SplitAmount == nil {
			return nil
		}
		wasPaid, err := w.orders.HasTransition(ctx, tx, order.ID, db_models.OrderStatusPaid)
		if err != nil {
			return err
		}
		if wasPaid {
			if err := w.affiliates.AdjustPendingBalance(ctx, tx, *order.AffiliateID, -*order.SplitAmount); err != nil {
				return fmt.Errorf("debit affiliate: %w", err)
			}
		}
	}
	return nil
}

func (w *webhookService) record(ctx context.Context, event *db_models.WebhookEvent, log *zap.Logger) {
	event.ProcessedAt = utils.NowUnixSeconds()
	if err := w.events.Record(context.WithoutCancel(ctx), event); err != nil {
		log.Error("could not record webhook event", zap.Error(err))
	}
}
