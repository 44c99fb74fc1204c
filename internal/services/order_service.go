package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/models/db_models"
	"storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type OrderService interface {
	GetStatus(ctx context.Context, id uuid.UUID) (*response_models.OrderStatusResponse, error)
	GetSettlements(ctx context.Context, id uuid.UUID) (*response_models.OrderSettlementsResponse, error)
	PurgeStaleDrafts(ctx context.Context, createdBefore int64) (int64, error)
}

type orderService struct {
	orders repositories.OrderRepository
	events repositories.WebhookEventRepository
}

func NewOrderService(orders repositories.OrderRepository, events repositories.WebhookEventRepository) OrderService {
	return &orderService{orders: orders, events: events}
}

func (o *orderService) load(ctx context.Context, id uuid.UUID) (*db_models.Order, error) {
	order, err := o.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load order: %v", utils.ErrDatabaseError, err)
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}
	return order, nil
}

func statusView(order *db_models.Order) response_models.OrderStatusResponse {
	return response_models.OrderStatusResponse{
		ID:            order.ID.String(),
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		Amount:        order.Amount,
		CreatedAt:     order.CreatedAt,
		PlacedAt:      utils.FormatRFC3339(utils.FromUnixSeconds(order.CreatedAt)),
	}
}

func (o *orderService) GetStatus(ctx context.Context, id uuid.UUID) (*response_models.OrderStatusResponse, error) {
	order, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := statusView(order)
	return &view, nil
}

func (o *orderService) GetSettlements(ctx context.Context, id uuid.UUID) (*response_models.OrderSettlementsResponse, error) {
	order, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}

	transitions, err := o.orders.ListTransitions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list transitions: %v", utils.ErrDatabaseError, err)
	}
	events, err := o.events.ListByOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list webhook events: %v", utils.ErrDatabaseError, err)
	}

	resp := &response_models.OrderSettlementsResponse{
		Order:       statusView(order),
		Transitions: make([]response_models.SettlementTransition, 0, len(transitions)),
		Events:      make([]response_models.SettlementEvent, 0, len(events)),
	}
	for _, t := range transitions {
		resp.Transitions = append(resp.Transitions, response_models.SettlementTransition{
			Status:    string(t.Status),
			From:      string(t.From),
			EventID:   t.EventID,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, e := range events {
		resp.Events = append(resp.Events, response_models.SettlementEvent{
			EventID:     e.EventID,
			EventType:   e.EventType,
			Outcome:     string(e.Outcome),
			Error:       e.ProcessingError,
			ProcessedAt: e.ProcessedAt,
		})
	}
	return resp, nil
}

func (o *orderService) PurgeStaleDrafts(ctx context.Context, createdBefore int64) (int64, error) {
	n, err := o.orders.PurgeStaleDrafts(ctx, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("%w: purge drafts: %v", utils.ErrDatabaseError, err)
	}
	return n, nil
}
