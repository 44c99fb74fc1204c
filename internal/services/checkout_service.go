package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/infra"
	"storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	"storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/gateway"
	"storefront/pkg/utils"
)

type CheckoutConfig struct {
	PixExpiresIn     time.Duration
	PhoneCountryCode string
}

type CheckoutService interface {
	Checkout(ctx context.Context, req request_models.CheckoutRequest) (*response_models.CheckoutResponse, error)
}

type checkoutService struct {
	db        *gorm.DB
	prices    PriceAuthority
	coupons   CouponService
	splits    SplitResolver
	gateway   PaymentGateway
	customers repositories.CustomerRepository
	orders    repositories.OrderRepository
	cfg       CheckoutConfig
	log       *zap.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	prices PriceAuthority,
	coupons CouponService,
	splits SplitResolver,
	paymentGateway PaymentGateway,
	customers repositories.CustomerRepository,
	orders repositories.OrderRepository,
	cfg CheckoutConfig,
	log *zap.Logger,
) CheckoutService {
	if cfg.PixExpiresIn <= 0 {
		cfg.PixExpiresIn = time.Hour
	}
	return &checkoutService{
		db:        db,
		prices:    prices,
		coupons:   coupons,
		splits:    splits,
		gateway:   paymentGateway,
		customers: customers,
		orders:    orders,
		cfg:       cfg,
		log:       log,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, req request_models.CheckoutRequest) (*response_models.CheckoutResponse, error) {
	method := db_models.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", utils.ErrUnsupportedPaymentMethod, req.PaymentMethod)
	}
	productID, addonIDs, err := parseProductIDs(req)
	if err != nil {
		return nil, err
	}

	// authoritative product and price
	main, err := s.prices.ValidatePrice(ctx, productID, req.Price)
	if err != nil {
		return nil, err
	}
	addons, err := s.prices.ResolveAddons(ctx, addonIDs)
	if err != nil {
		return nil, err
	}

	// coupon is best effort
	coupon := s.resolveCoupon(ctx, req.CouponCode, productID)

	split, err := s.splits.Resolve(ctx, main.Product, req.AffiliateRef)
	if err != nil {
		return nil, err
	}

	// payer
	customer := &db_models.Customer{
		Document: utils.OnlyDigits(req.Customer.Document),
		Name:     strings.TrimSpace(req.Customer.Name),
		Email:    strings.TrimSpace(req.Customer.Email),
		Phone:    utils.OnlyDigits(req.Customer.Phone),
	}
	if customer.Document == "" {
		return nil, fmt.Errorf("%w: customer document has no digits", utils.ErrInvalidRequest)
	}

	// method specific input is checked before anything is written
	payment, err := s.paymentFor(method, req)
	if err != nil {
		return nil, err
	}

	amount, err := chargeAmount(req.TotalAmount, main, addons)
	if err != nil {
		return nil, err
	}

	order := &db_models.Order{
		Amount:        amount,
		PaymentMethod: method,
		Items:         orderItems(main, addons),
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	if split.Affiliate != nil {
		order.AffiliateID = &split.Affiliate.ID
		order.SplitAmount = split.AffiliateShare(amount)
	}
	payment.Split = toGatewaySplit(split.Rules)

	// customer and draft order, in one transaction
	err = infra.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.customers.Upsert(ctx, tx, customer); err != nil {
			return fmt.Errorf("upsert customer: %w", err)
		}
		order.CustomerID = customer.ID
		if err := s.orders.CreateDraft(ctx, tx, order); err != nil {
			return fmt.Errorf("create draft order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}

	// charge
	chargeReq := gateway.ChargeRequest{
		Code:     order.ID.String(),
		Amount:   amount,
		Customer: gatewayCustomer(customer, s.cfg.PhoneCountryCode),
		Items:    chargeItems(order, main),
		Payments: []gateway.Payment{payment},
		Metadata: chargeMetadata(order, main, addons, strings.TrimSpace(req.AffiliateRef)),
	}
	txn, err := s.gateway.CreateCharge(ctx, chargeReq)
	if err != nil {
		s.discardDraft(ctx, order.ID, "")
		s.log.Error("gateway rejected charge",
			zap.String("order_id", order.ID.String()),
			zap.String("payment_method", string(method)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", utils.ErrGateway, err)
	}

	var pix gateway.LastTransaction
	if method.Asynchronous() {
		var complete bool
		pix, complete = txn.PixPayload()
		if !complete {
			s.discardDraft(ctx, order.ID, txn.ID)
			s.log.Error("gateway response without redeemable code",
				zap.String("order_id", order.ID.String()),
				zap.String("transaction_id", txn.ID))
			return nil, utils.ErrGatewayResponseIncomplete
		}
	}

	status, err := s.finalize(ctx, order.ID, txn)
	if err != nil {
		s.log.Error("charge created but order could not be finalized",
			zap.String("order_id", order.ID.String()),
			zap.String("transaction_id", txn.ID),
			zap.String("gateway_status", txn.Status),
			zap.Error(err))
		return nil, fmt.Errorf("%w: finalize order: %v", utils.ErrDatabaseError, err)
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("transaction_id", txn.ID),
		zap.String("status", string(status)),
		zap.Int64("amount", amount),
		zap.Int("split_rules", len(split.Rules)))

	resp := &response_models.CheckoutResponse{
		OrderID: order.ID.String(),
		Status:  string(status),
	}
	if method.Asynchronous() {
		resp.QRCode = pix.QRCode
		resp.QRCodeURL = pix.QRCodeURL
		resp.ExpiresAt = pix.ExpiresAt
		resp.TransactionID = txn.ID
	}
	return resp, nil
}

func parseProductIDs(req request_models.CheckoutRequest) (uuid.UUID, []uuid.UUID, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("%w: product id", utils.ErrInvalidRequest)
	}
	addonIDs := make([]uuid.UUID, 0, len(req.AddonIDs))
	for _, raw := range req.AddonIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("%w: add-on id %q", utils.ErrInvalidRequest, raw)
		}
		if id != productID {
			addonIDs = append(addonIDs, id)
		}
	}
	return productID, addonIDs, nil
}

func (s *checkoutService) resolveCoupon(ctx context.Context, code string, productID uuid.UUID) *db_models.Coupon {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	coupon, err := s.coupons.FindUsable(ctx, code, productID)
	if err != nil {
		s.log.Warn("coupon lookup failed, continuing without coupon", zap.String("coupon", code), zap.Error(err))
		return nil
	}
	if coupon == nil {
		s.log.Info("coupon not usable, continuing without coupon", zap.String("coupon", code))
	}
	return coupon
}

func (s *checkoutService) paymentFor(method db_models.PaymentMethod, req request_models.CheckoutRequest) (gateway.Payment, error) {
	switch method {
	case db_models.PaymentMethodCreditCard:
		card := req.Card
		if card == nil || strings.TrimSpace(card.Number) == "" || strings.TrimSpace(card.HolderName) == "" ||
			card.ExpMonth < 1 || card.ExpMonth > 12 || card.ExpYear < 1 || card.ExpYear > 99 ||
			strings.TrimSpace(card.CVV) == "" {
			return gateway.Payment{}, utils.ErrMissingPaymentData
		}
		installments := req.Installments
		if installments < 1 {
			installments = 1
		}
		return gateway.Payment{
			PaymentMethod: string(method),
			CreditCard: &gateway.CreditCard{
				Installments: installments,
				Card: gateway.Card{
					Number:     utils.OnlyDigits(card.Number),
					HolderName: strings.TrimSpace(card.HolderName),
					ExpMonth:   card.ExpMonth,
					ExpYear:    card.ExpYear,
					CVV:        strings.TrimSpace(card.CVV),
				},
			},
		}, nil
	case db_models.PaymentMethodPix:
		return gateway.Payment{
			PaymentMethod: string(method),
			Pix:           &gateway.Pix{ExpiresIn: int64(s.cfg.PixExpiresIn / time.Second)},
		}, nil
	default:
		return gateway.Payment{}, utils.ErrUnsupportedPaymentMethod
	}
}

// chargeAmount is the client's total when given, else the sum of the line prices.
// The client total cannot exceed that sum.
func chargeAmount(total *int64, main *ResolvedProduct, addons []ResolvedProduct) (int64, error) {
	subtotal := main.Price
	for _, a := range addons {
		subtotal += a.Price
	}
	if total == nil {
		return subtotal, nil
	}
	if *total <= 0 || *total > subtotal {
		return 0, fmt.Errorf("%w: total amount %d outside (0, %d]", utils.ErrInvalidRequest, *total, subtotal)
	}
	return *total, nil
}

func orderItems(main *ResolvedProduct, addons []ResolvedProduct) []db_models.OrderItem {
	items := make([]db_models.OrderItem, 0, 1+len(addons))
	items = append(items, db_models.OrderItem{
		ProductID: main.Product.ID,
		Name:      main.Product.Name,
		Price:     main.Price,
		Quantity:  1,
	})
	for _, a := range addons {
		items = append(items, db_models.OrderItem{
			ProductID: a.Product.ID,
			Name:      a.Product.Name,
			Price:     a.Price,
			Quantity:  1,
			IsAddon:   true,
		})
	}
	return items
}

// finalize moves the draft to the gateway's initial status. A webhook may have reached the
// draft first through its code; the stored status then stands.
func (s *checkoutService) finalize(ctx context.Context, orderID uuid.UUID, txn *gateway.Transaction) (db_models.OrderStatus, error) {
	// the request may be gone but the charge exists
	ctx = context.WithoutCancel(ctx)
	status := MapGatewayStatus(txn.Status)
	err := s.orders.Finalize(ctx, orderID, txn.ID, status)
	if !errors.Is(err, repositories.ErrDraftNotFound) {
		return status, err
	}

	stored, findErr := s.orders.FindByID(ctx, orderID)
	if findErr != nil {
		return "", findErr
	}
	if stored == nil || stored.Status == db_models.OrderStatusCreating {
		return "", err
	}
	if stored.ExternalTransactionID != nil && *stored.ExternalTransactionID != txn.ID {
		return "", fmt.Errorf("order bound to transaction %s: %w", *stored.ExternalTransactionID, err)
	}
	s.log.Info("order already reconciled by webhook",
		zap.String("order_id", orderID.String()),
		zap.String("transaction_id", txn.ID),
		zap.String("status", string(stored.Status)))
	return stored.Status, nil
}

func (s *checkoutService) discardDraft(ctx context.Context, orderID uuid.UUID, transactionID string) {
	err := s.orders.DiscardDraft(context.WithoutCancel(ctx), orderID)
	if err != nil && !errors.Is(err, repositories.ErrDraftNotFound) {
		s.log.Error("could not discard draft order",
			zap.String("order_id", orderID.String()),
			zap.String("transaction_id", transactionID),
			zap.Error(err))
	}
}
