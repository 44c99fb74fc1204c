package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/infra/testdb"
	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/gateway"
)

const platformRecipient = "rp_platform"

type fixture struct {
	db         *gorm.DB
	products   repositories.ProductRepository
	coupons    repositories.CouponRepository
	affiliates repositories.AffiliateRepository
	customers  repositories.CustomerRepository
	orders     repositories.OrderRepository
	events     repositories.WebhookEventRepository
	log        *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)
	return &fixture{
		db:         db,
		products:   repositories.NewProductRepository(db),
		coupons:    repositories.NewCouponRepository(db),
		affiliates: repositories.NewAffiliateRepository(db),
		customers:  repositories.NewCustomerRepository(db),
		orders:     repositories.NewOrderRepository(db),
		events:     repositories.NewWebhookEventRepository(db),
		log:        zap.NewNop(),
	}
}

func (f *fixture) product(t *testing.T, name string, amount int64) *db_models.Product {
	t.Helper()
	p := &db_models.Product{Name: name, Active: true, ProductType: "course"}
	require.NoError(t, f.db.Create(p).Error)
	require.NoError(t, f.db.Create(&db_models.Price{ProductID: p.ID, Amount: amount, Active: true}).Error)
	return p
}

func (f *fixture) deactivate(t *testing.T, p *db_models.Product) {
	t.Helper()
	require.NoError(t, f.db.Model(p).Update("active", false).Error)
}

func (f *fixture) splitConfiguration(t *testing.T, p *db_models.Product, recipients ...db_models.SplitRecipient) *db_models.SplitConfiguration {
	t.Helper()
	cfg := &db_models.SplitConfiguration{Name: p.Name + " split", Active: true}
	require.NoError(t, f.db.Create(cfg).Error)
	for i := range recipients {
		recipients[i].SplitConfigurationID = cfg.ID
		recipients[i].Position = i
		require.NoError(t, f.db.Create(&recipients[i]).Error)
	}
	require.NoError(t, f.db.Model(p).Update("split_configuration_id", cfg.ID).Error)
	cfg.Recipients = recipients
	return cfg
}

func (f *fixture) affiliate(t *testing.T, recipientID, commission string) *db_models.Affiliate {
	t.Helper()
	user := &db_models.User{Name: "Affiliate " + recipientID, Email: recipientID + "@example.com"}
	require.NoError(t, f.db.Create(user).Error)
	a := &db_models.Affiliate{
		UserID:      user.ID,
		Commission:  decimal.RequireFromString(commission),
		Active:      true,
		RecipientID: recipientID,
	}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *fixture) coupon(t *testing.T, code string, productIDs ...string) *db_models.Coupon {
	t.Helper()
	c := &db_models.Coupon{
		Code:               code,
		Active:             true,
		DiscountPercentage: decimal.NewFromInt(10),
		ProductIDs:         productIDs,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *fixture) reloadCoupon(t *testing.T, id any) db_models.Coupon {
	t.Helper()
	var c db_models.Coupon
	require.NoError(t, f.db.First(&c, "id = ?", id).Error)
	return c
}

func (f *fixture) reloadAffiliate(t *testing.T, id any) db_models.Affiliate {
	t.Helper()
	var a db_models.Affiliate
	require.NoError(t, f.db.First(&a, "id = ?", id).Error)
	return a
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&db_models.Order{}).Count(&n).Error)
	return n
}

func (f *fixture) checkout(gw PaymentGateway) CheckoutService {
	return NewCheckoutService(
		f.db,
		NewPriceAuthority(f.products, f.log),
		NewCouponService(f.coupons, f.log),
		NewSplitResolver(f.affiliates, platformRecipient, f.log),
		gw,
		f.customers,
		f.orders,
		CheckoutConfig{PhoneCountryCode: "55"},
		f.log,
	)
}

// fakeGateway records charge requests and answers with a canned transaction.
type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.ChargeRequest
	respond  func(req gateway.ChargeRequest) (*gateway.Transaction, error)
}

func (g *fakeGateway) CreateCharge(_ context.Context, req gateway.ChargeRequest) (*gateway.Transaction, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.respond(req)
}

func (g *fakeGateway) last(t *testing.T) gateway.ChargeRequest {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.requests, "gateway was not called")
	return g.requests[len(g.requests)-1]
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func paidCard(id string) *fakeGateway {
	return &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		return &gateway.Transaction{ID: id, Code: req.Code, Status: gateway.StatusPaid}, nil
	}}
}

func pendingPix(id string) *fakeGateway {
	return &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		return &gateway.Transaction{
			ID:     id,
			Code:   req.Code,
			Status: gateway.StatusPending,
			Charges: []gateway.Charge{{
				ID:     "ch_" + id,
				Status: gateway.StatusPending,
				LastTransaction: gateway.LastTransaction{
					ID:        "tran_" + id,
					Status:    "waiting_payment",
					QRCode:    "00020101021226830014br.gov.bcb.pix",
					QRCodeURL: "https://qr.example.com/" + id,
					ExpiresAt: "2026-10-19T15:00:00Z",
				},
			}},
		}, nil
	}}
}
