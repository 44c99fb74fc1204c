package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/api/controllers"
	"storefront/internal/config"
	"storefront/internal/infra/testdb"
	"storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/gateway"
	mem "storefront/pkg/memcache"
	"storefront/pkg/utils"
)

const (
	testWebhookSecret = "whsec_router"
	testJWTSecret     = "jwt_router"
)

type stubGateway struct{}

func (stubGateway) CreateCharge(_ context.Context, req gateway.ChargeRequest) (*gateway.Transaction, error) {
	return &gateway.Transaction{
		ID:     "or_http",
		Code:   req.Code,
		Status: gateway.StatusPending,
		Charges: []gateway.Charge{{LastTransaction: gateway.LastTransaction{
			QRCode:    "pix-code",
			QRCodeURL: "https://qr.example.com/or_http",
			ExpiresAt: "2026-10-19T15:00:00Z",
		}}},
	}, nil
}

type testServer struct {
	handler http.Handler
	product *db_models.Product
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	db := testdb.New(t)
	log := zap.NewNop()
	cfg := &config.Config{
		WebhookSecret:          testWebhookSecret,
		WebhookSignatureHeader: "X-Hub-Signature",
		JWTSecret:              testJWTSecret,
		PlatformRecipientID:    "rp_platform",
	}

	products := repositories.NewProductRepository(db)
	coupons := repositories.NewCouponRepository(db)
	affiliates := repositories.NewAffiliateRepository(db)
	customers := repositories.NewCustomerRepository(db)
	orders := repositories.NewOrderRepository(db)
	events := repositories.NewWebhookEventRepository(db)
	couponService := services.NewCouponService(coupons, log)

	checkout := services.NewCheckoutService(db,
		services.NewPriceAuthority(products, log),
		couponService,
		services.NewSplitResolver(affiliates, cfg.PlatformRecipientID, log),
		stubGateway{}, customers, orders,
		services.CheckoutConfig{PhoneCountryCode: "55"}, log)
	webhooks := services.NewWebhookService(db, cfg.WebhookSecret, orders, coupons, affiliates, events, log)
	orderService := services.NewOrderService(orders, events)

	router := NewRouter(RouterParams{
		Config:   cfg,
		Log:      log,
		Limiter:  mem.NewLocalLimiter(mem.Policy{PerMinute: 1, Burst: burst}),
		Checkout: controllers.NewCheckoutController(checkout, log),
		Webhook:  controllers.NewWebhookController(webhooks, cfg.WebhookSignatureHeader, log),
		Orders:   controllers.NewOrderController(orderService, log),
		Coupons:  controllers.NewCouponController(couponService, log),
		Health:   controllers.NewHealthController(db),
	})

	p := &db_models.Product{Name: "Go Course", Active: true}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Create(&db_models.Price{ProductID: p.ID, Amount: 10000, Active: true}).Error)

	return &testServer{handler: router, product: p}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, headers map[string]string) (*httptest.ResponseRecorder, utils.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp utils.APIResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func (s *testServer) checkoutBody(t *testing.T, price int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"productId":     s.product.ID.String(),
		"price":         price,
		"paymentMethod": "pix",
		"customer": map[string]string{
			"name":     "Maria",
			"email":    "maria@example.com",
			"document": "123.456.789-09",
			"phone":    "11987654321",
		},
	})
	require.NoError(t, err)
	return body
}

func orderIDFrom(t *testing.T, resp utils.APIResponse) string {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "unexpected data %#v", resp.Data)
	id, _ := data["orderId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCheckoutAndPoll(t *testing.T) {
	s := newTestServer(t, 10)

	rec, resp := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 10000), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
	orderID := orderIDFrom(t, resp)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pix-code", data["qrCode"])
	assert.Equal(t, "pending", data["status"])

	rec, resp = s.do(t, http.MethodGet, "/orders/"+orderID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", resp.Data.(map[string]any)["status"])

	rec, resp = s.do(t, http.MethodGet, "/orders/00000000-0000-0000-0000-000000000001", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order_not_found", resp.Reason)

	rec, _ = s.do(t, http.MethodGet, "/orders/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_PriceMismatchIs400(t *testing.T) {
	s := newTestServer(t, 10)

	rec, resp := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 1), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product", resp.Reason)

	rec, resp = s.do(t, http.MethodPost, "/checkout", []byte(`{"price":"x"}`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", resp.Reason)
}

func TestCheckout_RateLimited(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 1), nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec, resp := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 10000), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", resp.Reason)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestWebhookStatuses(t *testing.T) {
	s := newTestServer(t, 10)
	_, resp := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 10000), nil)
	orderID := orderIDFrom(t, resp)

	body := []byte(`{"id":"evt_1","type":"order.paid","data":{"order":{"id":"or_http","status":"paid"}}}`)
	signed := map[string]string{"X-Hub-Signature": "sha256=" + utils.SignBody(testWebhookSecret, body)}

	rec, _ := s.do(t, http.MethodPost, "/webhooks/gateway", body, map[string]string{"X-Hub-Signature": "sha256=00"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/webhooks/gateway", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	bad := []byte(`{"id":`)
	rec, _ = s.do(t, http.MethodPost, "/webhooks/gateway", bad, map[string]string{"X-Hub-Signature": utils.SignBody(testWebhookSecret, bad)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		rec, _ = s.do(t, method, "/webhooks/gateway", body, signed)
		assert.Equal(t, http.StatusOK, rec.Code, method)
	}

	_, resp = s.do(t, http.MethodGet, "/orders/"+orderID, nil, nil)
	assert.Equal(t, "paid", resp.Data.(map[string]any)["status"])
}

func TestAdminSettlementsRequireAdminToken(t *testing.T) {
	s := newTestServer(t, 10)
	_, resp := s.do(t, http.MethodPost, "/checkout", s.checkoutBody(t, 10000), nil)
	path := "/admin/orders/" + orderIDFrom(t, resp) + "/settlements"

	rec, _ := s.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer, err := utils.CreateToken(testJWTSecret, "user-1", "viewer", time.Minute)
	require.NoError(t, err)
	rec, _ = s.do(t, http.MethodGet, path, nil, map[string]string{"Authorization": "Bearer " + viewer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := utils.CreateToken(testJWTSecret, "user-2", "admin", time.Minute)
	require.NoError(t, err)
	rec, resp = s.do(t, http.MethodGet, path, nil, map[string]string{"Authorization": "Bearer " + admin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, resp.Data.(map[string]any), "transitions")
}

func TestCouponValidateAndHealth(t *testing.T) {
	s := newTestServer(t, 10)

	body, err := json.Marshal(map[string]string{"code": "nope", "productId": s.product.ID.String()})
	require.NoError(t, err)
	rec, resp := s.do(t, http.MethodPost, "/coupons/validate", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coupon_not_found", resp.Message)

	rec, _ = s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodOptions, "/checkout", nil, map[string]string{"Origin": "https://shop.example.com"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
