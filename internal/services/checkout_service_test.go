package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	"storefront/pkg/gateway"
	"storefront/pkg/utils"
)

func checkoutRequest(p *db_models.Product, price int64, method string) request_models.CheckoutRequest {
	req := request_models.CheckoutRequest{
		ProductID:     p.ID.String(),
		Price:         price,
		PaymentMethod: method,
		Customer: request_models.CustomerInput{
			Name:     "Maria Souza",
			Email:    "maria@example.com",
			Document: "123.456.789-09",
			Phone:    "+55 (11) 98765-4321",
		},
	}
	if method == string(db_models.PaymentMethodCreditCard) {
		req.Card = &request_models.CardInput{
			Number:     "4000 0000 0000 0010",
			HolderName: "MARIA SOUZA",
			ExpMonth:   12,
			ExpYear:    30,
			CVV:        "123",
		}
	}
	return req
}

func TestCheckout_CardWithoutSplit(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := paidCard("or_card_1")

	resp, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "credit_card"))
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
	assert.Empty(t, resp.QRCode)

	req := gw.last(t)
	assert.Equal(t, resp.OrderID, req.Code)
	assert.Equal(t, int64(10000), req.Amount)
	require.Len(t, req.Payments, 1)
	assert.Empty(t, req.Payments[0].Split)
	require.NotNil(t, req.Payments[0].CreditCard)
	assert.Equal(t, 1, req.Payments[0].CreditCard.Installments)
	assert.Equal(t, "4000000000000010", req.Payments[0].CreditCard.Card.Number)
	assert.Equal(t, "12345678909", req.Customer.Document)
	assert.Equal(t, "individual", req.Customer.Type)
	assert.Equal(t, gateway.Phone{CountryCode: "55", AreaCode: "11", Number: "987654321"}, req.Customer.Phones.MobilePhone)

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_card_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, db_models.OrderStatusPaid, order.Status)
	assert.Equal(t, int64(10000), order.Amount)
	assert.Nil(t, order.AffiliateID)
	assert.Nil(t, order.SplitAmount)
}

func TestCheckout_PriceMismatchRejectedForEveryMethod(t *testing.T) {
	for _, method := range []string{"credit_card", "pix"} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t)
			p := f.product(t, "Go Course", 10000)
			gw := paidCard("unused")

			_, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 9999, method))
			assert.ErrorIs(t, err, utils.ErrInvalidProduct)
			assert.Zero(t, gw.calls())
			assert.Zero(t, f.countOrders(t))
		})
	}
}

func TestCheckout_InactiveProduct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Old Course", 5000)
	f.deactivate(t, p)

	_, err := f.checkout(paidCard("unused")).Checkout(context.Background(), checkoutRequest(p, 5000, "pix"))
	assert.ErrorIs(t, err, utils.ErrInvalidProduct)
}

func TestCheckout_PixReturnsRedeemableCode(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := pendingPix("or_pix_1")

	resp, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "pix"))
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "or_pix_1", resp.TransactionID)
	assert.NotEmpty(t, resp.QRCode)
	assert.Equal(t, "https://qr.example.com/or_pix_1", resp.QRCodeURL)
	assert.NotEmpty(t, resp.ExpiresAt)

	req := gw.last(t)
	require.NotNil(t, req.Payments[0].Pix)
	assert.Equal(t, int64(3600), req.Payments[0].Pix.ExpiresIn)
}

func TestCheckout_PixWithoutQRCodeLeavesNoOrder(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		return &gateway.Transaction{ID: "or_broken", Code: req.Code, Status: gateway.StatusPending}, nil
	}}

	_, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "pix"))
	assert.ErrorIs(t, err, utils.ErrGatewayResponseIncomplete)
	assert.Equal(t, 1, gw.calls())
	assert.Zero(t, f.countOrders(t))
}

func TestCheckout_GatewayErrorDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := &fakeGateway{respond: func(gateway.ChargeRequest) (*gateway.Transaction, error) {
		return nil, &gateway.APIError{StatusCode: 422, Message: "card declined"}
	}}

	_, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "credit_card"))
	assert.ErrorIs(t, err, utils.ErrGateway)
	assert.Contains(t, err.Error(), "card declined")
	assert.Zero(t, f.countOrders(t))

	var items int64
	require.NoError(t, f.db.Model(&db_models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCheckout_CardDataRequired(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := paidCard("unused")

	req := checkoutRequest(p, 10000, "credit_card")
	req.Card = nil
	_, err := f.checkout(gw).Checkout(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrMissingPaymentData)

	req = checkoutRequest(p, 10000, "credit_card")
	req.Card.ExpMonth = 13
	_, err = f.checkout(gw).Checkout(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrMissingPaymentData)

	assert.Zero(t, gw.calls())
	assert.Zero(t, f.countOrders(t))
}

func TestCheckout_UnsupportedMethod(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)

	_, err := f.checkout(paidCard("unused")).Checkout(context.Background(), checkoutRequest(p, 10000, "boleto"))
	assert.ErrorIs(t, err, utils.ErrUnsupportedPaymentMethod)
}

func TestCheckout_AffiliateSplit(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	aff := f.affiliate(t, "rp_affiliate", "20")
	gw := paidCard("or_aff")

	req := checkoutRequest(p, 10000, "credit_card")
	req.AffiliateRef = "rp_affiliate"
	resp, err := f.checkout(gw).Checkout(context.Background(), req)
	require.NoError(t, err)

	split := gw.last(t).Payments[0].Split
	require.Len(t, split, 2)
	assert.Equal(t, platformRecipient, split[0].RecipientID)
	assert.Equal(t, "80", split[0].Amount.String())
	assert.True(t, split[0].Options.Liable)
	assert.True(t, split[0].Options.ChargeProcessingFee)
	assert.Equal(t, "rp_affiliate", split[1].RecipientID)
	assert.Equal(t, "20", split[1].Amount.String())
	assert.False(t, split[1].Options.Liable)
	assert.Equal(t, "rp_affiliate", gw.last(t).Metadata["affiliate_ref"])

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_aff")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, resp.OrderID, order.ID.String())
	require.NotNil(t, order.AffiliateID)
	assert.Equal(t, aff.ID, *order.AffiliateID)
	require.NotNil(t, order.SplitAmount)
	assert.Equal(t, int64(2000), *order.SplitAmount)
}

func TestCheckout_ConfiguredSplitWinsOverAffiliate(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	f.affiliate(t, "rp_affiliate", "20")
	f.splitConfiguration(t, p,
		db_models.SplitRecipient{RecipientID: "rp_a", Percentage: decimalOf("70"), Liable: true, ChargeProcessingFee: true, ChargeRemainderFee: true},
		db_models.SplitRecipient{RecipientID: "rp_b", Percentage: decimalOf("30")},
	)
	gw := paidCard("or_cfg")

	req := checkoutRequest(p, 10000, "credit_card")
	req.AffiliateRef = "rp_affiliate"
	_, err := f.checkout(gw).Checkout(context.Background(), req)
	require.NoError(t, err)

	split := gw.last(t).Payments[0].Split
	require.Len(t, split, 2)
	assert.Equal(t, "rp_a", split[0].RecipientID)
	assert.Equal(t, "rp_b", split[1].RecipientID)

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_cfg")
	require.NoError(t, err)
	assert.Nil(t, order.AffiliateID)
}

func TestCheckout_AddonsAndCoupon(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	addon := f.product(t, "Workbook", 2500)
	coupon := f.coupon(t, "launch10", p.ID.String())
	gw := paidCard("or_addons")

	total := int64(11250)
	req := checkoutRequest(p, 10000, "credit_card")
	req.AddonIDs = []string{addon.ID.String(), addon.ID.String(), p.ID.String()}
	req.CouponCode = "Launch10"
	req.TotalAmount = &total
	_, err := f.checkout(gw).Checkout(context.Background(), req)
	require.NoError(t, err)

	charge := gw.last(t)
	assert.Equal(t, total, charge.Amount)
	require.Len(t, charge.Items, 1, "discounted totals are sent as a single item")
	assert.Equal(t, total, charge.Items[0].Amount)
	assert.Contains(t, charge.Metadata["addons"], addon.ID.String())

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_addons")
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 2)
	require.NotNil(t, order.CouponID)
	assert.Equal(t, coupon.ID, *order.CouponID)

	// usage is counted on payment confirmation, not at checkout
	assert.Zero(t, f.reloadCoupon(t, coupon.ID).UsageCount)
}

func TestCheckout_TotalAboveSubtotalRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	gw := paidCard("unused")

	total := int64(10001)
	req := checkoutRequest(p, 10000, "pix")
	req.TotalAmount = &total
	_, err := f.checkout(gw).Checkout(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
	assert.Zero(t, gw.calls())
}

func TestCheckout_InactiveAddonRejected(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	addon := f.product(t, "Workbook", 2500)
	f.deactivate(t, addon)

	req := checkoutRequest(p, 10000, "pix")
	req.AddonIDs = []string{addon.ID.String()}
	_, err := f.checkout(pendingPix("unused")).Checkout(context.Background(), req)
	assert.ErrorIs(t, err, utils.ErrInvalidProduct)
}

func TestCheckout_UnknownCouponIsIgnored(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)

	req := checkoutRequest(p, 10000, "pix")
	req.CouponCode = "NOPE"
	resp, err := f.checkout(pendingPix("or_nocoupon")).Checkout(context.Background(), req)
	require.NoError(t, err)

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_nocoupon")
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, order.ID.String())
	assert.Nil(t, order.CouponID)
}

func TestCheckout_ReusesCustomerByDocument(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	svc := f.checkout(paidCard("or_same"))

	first := checkoutRequest(p, 10000, "credit_card")
	_, err := svc.Checkout(context.Background(), first)
	require.NoError(t, err)

	second := checkoutRequest(p, 10000, "credit_card")
	second.Customer.Document = "12345678909"
	second.Customer.Email = "maria.new@example.com"
	_, err = f.checkout(paidCard("or_same_2")).Checkout(context.Background(), second)
	require.NoError(t, err)

	var customers []db_models.Customer
	require.NoError(t, f.db.Find(&customers).Error)
	require.Len(t, customers, 1)
	assert.Equal(t, "maria.new@example.com", customers[0].Email)

	a, err := f.orders.FindByExternalTransactionID(context.Background(), "or_same")
	require.NoError(t, err)
	b, err := f.orders.FindByExternalTransactionID(context.Background(), "or_same_2")
	require.NoError(t, err)
	assert.Equal(t, a.CustomerID, b.CustomerID)
	assert.Equal(t, customers[0].ID, a.CustomerID)
}

func TestCheckout_GatewayErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	boom := errors.New("connection reset")
	gw := &fakeGateway{respond: func(gateway.ChargeRequest) (*gateway.Transaction, error) { return nil, boom }}

	_, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "pix"))
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrGateway)
}

func TestCheckout_WebhookArrivesBeforeGatewayAnswer(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	webhooks := f.webhooks()
	gw := &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		res := deliver(t, webhooks, webhookBody(t, "evt_early", EventOrderPaid, "or_early", req.Code))
		require.Equal(t, db_models.WebhookOutcomeApplied, res.Outcome)
		return &gateway.Transaction{ID: "or_early", Code: req.Code, Status: gateway.StatusPaid}, nil
	}}

	resp, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "credit_card"))
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)

	order, err := f.orders.FindByExternalTransactionID(context.Background(), "or_early")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, resp.OrderID, order.ID.String())
	assert.Equal(t, db_models.OrderStatusPaid, order.Status)

	transitions, err := f.orders.ListTransitions(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 1)
}

func TestCheckout_PixKeepsStatusSetByEarlyWebhook(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	webhooks := f.webhooks()
	pix := pendingPix("or_pix_early")
	gw := &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		deliver(t, webhooks, webhookBody(t, "evt_paid", EventOrderPaid, "or_pix_early", req.Code))
		return pix.respond(req)
	}}

	resp, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "pix"))
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status, "gateway's pending answer does not move a paid order back")
	assert.NotEmpty(t, resp.QRCode)
	assert.Equal(t, "or_pix_early", resp.TransactionID)
}

func TestCheckout_FinalizeConflictWithOtherTransaction(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Go Course", 10000)
	webhooks := f.webhooks()
	gw := &fakeGateway{respond: func(req gateway.ChargeRequest) (*gateway.Transaction, error) {
		deliver(t, webhooks, webhookBody(t, "evt_other", EventOrderPaid, "or_other", req.Code))
		return &gateway.Transaction{ID: "or_mine", Code: req.Code, Status: gateway.StatusPaid}, nil
	}}

	_, err := f.checkout(gw).Checkout(context.Background(), checkoutRequest(p, 10000, "credit_card"))
	assert.ErrorIs(t, err, utils.ErrDatabaseError)
}
