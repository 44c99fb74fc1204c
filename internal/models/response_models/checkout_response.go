package response_models

type CheckoutResponse struct {
	OrderID       string `json:"orderId"`
	Status        string `json:"status"`
	QRCode        string `json:"qrCode,omitempty"`
	QRCodeURL     string `json:"qrCodeUrl,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
}

type OrderStatusResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
	Amount        int64  `json:"amount"`
	CreatedAt     int64  `json:"createdAt"`
	// store time, RFC3339
	PlacedAt string `json:"placedAt,omitempty"`
}

type CouponValidationResponse struct {
	Valid              bool   `json:"valid"`
	Code               string `json:"code"`
	DiscountPercentage string `json:"discountPercentage,omitempty"`
	Message            string `json:"message"`
}

type SettlementTransition struct {
	Status    string `json:"status"`
	From      string `json:"from,omitempty"`
	EventID   string `json:"eventId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type SettlementEvent struct {
	EventID     string `json:"eventId,omitempty"`
	EventType   string `json:"eventType"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	ProcessedAt int64  `json:"processedAt"`
}

type OrderSettlementsResponse struct {
	Order       OrderStatusResponse    `json:"order"`
	Transitions []SettlementTransition `json:"transitions"`
	Events      []SettlementEvent      `json:"events"`
}
