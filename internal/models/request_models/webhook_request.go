package request_models

// GatewayWebhook is the envelope posted by the payment gateway.
type GatewayWebhook struct {
	ID   string             `json:"id"`
	Type string             `json:"type"`
	Data GatewayWebhookData `json:"data"`
}

type GatewayWebhookData struct {
	Order GatewayWebhookOrder `json:"order"`
}

type GatewayWebhookOrder struct {
	ID     string `json:"id"`
	Code   string `json:"code,omitempty"`
	Status string `json:"status,omitempty"`
}
