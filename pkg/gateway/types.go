package gateway

import "encoding/json"

// Transaction statuses reported by the gateway.
const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

type ChargeRequest struct {
	Code     string            `json:"code"`
	Amount   int64             `json:"amount"`
	Customer Customer          `json:"customer"`
	Items    []Item            `json:"items"`
	Payments []Payment         `json:"payments"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Customer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Document     string `json:"document"`
	DocumentType string `json:"document_type"`
	Type         string `json:"type"`
	Phones       Phones `json:"phones"`
}

type Phones struct {
	MobilePhone Phone `json:"mobile_phone"`
}

type Phone struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
}

type Item struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Quantity    int    `json:"quantity"`
}

type Payment struct {
	PaymentMethod string      `json:"payment_method"`
	CreditCard    *CreditCard `json:"credit_card,omitempty"`
	Pix           *Pix        `json:"pix,omitempty"`
	Split         []SplitRule `json:"split,omitempty"`
}

type CreditCard struct {
	Installments        int    `json:"installments"`
	StatementDescriptor string `json:"statement_descriptor,omitempty"`
	Card                Card   `json:"card"`
}

type Card struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVV        string `json:"cvv"`
}

type Pix struct {
	ExpiresIn int64 `json:"expires_in"` // seconds
}

// SplitRule assigns a percentage of the charge to a recipient.
type SplitRule struct {
	Amount      json.Number  `json:"amount"`
	RecipientID string       `json:"recipient_id"`
	Type        string       `json:"type"`
	Options     SplitOptions `json:"options"`
}

type SplitOptions struct {
	Liable              bool `json:"liable"`
	ChargeProcessingFee bool `json:"charge_processing_fee"`
	ChargeRemainderFee  bool `json:"charge_remainder_fee"`
}

type Transaction struct {
	ID      string   `json:"id"`
	Code    string   `json:"code"`
	Status  string   `json:"status"`
	Charges []Charge `json:"charges"`
}

type Charge struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	LastTransaction LastTransaction `json:"last_transaction"`
}

type LastTransaction struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	QRCode    string `json:"qr_code,omitempty"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// PixPayload returns the first charge's QR data.
func (t *Transaction) PixPayload() (LastTransaction, bool) {
	if t == nil || len(t.Charges) == 0 {
		return LastTransaction{}, false
	}
	lt := t.Charges[0].LastTransaction
	return lt, lt.QRCode != "" && lt.QRCodeURL != ""
}
