package request_models

type CheckoutRequest struct {
	ProductID     string        `json:"productId" binding:"required,uuid"`
	Price         int64         `json:"price" binding:"required,gt=0"`
	Customer      CustomerInput `json:"customer" binding:"required"`
	PaymentMethod string        `json:"paymentMethod" binding:"required"`
	Card          *CardInput    `json:"card,omitempty"`
	Installments  int           `json:"installments,omitempty" binding:"omitempty,min=1,max=12"`
	AffiliateRef  string        `json:"affiliateRef,omitempty"`
	AddonIDs      []string      `json:"addonIds,omitempty" binding:"omitempty,dive,uuid"`
	CouponCode    string        `json:"couponCode,omitempty"`
	TotalAmount   *int64        `json:"totalAmount,omitempty"`
}

type CustomerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Document string `json:"document" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type CardInput struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"` // two digits
	CVV        string `json:"cvv"`
}
