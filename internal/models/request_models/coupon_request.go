package request_models

type ValidateCouponRequest struct {
	Code      string `json:"code" binding:"required"`
	ProductID string `json:"productId" binding:"required,uuid"`
}
