package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/models/request_models"
	"storefront/internal/services"
	"storefront/pkg/utils"
)

type CouponController struct {
	couponService services.CouponService
	log           *zap.Logger
}

func NewCouponController(couponService services.CouponService, log *zap.Logger) *CouponController {
	return &CouponController{
		couponService: couponService,
		log:           log,
	}
}

// ValidateCoupon godoc
// @Summary Check whether a coupon applies to a product
// @Tags Coupons
// @Accept json
// @Produce json
// @Param request body request_models.ValidateCouponRequest true "Validate Coupon Request"
// @Success 200 {object} utils.APIResponse
// @Router /coupons/validate [post]
func (cc *CouponController) ValidateCoupon(c *gin.Context) {
	var request request_models.ValidateCouponRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request payload")
		return
	}
	productID, err := uuid.Parse(request.ProductID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid product id")
		return
	}

	resp, err := cc.couponService.Validate(c.Request.Context(), request.Code, productID)
	if err != nil {
		utils.HandleServiceError(c, cc.log, err)
		return
	}

	utils.RespondSuccess(c, resp, resp.Message)
}
