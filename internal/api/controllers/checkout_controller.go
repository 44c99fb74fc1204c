package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/models/request_models"
	"storefront/internal/services"
	"storefront/pkg/utils"
)

type CheckoutController struct {
	checkoutService services.CheckoutService
	log             *zap.Logger
}

func NewCheckoutController(checkoutService services.CheckoutService, log *zap.Logger) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		log:             log,
	}
}

// Checkout godoc
// @Summary Create an order and charge it at the gateway
// @Description Price is checked against the catalog; PIX answers carry the QR code to pay.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body request_models.CheckoutRequest true "Checkout Request"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /checkout [post]
func (cc *CheckoutController) Checkout(c *gin.Context) {
	var request request_models.CheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request payload")
		return
	}

	resp, err := cc.checkoutService.Checkout(c.Request.Context(), request)
	if err != nil {
		utils.HandleServiceError(c, cc.log, err)
		return
	}

	utils.RespondSuccess(c, resp, "Order created successfully")
}
