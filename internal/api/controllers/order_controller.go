package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/services"
	"storefront/pkg/utils"
)

type OrderController struct {
	orderService services.OrderService
	log          *zap.Logger
}

func NewOrderController(orderService services.OrderService, log *zap.Logger) *OrderController {
	return &OrderController{
		orderService: orderService,
		log:          log,
	}
}

func (o *OrderController) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid order id")
		return uuid.Nil, false
	}
	return id, true
}

// GetOrderStatus godoc
// @Summary Poll an order's payment status
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /orders/{id} [get]
func (o *OrderController) GetOrderStatus(c *gin.Context) {
	id, ok := o.orderID(c)
	if !ok {
		return
	}

	status, err := o.orderService.GetStatus(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, o.log, err)
		return
	}

	utils.RespondSuccess(c, status, "Order status retrieved successfully")
}

// GetSettlements godoc
// @Summary Settlement ledger and webhook log of an order
// @Tags Admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/orders/{id}/settlements [get]
func (o *OrderController) GetSettlements(c *gin.Context) {
	id, ok := o.orderID(c)
	if !ok {
		return
	}

	settlements, err := o.orderService.GetSettlements(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, o.log, err)
		return
	}

	utils.RespondSuccess(c, settlements, "Settlements retrieved successfully")
}
