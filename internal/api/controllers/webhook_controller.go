package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/services"
	"storefront/pkg/utils"
)

const maxWebhookBody = 1 << 20

type WebhookController struct {
	webhookService  services.WebhookService
	signatureHeader string
	log             *zap.Logger
}

func NewWebhookController(webhookService services.WebhookService, signatureHeader string, log *zap.Logger) *WebhookController {
	return &WebhookController{
		webhookService:  webhookService,
		signatureHeader: signatureHeader,
		log:             log,
	}
}

// HandleGatewayEvent authenticates against the raw body, so it must be read before any binding.
func (w *WebhookController) HandleGatewayEvent(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid_request", "Could not read request body")
		return
	}

	result, err := w.webhookService.Handle(c.Request.Context(), body, c.GetHeader(w.signatureHeader))
	if err != nil {
		utils.HandleServiceError(c, w.log, err)
		return
	}

	utils.RespondSuccess(c, gin.H{
		"outcome": result.Outcome,
		"status":  result.Status,
	}, "Webhook received")
}
