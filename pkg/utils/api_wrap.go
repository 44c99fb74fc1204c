package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, reason, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Reason:  reason,
		Message: message,
		TraceID: traceID(c),
	})
}

// ErrorStatus maps a service error onto its HTTP status and machine readable reason.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrInvalidProduct):
		return http.StatusBadRequest, "invalid_product"
	case errors.Is(err, ErrMissingPaymentData):
		return http.StatusBadRequest, "missing_payment_data"
	case errors.Is(err, ErrUnsupportedPaymentMethod):
		return http.StatusBadRequest, "unsupported_payment_method"
	case errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrGatewayResponseIncomplete):
		return http.StatusInternalServerError, "gateway_response_incomplete"
	case errors.Is(err, ErrGateway):
		return http.StatusInternalServerError, "gateway_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func HandleServiceError(c *gin.Context, log *zap.Logger, err error) {
	code, reason := ErrorStatus(err)

	message := err.Error()
	if code == http.StatusInternalServerError && !errors.Is(err, ErrGateway) {
		// gateway messages are surfaced, storage details are not
		log.Error("request failed",
			zap.String("trace_id", traceID(c)),
			zap.String("reason", reason),
			zap.Error(err))
		message = "Internal server error"
	} else {
		log.Warn("request rejected",
			zap.String("trace_id", traceID(c)),
			zap.String("reason", reason),
			zap.Error(err))
	}

	RespondError(c, code, reason, message)
}
