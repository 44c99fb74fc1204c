package utils

import "errors"

var (
	ErrInvalidRequest            = errors.New("invalid request")
	ErrInvalidProduct            = errors.New("invalid product")
	ErrMissingPaymentData        = errors.New("missing card data")
	ErrUnsupportedPaymentMethod  = errors.New("unsupported payment method")
	ErrGateway                   = errors.New("payment gateway error")
	ErrGatewayResponseIncomplete = errors.New("payment gateway response incomplete")
	ErrOrderNotFound             = errors.New("order not found")
	ErrRateLimited               = errors.New("too many checkout attempts")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrDatabaseError             = errors.New("database error")
)
