package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/models/db_models"
	"storefront/pkg/gateway"
	"storefront/pkg/utils"
)

// PaymentGateway creates charges at the payment provider. Implementations carry their own timeout.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Transaction, error)
}

// MapGatewayStatus folds the gateway's order status into the local order states.
func MapGatewayStatus(status string) db_models.OrderStatus {
	switch strings.ToLower(status) {
	case gateway.StatusPaid:
		return db_models.OrderStatusPaid
	case gateway.StatusFailed, gateway.StatusCanceled:
		return db_models.OrderStatusFailed
	default:
		return db_models.OrderStatusPending
	}
}

func toGatewaySplit(rules []SplitRule) []gateway.SplitRule {
	if len(rules) == 0 {
		return nil
	}
	out := make([]gateway.SplitRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, gateway.SplitRule{
			Amount:      json.Number(r.Percentage.String()),
			RecipientID: r.RecipientID,
			Type:        "percentage",
			Options: gateway.SplitOptions{
				Liable:              r.Liable,
				ChargeProcessingFee: r.ChargeProcessingFee,
				ChargeRemainderFee:  r.ChargeRemainderFee,
			},
		})
	}
	return out
}

type addonMetadata struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// chargeMetadata is attached to the charge for reconciliation and reporting downstream.
func chargeMetadata(order *db_models.Order, main *ResolvedProduct, addons []ResolvedProduct, affiliateRef string) map[string]string {
	meta := map[string]string{
		"order_id":     order.ID.String(),
		"product_id":   main.Product.ID.String(),
		"product_type": main.Product.ProductType,
	}
	if affiliateRef != "" {
		meta["affiliate_ref"] = affiliateRef
	}
	if len(addons) > 0 {
		desc := make([]addonMetadata, 0, len(addons))
		for _, a := range addons {
			desc = append(desc, addonMetadata{ID: a.Product.ID.String(), Name: a.Product.Name, Price: a.Price})
		}
		if b, err := json.Marshal(desc); err == nil {
			meta["addons"] = string(b)
		}
	}
	return meta
}

// chargeItems lists one item per order line, or a single summary item when the client
// supplied a total that differs from the line sum (coupon applied).
func chargeItems(order *db_models.Order, main *ResolvedProduct) []gateway.Item {
	var subtotal int64
	for _, it := range order.Items {
		subtotal += it.Price * int64(it.Quantity)
	}
	if subtotal == order.Amount {
		items := make([]gateway.Item, 0, len(order.Items))
		for _, it := range order.Items {
			items = append(items, gateway.Item{
				Code:        it.ProductID.String(),
				Description: it.Name,
				Amount:      it.Price,
				Quantity:    it.Quantity,
			})
		}
		return items
	}

	desc := main.Product.Name
	if extra := len(order.Items) - 1; extra > 0 {
		desc = fmt.Sprintf("%s (+%d add-ons)", desc, extra)
	}
	return []gateway.Item{{
		Code:        main.Product.ID.String(),
		Description: desc,
		Amount:      order.Amount,
		Quantity:    1,
	}}
}

func gatewayCustomer(c *db_models.Customer, countryCode string) gateway.Customer {
	phone := utils.SplitPhone(c.Phone, countryCode)
	docType := utils.DocumentType(c.Document)
	gwDocType := "CPF"
	if docType == "company" {
		gwDocType = "CNPJ"
	}
	return gateway.Customer{
		Name:         c.Name,
		Email:        c.Email,
		Document:     c.Document,
		DocumentType: gwDocType,
		Type:         docType,
		Phones: gateway.Phones{MobilePhone: gateway.Phone{
			CountryCode: phone.CountryCode,
			AreaCode:    phone.AreaCode,
			Number:      phone.Number,
		}},
	}
}
