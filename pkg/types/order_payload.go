package types

import "github.com/shopspring/decimal"

// OrderPackagePayload is the package-shaped block attached to outbound
// order webhooks and REST order objects so the remote backend can tie
// the order back to its shipping context.
//
// Contents holds normalized LineItems when the order's line items pass
// validation and the raw line-item payload otherwise; the remote side
// accepts both shapes.
type OrderPackagePayload struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	WebhookSource   string          `json:"webhook_source"`
	ViewOrderLink   string          `json:"view_order_link"`
	Destination     Destination     `json:"destination"`
	ShippingTotal   decimal.Decimal `json:"shipping_total"`
	ShippingOptions ShippingOptions `json:"shipping_options"`
	Contents        any             `json:"contents,omitempty"`
}
