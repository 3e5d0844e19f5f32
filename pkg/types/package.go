package types

// Package is the full shippable-cart representation posted to the
// remote quoting service. It is built fresh per quoting call and never
// persisted beyond the transaction, though ShippingOptions is mirrored
// into the customer session for display and order metadata.
type Package struct {
	ID              string          `json:"id"`
	Contents        []LineItem      `json:"contents"`
	Destination     Destination     `json:"destination"`
	MaxItemWeight   float64         `json:"max_item_weight"`
	ShippingOptions ShippingOptions `json:"shipping_options"`
}
