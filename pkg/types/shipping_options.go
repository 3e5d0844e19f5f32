package types

import "github.com/angelmondragon/shipquote-backend/pkg/enums"

// ShippingOptions carries the derived optional-service flags attached
// to a package. ReceiptedDelivery and TransportAssurance echo the
// customer's checkbox choices; TailLift is fully derived from weight
// thresholds and the checkout-form company signal.
type ShippingOptions struct {
	ReceiptedDelivery  bool           `json:"receiptedDelivery"`
	TransportAssurance bool           `json:"transportAssurance"`
	TailLift           enums.TailLift `json:"tailLift"`
}
