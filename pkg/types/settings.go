package types

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
)

// MerchantSettings is the remote-managed settings blob that drives the
// shipping-option rule engine. It rides along with quote responses and
// is cached independently of the per-package quote cache.
type MerchantSettings struct {
	ReceiptedDelivery     enums.ServiceLevel `json:"receiptedDelivery"`
	TransportAssurance    enums.ServiceLevel `json:"transportAssurance"`
	TransportAssuranceMin decimal.Decimal    `json:"transportAssuranceMin"`
	ForceTailLiftDelivery bool               `json:"forceTailLiftDelivery"`
	TailLiftPickup        float64            `json:"tailLiftPickup"`
}

// ReceiptedDeliveryOffered reports whether the customer should see the
// receipted-delivery checkbox.
func (m MerchantSettings) ReceiptedDeliveryOffered() bool {
	return m.ReceiptedDelivery == enums.ServiceLevelOptional
}

// TransportAssuranceOffered reports whether the customer should see the
// transport-assurance checkbox for the given cart total.
func (m MerchantSettings) TransportAssuranceOffered(cartTotal decimal.Decimal) bool {
	return m.TransportAssurance == enums.ServiceLevelOptional &&
		m.TransportAssuranceMin.LessThanOrEqual(cartTotal)
}
