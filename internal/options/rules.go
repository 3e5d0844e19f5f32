// Package options derives the optional-service flags attached to a
// package from merchant settings, customer choices, and package shape.
package options

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

// Tail-lift on the delivery leg only kicks in above this weight, in kg.
const deliveryTailLiftThreshold = 30.0

// Inputs carries everything the rule engine needs for one derivation.
// NoCompanySignal is resolved at the API boundary: it is true when the
// checkout form indicates a residential delivery (no company name on
// the relevant address block).
type Inputs struct {
	Settings        types.MerchantSettings
	CartTotal       decimal.Decimal
	MaxItemWeight   float64
	NoCompanySignal bool

	ReceiptedDeliveryChoice  enums.OptionChoice
	TransportAssuranceChoice enums.OptionChoice
}

// Derive resolves the shipping options for a package.
//
// Included services are always on and disabled services always off
// regardless of the stored customer choice; only optional services
// consult it. Transport assurance additionally requires the cart total
// to reach the merchant's minimum.
func Derive(in Inputs) types.ShippingOptions {
	return types.ShippingOptions{
		ReceiptedDelivery:  deriveReceiptedDelivery(in),
		TransportAssurance: deriveTransportAssurance(in),
		TailLift:           deriveTailLift(in),
	}
}

func deriveReceiptedDelivery(in Inputs) bool {
	switch in.Settings.ReceiptedDelivery {
	case enums.ServiceLevelIncluded:
		return true
	case enums.ServiceLevelOptional:
		return in.ReceiptedDeliveryChoice.Bool()
	default:
		return false
	}
}

func deriveTransportAssurance(in Inputs) bool {
	switch in.Settings.TransportAssurance {
	case enums.ServiceLevelIncluded:
		return true
	case enums.ServiceLevelOptional:
		return in.Settings.TransportAssuranceOffered(in.CartTotal) &&
			in.TransportAssuranceChoice.Bool()
	default:
		return false
	}
}

func deriveTailLift(in Inputs) enums.TailLift {
	delivery := in.Settings.ForceTailLiftDelivery &&
		in.MaxItemWeight > deliveryTailLiftThreshold &&
		in.NoCompanySignal

	pickup := in.Settings.TailLiftPickup > 0 &&
		in.MaxItemWeight > in.Settings.TailLiftPickup

	return enums.Combine(pickup, delivery)
}

// Visibility reports which option checkboxes the storefront should
// render for the current settings and cart total.
type Visibility struct {
	ReceiptedDelivery  bool `json:"receipted_delivery"`
	TransportAssurance bool `json:"transport_assurance"`
}

// VisibleCheckboxes computes the storefront checkbox visibility.
func VisibleCheckboxes(settings types.MerchantSettings, cartTotal decimal.Decimal) Visibility {
	return Visibility{
		ReceiptedDelivery:  settings.ReceiptedDeliveryOffered(),
		TransportAssurance: settings.TransportAssuranceOffered(cartTotal),
	}
}
