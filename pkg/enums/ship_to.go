package enums

import "fmt"

// ShipTo selects which customer profile supplies the package destination.
type ShipTo string

const (
	ShipToBilling     ShipTo = "billing"
	ShipToBillingOnly ShipTo = "billing_only"
	ShipToShipping    ShipTo = "shipping"
)

var validShipTos = []ShipTo{
	ShipToBilling,
	ShipToBillingOnly,
	ShipToShipping,
}

// String implements fmt.Stringer.
func (s ShipTo) String() string {
	return string(s)
}

// UsesBilling reports whether the destination comes from the billing profile.
func (s ShipTo) UsesBilling() bool {
	return s == ShipToBilling || s == ShipToBillingOnly
}

// IsValid reports whether the value is a known ShipTo.
func (s ShipTo) IsValid() bool {
	for _, candidate := range validShipTos {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipTo converts raw input into a ShipTo.
func ParseShipTo(value string) (ShipTo, error) {
	for _, candidate := range validShipTos {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ship-to destination %q", value)
}
