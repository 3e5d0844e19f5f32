package enums

import "fmt"

// ShippingOptionName identifies a customer-togglable shipping option.
type ShippingOptionName string

const (
	ShippingOptionReceiptedDelivery  ShippingOptionName = "receiptedDelivery"
	ShippingOptionTransportAssurance ShippingOptionName = "transportAssurance"
)

var validShippingOptionNames = []ShippingOptionName{
	ShippingOptionReceiptedDelivery,
	ShippingOptionTransportAssurance,
}

// String implements fmt.Stringer.
func (s ShippingOptionName) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingOptionName.
func (s ShippingOptionName) IsValid() bool {
	for _, candidate := range validShippingOptionNames {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingOptionName converts raw input into a ShippingOptionName.
func ParseShippingOptionName(value string) (ShippingOptionName, error) {
	for _, candidate := range validShippingOptionNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping option %q", value)
}
