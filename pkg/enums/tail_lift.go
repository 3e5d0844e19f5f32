package enums

import "fmt"

// TailLift describes which legs of a shipment need tail-lift equipment.
type TailLift string

const (
	TailLiftNone     TailLift = "NONE"
	TailLiftPickup   TailLift = "PICKUP"
	TailLiftDelivery TailLift = "DELIVERY"
	TailLiftBoth     TailLift = "BOTH"
)

var validTailLifts = []TailLift{
	TailLiftNone,
	TailLiftPickup,
	TailLiftDelivery,
	TailLiftBoth,
}

// String implements fmt.Stringer.
func (t TailLift) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TailLift.
func (t TailLift) IsValid() bool {
	for _, candidate := range validTailLifts {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTailLift converts raw input into a TailLift.
func ParseTailLift(value string) (TailLift, error) {
	for _, candidate := range validTailLifts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tail lift %q", value)
}

// Combine resolves the pickup/delivery flags into a single TailLift value.
func Combine(pickup, delivery bool) TailLift {
	switch {
	case pickup && delivery:
		return TailLiftBoth
	case delivery:
		return TailLiftDelivery
	case pickup:
		return TailLiftPickup
	default:
		return TailLiftNone
	}
}
