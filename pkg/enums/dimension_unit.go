package enums

import "fmt"

// DimensionUnit is the store-configured unit for product dimensions.
type DimensionUnit string

const (
	DimensionUnitMillimetre DimensionUnit = "mm"
	DimensionUnitCentimetre DimensionUnit = "cm"
	DimensionUnitMetre      DimensionUnit = "m"
	DimensionUnitInch       DimensionUnit = "in"
	DimensionUnitYard       DimensionUnit = "yd"
)

var validDimensionUnits = []DimensionUnit{
	DimensionUnitMillimetre,
	DimensionUnitCentimetre,
	DimensionUnitMetre,
	DimensionUnitInch,
	DimensionUnitYard,
}

// String implements fmt.Stringer.
func (d DimensionUnit) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DimensionUnit.
func (d DimensionUnit) IsValid() bool {
	for _, candidate := range validDimensionUnits {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDimensionUnit converts raw input into a DimensionUnit.
func ParseDimensionUnit(value string) (DimensionUnit, error) {
	for _, candidate := range validDimensionUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dimension unit %q", value)
}
