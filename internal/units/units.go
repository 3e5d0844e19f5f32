// Package units converts store-configured measurement units into the
// canonical metric units the quoting backend expects: centimetres for
// dimensions and kilograms for weights.
package units

import (
	"fmt"

	"github.com/angelmondragon/shipquote-backend/pkg/enums"
)

var dimensionToCentimetres = map[enums.DimensionUnit]float64{
	enums.DimensionUnitMillimetre: 0.1,
	enums.DimensionUnitCentimetre: 1,
	enums.DimensionUnitMetre:      100,
	enums.DimensionUnitInch:       2.54,
	enums.DimensionUnitYard:       91.44,
}

var weightToKilograms = map[enums.WeightUnit]float64{
	enums.WeightUnitGram:     0.001,
	enums.WeightUnitKilogram: 1,
	enums.WeightUnitPound:    0.45359237,
	enums.WeightUnitOunce:    0.028349523125,
}

// ToCentimetres converts a dimension expressed in the given unit.
func ToCentimetres(value float64, unit enums.DimensionUnit) (float64, error) {
	factor, ok := dimensionToCentimetres[unit]
	if !ok {
		return 0, fmt.Errorf("invalid dimension unit %q", unit)
	}
	return value * factor, nil
}

// ToKilograms converts a weight expressed in the given unit.
func ToKilograms(value float64, unit enums.WeightUnit) (float64, error) {
	factor, ok := weightToKilograms[unit]
	if !ok {
		return 0, fmt.Errorf("invalid weight unit %q", unit)
	}
	return value * factor, nil
}
