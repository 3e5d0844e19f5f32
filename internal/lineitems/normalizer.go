// Package lineitems turns cart contents into quoting-ready line items:
// catalog lookup, virtual-product filtering, measurement validation,
// unit conversion, and quantity expansion.
package lineitems

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shipquote-backend/internal/catalog"
	"github.com/angelmondragon/shipquote-backend/internal/units"
	"github.com/angelmondragon/shipquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipquote-backend/pkg/errors"
	"github.com/angelmondragon/shipquote-backend/pkg/types"
)

// CartItem is one cart line as received from the host checkout.
type CartItem struct {
	ProductSKU   string `json:"product_sku" validate:"required"`
	VariationSKU string `json:"variation_sku,omitempty"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
}

// Result is the outcome of normalizing a cart. Exactly one of Items or
// Errors is meaningful: any validation error blocks quoting, so Items
// is discarded the moment Errors is non-empty.
type Result struct {
	Items  []types.LineItem
	Errors []types.ValidationError
}

// OK reports whether the cart normalized cleanly.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Err combines the accumulated validation errors into one error value
// for logging; nil when the cart normalized cleanly.
func (r Result) Err() error {
	var combined error
	for _, ve := range r.Errors {
		combined = multierr.Append(combined, ve)
	}
	return combined
}

// Normalizer resolves cart lines against the catalog and emits metric
// line items.
type Normalizer struct {
	catalog       catalog.Reader
	weightUnit    enums.WeightUnit
	dimensionUnit enums.DimensionUnit
}

// NewNormalizer builds a normalizer for the store's configured units.
func NewNormalizer(reader catalog.Reader, weightUnit enums.WeightUnit, dimensionUnit enums.DimensionUnit) (*Normalizer, error) {
	if reader == nil {
		return nil, fmt.Errorf("catalog reader is required")
	}
	if !weightUnit.IsValid() {
		return nil, fmt.Errorf("invalid weight unit %q", weightUnit)
	}
	if !dimensionUnit.IsValid() {
		return nil, fmt.Errorf("invalid dimension unit %q", dimensionUnit)
	}
	return &Normalizer{
		catalog:       reader,
		weightUnit:    weightUnit,
		dimensionUnit: dimensionUnit,
	}, nil
}

// Normalize expands the cart into per-unit line items. Validation
// defects accumulate across the whole cart rather than aborting on the
// first one; infrastructure failures return an error immediately.
func (n *Normalizer) Normalize(ctx context.Context, cart []CartItem) (Result, error) {
	var result Result

	for _, line := range cart {
		ref := line.ProductSKU
		if line.VariationSKU != "" {
			ref = line.VariationSKU
		}

		if line.Quantity <= 0 {
			result.Errors = append(result.Errors, types.ValidationError{
				ProductRef: ref,
				Field:      "quantity",
				Message:    fmt.Sprintf("product %s has a non-positive quantity", ref),
			})
			continue
		}

		attrs, err := n.resolve(ctx, line)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				result.Errors = append(result.Errors, types.ValidationError{
					ProductRef: ref,
					Field:      "sku",
					Message:    fmt.Sprintf("product %s is not in the catalog", ref),
				})
				continue
			}
			return Result{}, err
		}

		if attrs.Virtual {
			continue
		}

		defects := validateMeasurements(attrs)
		if len(defects) > 0 {
			result.Errors = append(result.Errors, defects...)
			continue
		}

		item, err := n.convert(attrs)
		if err != nil {
			return Result{}, err
		}
		for i := 0; i < line.Quantity; i++ {
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Errors) > 0 {
		result.Items = nil
	}
	return result, nil
}

func (n *Normalizer) resolve(ctx context.Context, line CartItem) (catalog.ShippingAttributes, error) {
	if line.VariationSKU != "" {
		variation, parent, err := n.catalog.GetVariationBySKU(ctx, line.VariationSKU)
		if err != nil {
			return catalog.ShippingAttributes{}, err
		}
		return catalog.ForVariation(*variation, *parent), nil
	}
	product, err := n.catalog.GetProductBySKU(ctx, line.ProductSKU)
	if err != nil {
		return catalog.ShippingAttributes{}, err
	}
	return catalog.ForProduct(*product), nil
}

func validateMeasurements(attrs catalog.ShippingAttributes) []types.ValidationError {
	var defects []types.ValidationError

	check := func(field string, value *float64) {
		switch {
		case value == nil:
			defects = append(defects, types.ValidationError{
				ProductRef: attrs.Ref,
				Field:      field,
				Message:    fmt.Sprintf("product %s is missing a %s", attrs.Ref, field),
			})
		case *value <= 0:
			defects = append(defects, types.ValidationError{
				ProductRef: attrs.Ref,
				Field:      field,
				Message:    fmt.Sprintf("product %s has a non-positive %s", attrs.Ref, field),
			})
		}
	}

	check("weight", attrs.Weight)
	check("length", attrs.Length)
	check("width", attrs.Width)
	check("height", attrs.Height)
	return defects
}

func (n *Normalizer) convert(attrs catalog.ShippingAttributes) (types.LineItem, error) {
	weight, err := units.ToKilograms(*attrs.Weight, n.weightUnit)
	if err != nil {
		return types.LineItem{}, err
	}
	length, err := units.ToCentimetres(*attrs.Length, n.dimensionUnit)
	if err != nil {
		return types.LineItem{}, err
	}
	width, err := units.ToCentimetres(*attrs.Width, n.dimensionUnit)
	if err != nil {
		return types.LineItem{}, err
	}
	height, err := units.ToCentimetres(*attrs.Height, n.dimensionUnit)
	if err != nil {
		return types.LineItem{}, err
	}
	return types.LineItem{
		Description: attrs.Description,
		Length:      length,
		Width:       width,
		Height:      height,
		Weight:      weight,
	}, nil
}
