package catalog

import (
	"github.com/angelmondragon/shipquote-backend/pkg/db/models"
)

// ShippingAttributes is the unit-agnostic shipping view of a sellable
// item: raw store-unit measurements plus the descriptive fields the
// quoting payload needs. Nil measurements mean the merchant never
// entered a value.
type ShippingAttributes struct {
	Ref         string
	Description string
	Virtual     bool
	Weight      *float64
	Length      *float64
	Width       *float64
	Height      *float64
}

// HasAllMeasurements reports whether every shipping measurement is present.
func (a ShippingAttributes) HasAllMeasurements() bool {
	return a.Weight != nil && a.Length != nil && a.Width != nil && a.Height != nil
}

// ForProduct extracts the shipping attributes of a simple product.
func ForProduct(product models.Product) ShippingAttributes {
	return ShippingAttributes{
		Ref:         product.SKU,
		Description: classDescription(product),
		Virtual:     product.Virtual,
		Weight:      product.Weight,
		Length:      product.Length,
		Width:       product.Width,
		Height:      product.Height,
	}
}

// ForVariation extracts the shipping attributes of a variation. When
// any measurement is missing on the variation the parent's full set of
// measurements is used instead; partial blends of variation and parent
// values would quote a box that exists in neither record.
func ForVariation(variation models.ProductVariation, parent models.Product) ShippingAttributes {
	attrs := ShippingAttributes{
		Ref:         variation.SKU,
		Description: classDescription(parent),
		Virtual:     parent.Virtual,
		Weight:      variation.Weight,
		Length:      variation.Length,
		Width:       variation.Width,
		Height:      variation.Height,
	}
	if !attrs.HasAllMeasurements() {
		attrs.Weight = parent.Weight
		attrs.Length = parent.Length
		attrs.Width = parent.Width
		attrs.Height = parent.Height
	}
	return attrs
}

func classDescription(product models.Product) string {
	if product.ShippingClass == nil {
		return ""
	}
	return product.ShippingClass.Name
}
