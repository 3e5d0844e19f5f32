package types

// LineItem is one physical unit of a shippable product in canonical
// metric units (cm, kg). Quantities are expanded upstream, so a cart
// line with quantity three yields three identical LineItems.
type LineItem struct {
	Description string  `json:"description"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Weight      float64 `json:"weight"`
}

// ValidationError records a shipping-relevant defect on a product.
// Errors are accumulated rather than thrown; a non-empty set blocks
// quoting entirely.
type ValidationError struct {
	ProductRef string `json:"product_ref"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (v ValidationError) Error() string {
	return v.Message
}
