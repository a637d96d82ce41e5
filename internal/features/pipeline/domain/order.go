package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingType is how an order travels from origin to destination.
type ShippingType string

const (
	// ShippingAir ships by plane and skips the ocean-freight customs leg.
	ShippingAir ShippingType = "air"
	// ShippingMaritime ships by sea.
	ShippingMaritime ShippingType = "maritime"
)

// Order is a single client purchase tracked through the pipeline.
type Order struct {
	// ID is the unique identifier for the order.
	ID int64 `json:"id"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
	// ProductName is the descriptive name of the product.
	ProductName string `json:"product_name"`
	// ClientName is the display name of the client.
	ClientName string `json:"client_name"`
	// ClientID references the client in the intake system.
	ClientID string `json:"client_id"`
	// DeliveryType is the last-mile choice (air, maritime, door-to-door...).
	DeliveryType string `json:"delivery_type"`
	// ShippingType is the origin-to-destination mode.
	ShippingType ShippingType `json:"shipping_type"`
	// State is the pipeline position.
	State OrderState `json:"state"`
	// UnitQuote is the quoted price per unit.
	UnitQuote *decimal.Decimal `json:"unit_quote"`
	// ShippingPrice is the quoted shipping cost.
	ShippingPrice *decimal.Decimal `json:"shipping_price"`
	// TotalQuote is UnitQuote * Quantity + ShippingPrice, nil until quoted.
	TotalQuote *decimal.Decimal `json:"total_quote"`
	// Height, Width, Long and Weight are recorded at quote time.
	Height *decimal.Decimal `json:"height"`
	Width  *decimal.Decimal `json:"width"`
	Long   *decimal.Decimal `json:"long"`
	Weight *decimal.Decimal `json:"weight"`
	// BoxID is set only while the order is packed.
	BoxID *int64 `json:"box_id"`
	// PDFRoutes references the rendered label; opaque to the pipeline.
	PDFRoutes *string `json:"pdf_routes"`
	// CreatedAt is when the order entered the pipeline.
	CreatedAt time.Time `json:"created_at"`
}

// IsAir reports whether the order ships by air.
func (o Order) IsAir() bool {
	return o.ShippingType == ShippingAir
}

// OrderFilter narrows order listings. Zero fields do not filter.
type OrderFilter struct {
	BoxIDs []int64
	States []OrderState
}

// OrderCascade describes a batch update applied to every order in a set of boxes.
type OrderCascade struct {
	// BoxIDs selects the orders.
	BoxIDs []int64
	// To is the state the orders take.
	To OrderState
	// From restricts the update to orders currently in one of these states.
	From []OrderState
	// Detach clears box_id on the updated orders.
	Detach bool
}

// IsAirOnly reports whether orders is non-empty and every order ships by air.
func IsAirOnly(orders []Order) bool {
	if len(orders) == 0 {
		return false
	}
	for _, o := range orders {
		if !o.IsAir() {
			return false
		}
	}
	return true
}

// CountByBox counts packed orders per box id.
func CountByBox(orders []Order) map[int64]int {
	counts := make(map[int64]int)
	for _, o := range orders {
		if o.BoxID != nil {
			counts[*o.BoxID]++
		}
	}
	return counts
}
