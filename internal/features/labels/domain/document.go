package domain

import (
	"cargo-pipeline/internal/core/apperr"
	pipeline "cargo-pipeline/internal/features/pipeline/domain"

	"github.com/shopspring/decimal"
)

// Document is what the label renderer needs to print a quoted order.
type Document struct {
	OrderID       int64            `json:"order_id"`
	ProductName   string           `json:"product_name"`
	ClientName    string           `json:"client_name"`
	Quantity      int              `json:"quantity"`
	ShippingType  string           `json:"shipping_type"`
	DeliveryType  string           `json:"delivery_type"`
	UnitQuote     decimal.Decimal  `json:"unit_quote"`
	ShippingPrice decimal.Decimal  `json:"shipping_price"`
	TotalQuote    decimal.Decimal  `json:"total_quote"`
	Weight        *decimal.Decimal `json:"weight,omitempty"`
}

// NewDocument builds the document of o. Orders without a quote have nothing to print.
func NewDocument(o pipeline.Order) (Document, error) {
	if o.State < pipeline.OrderQuoted || o.TotalQuote == nil || o.UnitQuote == nil || o.ShippingPrice == nil {
		return Document{}, apperr.Conflict("order %d has not been quoted", o.ID)
	}
	return Document{
		OrderID:       o.ID,
		ProductName:   o.ProductName,
		ClientName:    o.ClientName,
		Quantity:      o.Quantity,
		ShippingType:  string(o.ShippingType),
		DeliveryType:  o.DeliveryType,
		UnitQuote:     *o.UnitQuote,
		ShippingPrice: *o.ShippingPrice,
		TotalQuote:    *o.TotalQuote,
		Weight:        o.Weight,
	}, nil
}
