package domain

import (
	"strings"

	"cargo-pipeline/internal/core/apperr"

	"github.com/shopspring/decimal"
)

// QuoteInput carries the warehouse's pricing and measurements for an order.
type QuoteInput struct {
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	Height        decimal.Decimal `json:"height"`
	Width         decimal.Decimal `json:"width"`
	Long          decimal.Decimal `json:"long"`
	Weight        decimal.Decimal `json:"weight"`
}

// Quote is the priced result stored on an order.
type Quote struct {
	UnitQuote     decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalQuote    decimal.Decimal
	Height        decimal.Decimal
	Width         decimal.Decimal
	Long          decimal.Decimal
	Weight        decimal.Decimal
}

// Validate rejects non-positive prices or measurements and negative shipping.
func (in QuoteInput) Validate() error {
	var bad []string
	positive := []struct {
		name  string
		value decimal.Decimal
	}{
		{"unit_price", in.UnitPrice},
		{"height", in.Height},
		{"width", in.Width},
		{"long", in.Long},
		{"weight", in.Weight},
	}
	for _, f := range positive {
		if !f.value.IsPositive() {
			bad = append(bad, f.name+" must be greater than zero")
		}
	}
	if in.ShippingPrice.IsNegative() {
		bad = append(bad, "shipping_price must not be negative")
	}

	if len(bad) > 0 {
		return apperr.Validation("invalid quote: %s", strings.Join(bad, "; "))
	}
	return nil
}

// CalculateTotal returns unitPrice * quantity + shippingPrice. Decimal arithmetic
// keeps the result exact for cent inputs.
func CalculateTotal(unitPrice, shippingPrice decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, apperr.Validation("quantity must be greater than zero")
	}
	if !unitPrice.IsPositive() {
		return decimal.Zero, apperr.Validation("unit_price must be greater than zero")
	}
	if shippingPrice.IsNegative() {
		return decimal.Zero, apperr.Validation("shipping_price must not be negative")
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Add(shippingPrice), nil
}

// BuildQuote validates in and prices it for quantity units.
func BuildQuote(in QuoteInput, quantity int) (Quote, error) {
	if err := in.Validate(); err != nil {
		return Quote{}, err
	}
	total, err := CalculateTotal(in.UnitPrice, in.ShippingPrice, quantity)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		UnitQuote:     in.UnitPrice,
		ShippingPrice: in.ShippingPrice,
		TotalQuote:    total,
		Height:        in.Height,
		Width:         in.Width,
		Long:          in.Long,
		Weight:        in.Weight,
	}, nil
}
