package domain

import (
	"testing"

	"cargo-pipeline/internal/core/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validQuoteInput() QuoteInput {
	return QuoteInput{
		UnitPrice:     d("10"),
		ShippingPrice: d("5"),
		Height:        d("20"),
		Width:         d("30"),
		Long:          d("40"),
		Weight:        d("1.5"),
	}
}

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		shipping string
		quantity int
		want     string
		wantErr  bool
	}{
		{name: "Simple", unit: "10", shipping: "5", quantity: 3, want: "35"},
		{name: "Cents", unit: "0.10", shipping: "0.20", quantity: 3, want: "0.5"},
		{name: "FreeShipping", unit: "19.99", shipping: "0", quantity: 2, want: "39.98"},
		{name: "ZeroUnit", unit: "0", shipping: "5", quantity: 1, wantErr: true},
		{name: "NegativeShipping", unit: "1", shipping: "-1", quantity: 1, wantErr: true},
		{name: "ZeroQuantity", unit: "1", shipping: "1", quantity: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := CalculateTotal(d(tt.unit), d(tt.shipping), tt.quantity)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(total), "got %s", total)
		})
	}
}

func TestCalculateTotal_Idempotent(t *testing.T) {
	first, err := CalculateTotal(d("10"), d("5"), 7)
	require.NoError(t, err)
	second, err := CalculateTotal(d("10"), d("5"), 7)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
	assert.True(t, d("75").Equal(first))
}

func TestQuoteInput_Validate(t *testing.T) {
	assert.NoError(t, validQuoteInput().Validate())

	in := validQuoteInput()
	in.Height = d("0")
	in.ShippingPrice = d("-2")
	err := in.Validate()
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "height")
	assert.Contains(t, err.Error(), "shipping_price")
}
