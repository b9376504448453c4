// internal/domain/shipping/calculator_test.go
package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
)

func line(qty int, unitPrice int64, tmpl *cart.ShippingTemplate) cart.Line {
	return cart.Line{
		LineID:           "l-1",
		ProductID:        "p-1",
		UnitPrice:        unitPrice,
		Quantity:         qty,
		ShippingTemplate: tmpl,
	}
}

func TestNormalizeAdditionalRate(t *testing.T) {
	cases := []struct {
		name string
		in   int64
		want int64
	}{
		{"allowed quarter passes through", 125, 125},
		{"allowed fifty passes through", 50, 50},
		{"allowed ninety-five passes through", 295, 295},
		{"1.10 rounds to 1.00 then bumps to 1.25", 110, 125},
		{"0.10 rounds to zero then bumps to 0.25", 10, 25},
		{"3.10 rounds to 3.00 then bumps to 3.25", 310, 325},
		{"1.13 rounds up to 1.25", 113, 125},
		{"1.37 rounds up to 1.50", 137, 150},
		{"2.00 whole dollar bumps to 2.25", 200, 225},
		{"1.60 rounds to 1.50", 160, 150},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeAdditionalRate(tc.in))
		})
	}
}

func TestCalculateWithAdditionalRate(t *testing.T) {
	// base=5.00, additional=1.10, qty=3 => 5.00 + 1.25*3 = 8.75
	cfg := config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 110}
	quote := Calculate([]cart.Line{line(3, 1000, nil)}, cfg)

	assert.Equal(t, int64(875), quote.Cost)
	assert.False(t, quote.FreeShipping)
}

func TestCalculateZeroAdditionalMultipliesBase(t *testing.T) {
	cfg := config.ShippingConfig{BaseRate: 400, AdditionalItemRate: 0}
	quote := Calculate([]cart.Line{line(3, 1000, nil)}, cfg)

	assert.Equal(t, int64(1200), quote.Cost)
}

func TestCalculatePerProductTemplateOverride(t *testing.T) {
	cfg := config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 125}
	tmpl := &cart.ShippingTemplate{BaseRate: 200, AdditionalItemRate: 50}

	quote := Calculate([]cart.Line{
		line(2, 1000, tmpl),        // 2.00 + 0.50*2 = 3.00
		line(1, 1000, nil),         // 5.00 + 1.25*1 = 6.25
	}, cfg)

	assert.Equal(t, int64(300+625), quote.Cost)
}

func TestCalculateHandlingFeeAddedOnce(t *testing.T) {
	cfg := config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 0, HandlingFee: 150}
	quote := Calculate([]cart.Line{
		line(1, 1000, nil),
		line(1, 1000, nil),
	}, cfg)

	assert.Equal(t, int64(500+500+150), quote.Cost)
}

func TestCalculateEmptyCartHasNoHandlingFee(t *testing.T) {
	cfg := config.ShippingConfig{BaseRate: 500, HandlingFee: 150}
	assert.Equal(t, int64(0), Calculate(nil, cfg).Cost)
}

func TestFreeShippingAtThreshold(t *testing.T) {
	// subtotal == threshold counts as free; would-be cost reported as savings.
	cfg := config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 0, FreeShippingThreshold: 5000}
	quote := Calculate([]cart.Line{line(5, 1000, nil)}, cfg)

	assert.True(t, quote.FreeShipping)
	assert.Equal(t, int64(0), quote.Cost)
	assert.Equal(t, int64(2500), quote.Savings)
}

func TestNoFreeShippingBelowThreshold(t *testing.T) {
	cfg := config.ShippingConfig{BaseRate: 500, AdditionalItemRate: 0, FreeShippingThreshold: 5001}
	quote := Calculate([]cart.Line{line(5, 1000, nil)}, cfg)

	assert.False(t, quote.FreeShipping)
	assert.Equal(t, int64(2500), quote.Cost)
	assert.Equal(t, int64(0), quote.Savings)
}
