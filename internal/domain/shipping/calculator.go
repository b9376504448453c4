// internal/domain/shipping/calculator.go

// Package shipping computes the display shipping cost for a cart. The
// calculation is pure; the server still recomputes the charged amount.
package shipping

import (
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
)

// Quote is the result of a shipping calculation. Amounts in cents.
type Quote struct {
	Cost int64 `json:"cost"`
	// Savings is the would-be cost when the free-shipping threshold zeroed it,
	// kept for display ("you saved $X on shipping").
	Savings      int64 `json:"savings"`
	FreeShipping bool  `json:"free_shipping"`
}

// allowed cents endings for a per-item additional rate
var allowedQuarterCents = map[int64]bool{25: true, 50: true, 75: true, 95: true}

// Calculate computes the shipping cost for the given lines under the global
// configuration, honoring per-product template overrides.
func Calculate(lines []cart.Line, cfg config.ShippingConfig) Quote {
	var cost int64
	var subtotal int64

	for _, line := range lines {
		base, additional := resolveRates(line, cfg)
		qty := int64(line.Quantity)

		if additional == 0 {
			cost += base * qty
		} else {
			cost += base + normalizeAdditionalRate(additional)*qty
		}

		subtotal += line.LineTotal()
	}

	if len(lines) > 0 {
		cost += cfg.HandlingFee
	}

	if cfg.FreeShippingThreshold > 0 && subtotal >= cfg.FreeShippingThreshold {
		return Quote{Cost: 0, Savings: cost, FreeShipping: true}
	}
	return Quote{Cost: cost}
}

func resolveRates(line cart.Line, cfg config.ShippingConfig) (base, additional int64) {
	if t := line.ShippingTemplate; t != nil {
		return t.BaseRate, t.AdditionalItemRate
	}
	return cfg.BaseRate, cfg.AdditionalItemRate
}

// normalizeAdditionalRate forces an additional-item rate onto an allowed
// quarter-dollar ending. Rates already ending in .25/.50/.75/.95 pass through;
// anything else is rounded to the nearest quarter dollar, and a whole-dollar
// result is bumped by a quarter so it never survives normalization.
func normalizeAdditionalRate(rate int64) int64 {
	if allowedQuarterCents[rate%100] {
		return rate
	}

	adjusted := (rate + 12) / 25 * 25
	if adjusted%100 == 0 {
		adjusted += 25
	}
	return adjusted
}
