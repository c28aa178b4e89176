package market

import "github.com/shopspring/decimal"

// quantumScale is the raw-to-normalized scale of divisible assets.
const quantumScale = 1e8

// round8 rounds v to 8 fractional digits, round-half-to-even. Every derived
// monetary value passes through here before leaving the package.
func round8(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).RoundBank(8).Float64()
	return f
}

// round8Decimal is round8 for values already in decimal form.
func round8Decimal(d decimal.Decimal) float64 {
	f, _ := d.RoundBank(8).Float64()
	return f
}

// inverse returns round8(1/v).
func inverse(v float64) float64 {
	return round8Decimal(decimal.NewFromInt(1).Div(decimal.NewFromFloat(v)))
}

// normalizeQuantity scales a raw ledger quantity down to a human-scale
// decimal for divisible assets; indivisible quantities pass through as whole
// counts.
func normalizeQuantity(raw int64, divisible bool) float64 {
	if !divisible {
		return float64(raw)
	}
	return round8Decimal(decimal.NewFromInt(raw).Div(decimal.NewFromInt(int64(quantumScale))))
}

// denormalizeQuantity converts a normalized divisible quantity back to raw
// ledger units.
func denormalizeQuantity(norm float64) int64 {
	return decimal.NewFromFloat(norm).Mul(decimal.NewFromInt(int64(quantumScale))).Round(0).IntPart()
}
