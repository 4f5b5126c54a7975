package fees

import "github.com/shopspring/decimal"

// Precision decimales de todo monto persistido (un centavo).
const Precision = 2

// Round redondea a un centavo (half away from zero).
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(Precision) }

// NonNegative devuelve cero si d < 0.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ClampPercent limita p a [0, max].
func ClampPercent(p, max decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(max) {
		return max
	}
	return p
}
