package shared

import "github.com/shopspring/decimal"

// Round2 rounds an amount to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SumAmounts adds amounts without accumulating float drift.
func SumAmounts(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Percent returns value percent of base.
func Percent(base, value float64) float64 {
	d := decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(value)).Div(decimal.NewFromInt(100))
	f, _ := d.Round(2).Float64()
	return f
}
