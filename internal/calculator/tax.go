package calculator

import (
	"github.com/shopspring/decimal"
)

// Bracket one tier of the monthly progressive schedule
type Bracket struct {
	Limit     decimal.Decimal // upper bound of the tier, inclusive
	Unbounded bool            // last tier has no upper bound
	Rate      decimal.Decimal
}

// ProgressiveBrackets biểu thuế lũy tiến từng phần, VND per month
var ProgressiveBrackets = []Bracket{
	{Limit: decimal.NewFromInt(5_000_000), Rate: decimal.RequireFromString("0.05")},
	{Limit: decimal.NewFromInt(10_000_000), Rate: decimal.RequireFromString("0.10")},
	{Limit: decimal.NewFromInt(18_000_000), Rate: decimal.RequireFromString("0.15")},
	{Limit: decimal.NewFromInt(32_000_000), Rate: decimal.RequireFromString("0.20")},
	{Limit: decimal.NewFromInt(52_000_000), Rate: decimal.RequireFromString("0.25")},
	{Limit: decimal.NewFromInt(80_000_000), Rate: decimal.RequireFromString("0.30")},
	{Unbounded: true, Rate: decimal.RequireFromString("0.35")},
}

// ProgressiveTax computes tax for employees under contract.
// Each bracket taxes only the slice of income inside it; the sum is rounded to whole VND.
func ProgressiveTax(taxable float64) int64 {
	if taxable <= 0 {
		return 0
	}
	income := decimal.NewFromFloat(taxable)
	total := decimal.Zero
	previous := decimal.Zero
	for _, b := range ProgressiveBrackets {
		if !income.GreaterThan(previous) {
			break
		}
		slice := income.Sub(previous)
		if !b.Unbounded {
			slice = decimal.Min(slice, b.Limit.Sub(previous))
		}
		total = total.Add(slice.Mul(b.Rate))
		if b.Unbounded {
			break
		}
		previous = b.Limit
	}
	return total.Round(0).IntPart()
}

// NoContractRate flat withholding rate for people without a labour contract
var NoContractRate = decimal.RequireFromString("0.10")

// FlatTax computes withholding for people without a labour contract: rate times the base, rounded.
func FlatTax(taxable float64, rate decimal.Decimal) int64 {
	if taxable <= 0 {
		return 0
	}
	return decimal.NewFromFloat(taxable).Mul(rate).Round(0).IntPart()
}
