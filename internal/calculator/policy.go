package calculator

import "github.com/shopspring/decimal"

// Default deduction constants, VND per month.
const (
	DefaultPersonalDeduction  = 11_000_000
	DefaultDependentDeduction = 4_400_000
)

// Policy deduction amounts and the no-contract rate used by one run
type Policy struct {
	PersonalDeduction  float64
	DependentDeduction float64
	NoContractRate     decimal.Decimal
}

// DefaultPolicy current statutory values
func DefaultPolicy() Policy {
	return Policy{
		PersonalDeduction:  DefaultPersonalDeduction,
		DependentDeduction: DefaultDependentDeduction,
		NoContractRate:     NoContractRate,
	}
}

// ContractTax progressive tax for an employee
func (p Policy) ContractTax(base float64) float64 {
	return float64(ProgressiveTax(base))
}

// NoContractTax flat tax for a person without a contract
func (p Policy) NoContractTax(base float64) float64 {
	return float64(FlatTax(base, p.NoContractRate))
}
