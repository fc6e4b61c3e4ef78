package grade

import "github.com/shopspring/decimal"

// Grade - job grade with optional salary band used to validate CTC
type Grade struct {
	ID        string
	CompanyID string
	Name      string
	MinSalary *decimal.Decimal
	MaxSalary *decimal.Decimal
}

// Contains reports whether amount lies inside the grade's salary band.
// Missing bounds are treated as unbounded.
func (g Grade) Contains(amount decimal.Decimal) bool {
	if g.MinSalary != nil && amount.LessThan(*g.MinSalary) {
		return false
	}
	if g.MaxSalary != nil && amount.GreaterThan(*g.MaxSalary) {
		return false
	}
	return true
}
