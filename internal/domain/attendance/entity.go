package attendance

import (
	"github.com/shopspring/decimal"
)

// Facts - reconciled attendance figures for one employee and payroll period.
// Produced by the attendance module; payroll never derives them itself.
type Facts struct {
	EmployeeID    string
	Period        string
	WorkingDays   decimal.Decimal
	PresentDays   decimal.Decimal
	AbsentDays    decimal.Decimal
	LOPDays       decimal.Decimal
	OvertimeHours decimal.Decimal
}

// Prorate scales amount by present/working days. The product is taken before
// the division so no intermediate ratio is rounded. Validate first.
func (f Facts) Prorate(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(f.PresentDays).Div(f.WorkingDays)
}

// Validate rejects facts that cannot drive proration.
func (f Facts) Validate() error {
	if !f.WorkingDays.IsPositive() {
		return &InvalidFactsError{EmployeeID: f.EmployeeID, Reason: "working days must be positive"}
	}
	if f.PresentDays.IsNegative() || f.PresentDays.GreaterThan(f.WorkingDays) {
		return &InvalidFactsError{EmployeeID: f.EmployeeID, Reason: "present days must be between 0 and working days"}
	}
	if f.AbsentDays.IsNegative() || f.LOPDays.IsNegative() || f.OvertimeHours.IsNegative() {
		return &InvalidFactsError{EmployeeID: f.EmployeeID, Reason: "absent days, lop days and overtime hours must be non-negative"}
	}
	return nil
}
