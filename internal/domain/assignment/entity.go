package assignment

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/shopspring/decimal"
)

// Assignment - binds an employee to a structure version and CTC for a date range
type Assignment struct {
	ID             string
	CompanyID      string
	EmployeeID     string
	StructureID    string
	CTC            decimal.Decimal
	EffectiveFrom  time.Time
	EffectiveTo    *time.Time
	RevisionReason *string
	ApprovedBy     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Overrides []Override
}

// Override - employee specific value replacing a structure component's computed value
type Override struct {
	PayComponentID string
	Value          decimal.Decimal
}

func (a Assignment) Range() structure.DateRange {
	return structure.DateRange{From: a.EffectiveFrom, To: a.EffectiveTo}
}

// OverrideMap indexes overrides by pay component id.
func (a Assignment) OverrideMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(a.Overrides))
	for _, o := range a.Overrides {
		m[o.PayComponentID] = o.Value
	}
	return m
}
