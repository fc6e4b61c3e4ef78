package structure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentType enum
type ComponentType string

const (
	ComponentTypeEarning   ComponentType = "earning"
	ComponentTypeDeduction ComponentType = "deduction"
)

// ComponentCategory enum
type ComponentCategory string

const (
	CategoryBasic              ComponentCategory = "basic"
	CategoryAllowance          ComponentCategory = "allowance"
	CategoryBonus              ComponentCategory = "bonus"
	CategoryOvertime           ComponentCategory = "overtime"
	CategoryStatutoryDeduction ComponentCategory = "statutory_deduction"
	CategoryOtherDeduction     ComponentCategory = "other_deduction"
	CategoryReimbursement      ComponentCategory = "reimbursement"
)

// CalculationMode enum
type CalculationMode string

const (
	ModeFixed           CalculationMode = "fixed"
	ModePercentage      CalculationMode = "percentage"
	ModeFormula         CalculationMode = "formula"
	ModeAttendanceBased CalculationMode = "attendance_based"
)

// PayComponent - Master pay component definition
type PayComponent struct {
	ID          string
	CompanyID   string
	Code        string
	Name        string
	Type        ComponentType
	Category    ComponentCategory
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DateRange is a half-open interval [From, To). A nil To is open-ended.
type DateRange struct {
	From time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if t.Before(r.From) {
		return false
	}
	return r.To == nil || t.Before(*r.To)
}

// Overlaps reports whether the two half-open ranges share at least one instant.
func (r DateRange) Overlaps(o DateRange) bool {
	if r.To != nil && !r.To.After(o.From) {
		return false
	}
	if o.To != nil && !o.To.After(r.From) {
		return false
	}
	return true
}

// Inverted reports whether To is set and not after From.
func (r DateRange) Inverted() bool {
	return r.To != nil && !r.To.After(r.From)
}

func (r DateRange) String() string {
	to := "open"
	if r.To != nil {
		to = r.To.Format("2006-01-02")
	}
	return "[" + r.From.Format("2006-01-02") + ", " + to + ")"
}

// Structure - one version of a named salary structure
type Structure struct {
	ID            string
	CompanyID     string
	Name          string
	Code          string
	GradeID       *string
	Version       int
	BaseVersionID *string
	ChangeLog     *string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	IsActive      bool
	CreatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Components []StructureComponent
}

func (s Structure) Range() DateRange {
	return DateRange{From: s.EffectiveFrom, To: s.EffectiveTo}
}

// StructureComponent - a pay component as configured inside one structure version
type StructureComponent struct {
	ID              string
	StructureID     string
	PayComponentID  string
	CalculationMode CalculationMode
	Value           *decimal.Decimal
	Percentage      *decimal.Decimal
	BaseComponentID *string
	Formula         *string
	MinValue        *decimal.Decimal
	MaxValue        *decimal.Decimal
	IsVariable      bool
	DisplayOrder    int

	// Joined fields
	Code     string
	Name     string
	Type     ComponentType
	Category ComponentCategory
}
