package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusCompleted RunStatus = "completed"
	RunStatusApproved  RunStatus = "approved"
	RunStatusFailed    RunStatus = "failed"
)

// RunStatuses lists every run status.
func RunStatuses() []string {
	return []string{string(RunStatusDraft), string(RunStatusCompleted), string(RunStatusApproved), string(RunStatusFailed)}
}

// RecordStatus enum
type RecordStatus string

const (
	RecordStatusDraft      RecordStatus = "draft"
	RecordStatusCalculated RecordStatus = "calculated"
	RecordStatusApproved   RecordStatus = "approved"
)

// Run - one payroll batch for a company and period
type Run struct {
	ID              string
	CompanyID       string
	Period          string
	Status          RunStatus
	TotalGross      decimal.Decimal
	TotalNet        decimal.Decimal
	TotalDeductions decimal.Decimal
	EmployeeCount   int
	FailedCount     int
	FailureReason   *string
	RejectionReason *string
	CreatedBy       *string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Totals - aggregate of a run's records
type Totals struct {
	Gross         decimal.Decimal
	Net           decimal.Decimal
	Deductions    decimal.Decimal
	EmployeeCount int
}

// LineItem - one rounded earning or deduction on a record
type LineItem struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	FullAmount decimal.Decimal `json:"full_amount"`
	Prorated   bool            `json:"prorated,omitempty"`
	Overridden bool            `json:"overridden,omitempty"`
}

// Record - one employee's computed result within a run
type Record struct {
	ID               string
	RunID            string
	CompanyID        string
	EmployeeID       string
	AssignmentID     string
	StructureID      string
	CTC              decimal.Decimal
	BasicSalary      decimal.Decimal
	TotalEarnings    decimal.Decimal
	GrossSalary      decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetSalary        decimal.Decimal
	Earnings         []LineItem
	Deductions       []LineItem
	WorkingDays      decimal.Decimal
	PresentDays      decimal.Decimal
	AbsentDays       decimal.Decimal
	LOPDays          decimal.Decimal
	LOPAmount        decimal.Decimal
	OvertimeHours    decimal.Decimal
	OvertimeAmount   decimal.Decimal
	PFAmount         decimal.Decimal
	ESIAmount        decimal.Decimal
	TDSAmount        decimal.Decimal
	PTAmount         decimal.Decimal
	AdjustmentAmount decimal.Decimal
	Status           RecordStatus
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Retotal recomputes the record totals from its line items.
func (r *Record) Retotal() {
	r.TotalEarnings = sumLines(r.Earnings)
	r.GrossSalary = r.TotalEarnings
	r.TotalDeductions = sumLines(r.Deductions)
	r.NetSalary = r.GrossSalary.Sub(r.TotalDeductions)
}

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// AdjustmentType enum
type AdjustmentType string

const (
	AdjustmentBonus      AdjustmentType = "BONUS"
	AdjustmentDeduction  AdjustmentType = "DEDUCTION"
	AdjustmentCorrection AdjustmentType = "CORRECTION"
)

// Adjustment - a manual change applied to a record during approval
type Adjustment struct {
	ID        string
	RunID     string
	RecordID  string
	Type      AdjustmentType
	Amount    decimal.Decimal
	NetBefore decimal.Decimal
	NetAfter  decimal.Decimal
	Reason    *string
	CreatedBy *string
	CreatedAt time.Time
}

// CalculationFailure - an employee that could not be calculated in a batch
type CalculationFailure struct {
	EmployeeID string
	Err        error
}

// BulkResult - successes and per-employee failures of a batch calculation
type BulkResult struct {
	Records  []Record
	Failures []CalculationFailure
}
