package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type CreateRunRequest struct {
	Period      string   `json:"period" validate:"required,period"`
	EmployeeIDs []string `json:"employee_ids,omitempty" validate:"omitempty,dive,required"`
}

func (r *CreateRunRequest) Validate() error {
	errs := validator.Struct(r)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AdjustmentInput struct {
	RecordID string          `json:"record_id" validate:"required"`
	Type     string          `json:"type" validate:"oneof=BONUS DEDUCTION CORRECTION"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type ApproveRunRequest struct {
	RunID string `json:"-"`
	// MinorUnits bounds the decimal places of adjustment amounts.
	MinorUnits  int32             `json:"-"`
	Adjustments []AdjustmentInput `json:"adjustments,omitempty" validate:"omitempty,dive"`
}

func (r *ApproveRunRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.RunID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}

	for i, a := range r.Adjustments {
		field := fmt.Sprintf("adjustments[%d].amount", i)
		if !a.Amount.Equal(a.Amount.Round(r.MinorUnits)) {
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("must not have more than %d decimal places", r.MinorUnits)})
			continue
		}
		switch AdjustmentType(a.Type) {
		case AdjustmentBonus, AdjustmentDeduction:
			if !a.Amount.IsPositive() {
				errs = append(errs, validator.ValidationError{Field: field, Message: "must be positive"})
			}
		case AdjustmentCorrection:
			if a.Amount.IsNegative() {
				errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectRunRequest struct {
	RunID    string `json:"-"`
	Comments string `json:"comments" validate:"required,max=1000"`
}

func (r *RejectRunRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.RunID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PreviewRequest calculates one employee without persisting. Attendance is
// read from the attendance source unless supplied.
type PreviewRequest struct {
	EmployeeID string           `json:"employee_id" validate:"required"`
	Period     string           `json:"period" validate:"required,period"`
	Attendance *AttendanceInput `json:"attendance,omitempty"`
}

type AttendanceInput struct {
	WorkingDays   decimal.Decimal `json:"working_days"`
	PresentDays   decimal.Decimal `json:"present_days"`
	AbsentDays    decimal.Decimal `json:"absent_days"`
	LOPDays       decimal.Decimal `json:"lop_days"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

func (r *PreviewRequest) Validate() error {
	errs := validator.Struct(r)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RunResponse struct {
	ID              string          `json:"id"`
	Period          string          `json:"period"`
	Status          string          `json:"status"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalNet        decimal.Decimal `json:"total_net"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	EmployeeCount   int             `json:"employee_count"`
	FailedCount     int             `json:"failed_count"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	CreatedBy       *string         `json:"created_by,omitempty"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CalculationFailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type CreateRunResponse struct {
	Run      RunResponse                  `json:"run"`
	Failures []CalculationFailureResponse `json:"failures"`
}

type RecordResponse struct {
	ID               string          `json:"id,omitempty"`
	RunID            string          `json:"run_id,omitempty"`
	EmployeeID       string          `json:"employee_id"`
	AssignmentID     string          `json:"assignment_id"`
	StructureID      string          `json:"structure_id"`
	CTC              decimal.Decimal `json:"ctc"`
	BasicSalary      decimal.Decimal `json:"basic_salary"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	NetSalary        decimal.Decimal `json:"net_salary"`
	Earnings         []LineItem      `json:"earnings"`
	Deductions       []LineItem      `json:"deductions"`
	WorkingDays      decimal.Decimal `json:"working_days"`
	PresentDays      decimal.Decimal `json:"present_days"`
	AbsentDays       decimal.Decimal `json:"absent_days"`
	LOPDays          decimal.Decimal `json:"lop_days"`
	LOPAmount        decimal.Decimal `json:"lop_amount"`
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	OvertimeAmount   decimal.Decimal `json:"overtime_amount"`
	PFAmount         decimal.Decimal `json:"pf_amount"`
	ESIAmount        decimal.Decimal `json:"esi_amount"`
	TDSAmount        decimal.Decimal `json:"tds_amount"`
	PTAmount         decimal.Decimal `json:"pt_amount"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	Status           string          `json:"status,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
}

type AdjustmentResponse struct {
	ID        string          `json:"id"`
	RunID     string          `json:"run_id"`
	RecordID  string          `json:"record_id"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	NetBefore decimal.Decimal `json:"net_before"`
	NetAfter  decimal.Decimal `json:"net_after"`
	Reason    *string         `json:"reason,omitempty"`
	CreatedBy *string         `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func ToAdjustmentResponse(a Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:        a.ID,
		RunID:     a.RunID,
		RecordID:  a.RecordID,
		Type:      string(a.Type),
		Amount:    a.Amount,
		NetBefore: a.NetBefore,
		NetAfter:  a.NetAfter,
		Reason:    a.Reason,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
}

func ToRunResponse(r Run) RunResponse {
	return RunResponse{
		ID:              r.ID,
		Period:          r.Period,
		Status:          string(r.Status),
		TotalGross:      r.TotalGross,
		TotalNet:        r.TotalNet,
		TotalDeductions: r.TotalDeductions,
		EmployeeCount:   r.EmployeeCount,
		FailedCount:     r.FailedCount,
		FailureReason:   r.FailureReason,
		RejectionReason: r.RejectionReason,
		CreatedBy:       r.CreatedBy,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func ToRecordResponse(r Record) RecordResponse {
	earnings := r.Earnings
	if earnings == nil {
		earnings = []LineItem{}
	}
	deductions := r.Deductions
	if deductions == nil {
		deductions = []LineItem{}
	}
	return RecordResponse{
		ID:               r.ID,
		RunID:            r.RunID,
		EmployeeID:       r.EmployeeID,
		AssignmentID:     r.AssignmentID,
		StructureID:      r.StructureID,
		CTC:              r.CTC,
		BasicSalary:      r.BasicSalary,
		TotalEarnings:    r.TotalEarnings,
		GrossSalary:      r.GrossSalary,
		TotalDeductions:  r.TotalDeductions,
		NetSalary:        r.NetSalary,
		Earnings:         earnings,
		Deductions:       deductions,
		WorkingDays:      r.WorkingDays,
		PresentDays:      r.PresentDays,
		AbsentDays:       r.AbsentDays,
		LOPDays:          r.LOPDays,
		LOPAmount:        r.LOPAmount,
		OvertimeHours:    r.OvertimeHours,
		OvertimeAmount:   r.OvertimeAmount,
		PFAmount:         r.PFAmount,
		ESIAmount:        r.ESIAmount,
		TDSAmount:        r.TDSAmount,
		PTAmount:         r.PTAmount,
		AdjustmentAmount: r.AdjustmentAmount,
		Status:           string(r.Status),
		Notes:            r.Notes,
	}
}

func ToFailureResponses(failures []CalculationFailure) []CalculationFailureResponse {
	out := make([]CalculationFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, CalculationFailureResponse{EmployeeID: f.EmployeeID, Error: f.Err.Error()})
	}
	return out
}
