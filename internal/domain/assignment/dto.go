package assignment

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type OverrideInput struct {
	PayComponentID string          `json:"pay_component_id" validate:"required"`
	Value          decimal.Decimal `json:"value"`
}

func validateOverrides(prefix string, overrides []OverrideInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	seen := make(map[string]bool)
	for i, o := range overrides {
		if o.Value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%soverrides[%d].value", prefix, i), Message: "must be non-negative"})
		}
		if seen[o.PayComponentID] {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("%soverrides[%d].pay_component_id", prefix, i), Message: "is duplicated"})
		}
		seen[o.PayComponentID] = true
	}
	return errs
}

type AssignRequest struct {
	EmployeeID     string          `json:"employee_id" validate:"required"`
	StructureID    string          `json:"structure_id" validate:"required"`
	CTC            decimal.Decimal `json:"ctc"`
	EffectiveFrom  string          `json:"effective_from" validate:"required,date"`
	RevisionReason *string         `json:"revision_reason,omitempty"`
	Overrides      []OverrideInput `json:"overrides,omitempty" validate:"omitempty,dive"`
}

func (r *AssignRequest) Validate() error {
	errs := validator.Struct(r)

	if !r.CTC.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "ctc", Message: "must be positive"})
	}
	errs = append(errs, validateOverrides("", r.Overrides)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// EffectiveDate parses EffectiveFrom. Call after Validate.
func (r *AssignRequest) EffectiveDate() time.Time {
	t, _ := time.Parse(dateLayout, r.EffectiveFrom)
	return t
}

type BulkReassignItem struct {
	EmployeeID     string          `json:"employee_id" validate:"required"`
	CTC            decimal.Decimal `json:"ctc"`
	RevisionReason *string         `json:"revision_reason,omitempty"`
	Overrides      []OverrideInput `json:"overrides,omitempty" validate:"omitempty,dive"`
}

type BulkReassignRequest struct {
	StructureID   string             `json:"structure_id" validate:"required"`
	EffectiveDate string             `json:"effective_date" validate:"required,date"`
	Updates       []BulkReassignItem `json:"updates" validate:"required,min=1,dive"`
}

func (r *BulkReassignRequest) Validate() error {
	errs := validator.Struct(r)

	for i, u := range r.Updates {
		if !u.CTC.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: fmt.Sprintf("updates[%d].ctc", i), Message: "must be positive"})
		}
		errs = append(errs, validateOverrides(fmt.Sprintf("updates[%d].", i), u.Overrides)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type OverrideResponse struct {
	PayComponentID string          `json:"pay_component_id"`
	Value          decimal.Decimal `json:"value"`
}

type AssignmentResponse struct {
	ID             string                       `json:"id"`
	EmployeeID     string                       `json:"employee_id"`
	StructureID    string                       `json:"structure_id"`
	CTC            decimal.Decimal              `json:"ctc"`
	EffectiveFrom  string                       `json:"effective_from"`
	EffectiveTo    *string                      `json:"effective_to,omitempty"`
	RevisionReason *string                      `json:"revision_reason,omitempty"`
	ApprovedBy     *string                      `json:"approved_by,omitempty"`
	Overrides      []OverrideResponse           `json:"overrides"`
	Structure      *structure.StructureResponse `json:"structure,omitempty"`
}

type BulkReassignResult struct {
	EmployeeID string              `json:"employee_id"`
	Success    bool                `json:"success"`
	Assignment *AssignmentResponse `json:"assignment,omitempty"`
	Error      string              `json:"error,omitempty"`
	Err        error               `json:"-"`
}

// ToResponse maps an assignment to its API shape.
func ToResponse(a Assignment) AssignmentResponse {
	var effectiveTo *string
	if a.EffectiveTo != nil {
		str := a.EffectiveTo.Format(dateLayout)
		effectiveTo = &str
	}
	overrides := make([]OverrideResponse, 0, len(a.Overrides))
	for _, o := range a.Overrides {
		overrides = append(overrides, OverrideResponse{PayComponentID: o.PayComponentID, Value: o.Value})
	}
	return AssignmentResponse{
		ID:             a.ID,
		EmployeeID:     a.EmployeeID,
		StructureID:    a.StructureID,
		CTC:            a.CTC,
		EffectiveFrom:  a.EffectiveFrom.Format(dateLayout),
		EffectiveTo:    effectiveTo,
		RevisionReason: a.RevisionReason,
		ApprovedBy:     a.ApprovedBy,
		Overrides:      overrides,
	}
}
