package grade

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateGradeRequest struct {
	Name      string           `json:"name" validate:"required,max=100"`
	MinSalary *decimal.Decimal `json:"min_salary,omitempty"`
	MaxSalary *decimal.Decimal `json:"max_salary,omitempty"`
}

func (r *CreateGradeRequest) Validate() error {
	errs := validator.Struct(r)

	if r.MinSalary != nil && r.MinSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "min_salary", Message: "must not be negative"})
	}
	if r.MaxSalary != nil && !r.MaxSalary.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "max_salary", Message: "must be positive"})
	}
	if r.MinSalary != nil && r.MaxSalary != nil && r.MinSalary.GreaterThan(*r.MaxSalary) {
		errs = append(errs, validator.ValidationError{Field: "max_salary", Message: "must not be less than min_salary"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type GradeResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	MinSalary *decimal.Decimal `json:"min_salary,omitempty"`
	MaxSalary *decimal.Decimal `json:"max_salary,omitempty"`
}

func ToResponse(g Grade) GradeResponse {
	return GradeResponse{
		ID:        g.ID,
		Name:      g.Name,
		MinSalary: g.MinSalary,
		MaxSalary: g.MaxSalary,
	}
}
