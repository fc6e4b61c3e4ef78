package structure

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ========== PAY COMPONENT DTOs ==========

type CreatePayComponentRequest struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Name        string  `json:"name" validate:"required,max=100"`
	Type        string  `json:"type" validate:"oneof=earning deduction"`
	Category    string  `json:"category" validate:"oneof=basic allowance bonus overtime statutory_deduction other_deduction reimbursement"`
	Description *string `json:"description,omitempty"`
}

func (r *CreatePayComponentRequest) Validate() error {
	errs := validator.Struct(r)

	if r.Type == string(ComponentTypeEarning) && (r.Category == string(CategoryStatutoryDeduction) || r.Category == string(CategoryOtherDeduction)) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "deduction category requires type 'deduction'"})
	}
	if r.Type == string(ComponentTypeDeduction) && r.Category != string(CategoryStatutoryDeduction) && r.Category != string(CategoryOtherDeduction) {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "type 'deduction' requires a deduction category"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayComponentResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// ========== STRUCTURE DTOs ==========

type ComponentInput struct {
	PayComponentID  string           `json:"pay_component_id" validate:"required"`
	CalculationMode string           `json:"calculation_mode" validate:"oneof=fixed percentage formula attendance_based"`
	Value           *decimal.Decimal `json:"value,omitempty"`
	Percentage      *decimal.Decimal `json:"percentage,omitempty"`
	BaseComponentID *string          `json:"base_component_id,omitempty"`
	Formula         *string          `json:"formula,omitempty"`
	MinValue        *decimal.Decimal `json:"min_value,omitempty"`
	MaxValue        *decimal.Decimal `json:"max_value,omitempty"`
	IsVariable      bool             `json:"is_variable"`
	DisplayOrder    int              `json:"display_order" validate:"min=0"`
}

func (c *ComponentInput) validate(prefix string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, validator.ValidationError{Field: prefix + field, Message: msg})
	}

	switch CalculationMode(c.CalculationMode) {
	case ModeFixed:
		if c.Value == nil {
			add("value", "is required for fixed components")
		}
	case ModePercentage:
		if c.Percentage == nil {
			add("percentage", "is required for percentage components")
		}
	case ModeFormula:
		if c.Formula == nil || validator.IsEmpty(*c.Formula) {
			add("formula", "is required for formula components")
		}
	case ModeAttendanceBased:
		if (c.Value == nil) == (c.Percentage == nil) {
			add("value", "exactly one of value or percentage is required for attendance based components")
		}
	}

	if c.Value != nil && c.Value.IsNegative() {
		add("value", "must be non-negative")
	}
	if c.Percentage != nil && c.Percentage.IsNegative() {
		add("percentage", "must be non-negative")
	}
	if c.BaseComponentID != nil && c.Percentage == nil {
		add("base_component_id", "is only allowed together with percentage")
	}
	if c.MinValue != nil && c.MaxValue != nil && c.MinValue.GreaterThan(*c.MaxValue) {
		add("min_value", "must not exceed max_value")
	}

	return errs
}

func validateComponents(components []ComponentInput) validator.ValidationErrors {
	var errs validator.ValidationErrors
	seen := make(map[string]bool)
	for i, c := range components {
		prefix := fmt.Sprintf("components[%d].", i)
		errs = append(errs, c.validate(prefix)...)
		if seen[c.PayComponentID] {
			errs = append(errs, validator.ValidationError{Field: prefix + "pay_component_id", Message: "is duplicated"})
		}
		seen[c.PayComponentID] = true
	}
	return errs
}

type CreateStructureRequest struct {
	Name          string           `json:"name" validate:"required,max=100"`
	Code          string           `json:"code" validate:"required,max=32"`
	GradeID       *string          `json:"grade_id,omitempty"`
	EffectiveFrom string           `json:"effective_from" validate:"required,date"`
	EffectiveTo   *string          `json:"effective_to,omitempty" validate:"omitempty,date"`
	Components    []ComponentInput `json:"components" validate:"required,min=1,dive"`
}

func (r *CreateStructureRequest) Validate() error {
	errs := validator.Struct(r)
	errs = append(errs, validateComponents(r.Components)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range parses the requested effective range. Call after Validate.
func (r *CreateStructureRequest) Range() (DateRange, error) {
	return parseRange(r.EffectiveFrom, r.EffectiveTo)
}

type SupersedeStructureRequest struct {
	BaseVersionID string           `json:"-"`
	EffectiveFrom string           `json:"effective_from" validate:"required,date"`
	EffectiveTo   *string          `json:"effective_to,omitempty" validate:"omitempty,date"`
	ChangeLog     string           `json:"change_log" validate:"required,max=1000"`
	Components    []ComponentInput `json:"components,omitempty" validate:"omitempty,dive"`
}

func (r *SupersedeStructureRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.BaseVersionID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	errs = append(errs, validateComponents(r.Components)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Range parses the requested effective range. Call after Validate.
func (r *SupersedeStructureRequest) Range() (DateRange, error) {
	return parseRange(r.EffectiveFrom, r.EffectiveTo)
}

func parseRange(from string, to *string) (DateRange, error) {
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return DateRange{}, validator.ValidationErrors{{Field: "effective_from", Message: "must be in YYYY-MM-DD format"}}
	}
	rng := DateRange{From: f}
	if to != nil {
		t, err := time.Parse(dateLayout, *to)
		if err != nil {
			return DateRange{}, validator.ValidationErrors{{Field: "effective_to", Message: "must be in YYYY-MM-DD format"}}
		}
		rng.To = &t
	}
	return rng, nil
}

type StructureComponentResponse struct {
	ID              string           `json:"id"`
	PayComponentID  string           `json:"pay_component_id"`
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Category        string           `json:"category"`
	CalculationMode string           `json:"calculation_mode"`
	Value           *decimal.Decimal `json:"value,omitempty"`
	Percentage      *decimal.Decimal `json:"percentage,omitempty"`
	BaseComponentID *string          `json:"base_component_id,omitempty"`
	Formula         *string          `json:"formula,omitempty"`
	MinValue        *decimal.Decimal `json:"min_value,omitempty"`
	MaxValue        *decimal.Decimal `json:"max_value,omitempty"`
	IsVariable      bool             `json:"is_variable"`
	DisplayOrder    int              `json:"display_order"`
}

type StructureResponse struct {
	ID            string                       `json:"id"`
	Name          string                       `json:"name"`
	Code          string                       `json:"code"`
	GradeID       *string                      `json:"grade_id,omitempty"`
	Version       int                          `json:"version"`
	BaseVersionID *string                      `json:"base_version_id,omitempty"`
	ChangeLog     *string                      `json:"change_log,omitempty"`
	EffectiveFrom string                       `json:"effective_from"`
	EffectiveTo   *string                      `json:"effective_to,omitempty"`
	IsActive      bool                         `json:"is_active"`
	Components    []StructureComponentResponse `json:"components"`
}

// ToResponse maps a structure version to its API shape.
func ToResponse(s Structure) StructureResponse {
	var effectiveTo *string
	if s.EffectiveTo != nil {
		str := s.EffectiveTo.Format(dateLayout)
		effectiveTo = &str
	}

	components := make([]StructureComponentResponse, 0, len(s.Components))
	for _, c := range s.Components {
		components = append(components, StructureComponentResponse{
			ID:              c.ID,
			PayComponentID:  c.PayComponentID,
			Code:            c.Code,
			Name:            c.Name,
			Type:            string(c.Type),
			Category:        string(c.Category),
			CalculationMode: string(c.CalculationMode),
			Value:           c.Value,
			Percentage:      c.Percentage,
			BaseComponentID: c.BaseComponentID,
			Formula:         c.Formula,
			MinValue:        c.MinValue,
			MaxValue:        c.MaxValue,
			IsVariable:      c.IsVariable,
			DisplayOrder:    c.DisplayOrder,
		})
	}

	return StructureResponse{
		ID:            s.ID,
		Name:          s.Name,
		Code:          s.Code,
		GradeID:       s.GradeID,
		Version:       s.Version,
		BaseVersionID: s.BaseVersionID,
		ChangeLog:     s.ChangeLog,
		EffectiveFrom: s.EffectiveFrom.Format(dateLayout),
		EffectiveTo:   effectiveTo,
		IsActive:      s.IsActive,
		Components:    components,
	}
}
