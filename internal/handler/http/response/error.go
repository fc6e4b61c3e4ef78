package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Invariant violations carry
// the error text so the caller sees which rule was broken.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Not found
	case errors.Is(err, structure.ErrStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, structure.ErrPayComponentNotFound):
		NotFound(w, "Pay component not found")
	case errors.Is(err, assignment.ErrAssignmentNotFound):
		NotFound(w, "Salary assignment not found")
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, grade.ErrGradeNotFound):
		NotFound(w, "Grade not found")

	// Conflicts
	case errors.Is(err, structure.ErrDuplicateNameOrCode):
		ConflictWithCode(w, "DUPLICATE_NAME_OR_CODE", err.Error())
	case errors.Is(err, structure.ErrPayComponentCodeExists):
		ConflictWithCode(w, "DUPLICATE_CODE", err.Error())
	case errors.Is(err, structure.ErrOverlappingRange):
		ConflictWithCode(w, "OVERLAPPING_RANGE", err.Error())
	case errors.Is(err, grade.ErrGradeNameExists):
		ConflictWithCode(w, "DUPLICATE_NAME", err.Error())
	case errors.Is(err, assignment.ErrOpenAssignmentExists):
		ConflictWithCode(w, "OPEN_ASSIGNMENT_EXISTS", err.Error())
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		ConflictWithCode(w, "DUPLICATE_PERIOD", err.Error())
	case errors.Is(err, payroll.ErrInvalidRunState):
		ConflictWithCode(w, "INVALID_RUN_STATE", err.Error())

	// Rule violations
	case errors.Is(err, structure.ErrInvertedRange):
		UnprocessableEntity(w, "INVERTED_RANGE", err.Error())
	case errors.Is(err, structure.ErrRangeGap):
		UnprocessableEntity(w, "RANGE_GAP", err.Error())
	case errors.Is(err, structure.ErrUnresolvedBaseReference):
		UnprocessableEntity(w, "UNRESOLVED_BASE_REFERENCE", err.Error())
	case errors.Is(err, structure.ErrInvalidFormula):
		UnprocessableEntity(w, "INVALID_FORMULA", err.Error())
	case errors.Is(err, structure.ErrDuplicateComponent),
		errors.Is(err, structure.ErrInvalidComponentSettings):
		UnprocessableEntity(w, "INVALID_COMPONENT", err.Error())
	case errors.Is(err, assignment.ErrStructureNotActiveForDate):
		UnprocessableEntity(w, "STRUCTURE_NOT_ACTIVE_FOR_DATE", err.Error())
	case errors.Is(err, assignment.ErrCTCOutOfGradeRange):
		UnprocessableEntity(w, "CTC_OUT_OF_GRADE_RANGE", err.Error())
	case errors.Is(err, assignment.ErrEffectiveDateNotAfterCurrent):
		UnprocessableEntity(w, "EFFECTIVE_DATE_NOT_AFTER_CURRENT", err.Error())
	case errors.Is(err, assignment.ErrOverrideComponentNotInStructure):
		UnprocessableEntity(w, "OVERRIDE_NOT_IN_STRUCTURE", err.Error())
	case errors.Is(err, attendance.ErrFactsNotFound):
		UnprocessableEntity(w, "ATTENDANCE_NOT_FOUND", err.Error())
	case errors.Is(err, attendance.ErrInvalidAttendance):
		UnprocessableEntity(w, "INVALID_ATTENDANCE", err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod):
		UnprocessableEntity(w, "INVALID_PERIOD", err.Error())
	case errors.Is(err, payroll.ErrInvalidAdjustment):
		UnprocessableEntity(w, "INVALID_ADJUSTMENT", err.Error())

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
