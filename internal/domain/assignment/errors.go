package assignment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAssignmentNotFound              = errors.New("salary assignment not found")
	ErrStructureNotActiveForDate       = errors.New("salary structure is not active for the effective date")
	ErrCTCOutOfGradeRange              = errors.New("ctc is outside the grade salary range")
	ErrEffectiveDateNotAfterCurrent    = errors.New("effective date must be after the current assignment's effective date")
	ErrOverrideComponentNotInStructure = errors.New("override component is not part of the salary structure")
	ErrOpenAssignmentExists            = errors.New("employee already has an open salary assignment")
)

// GradeRangeError carries the bounds a CTC was checked against.
type GradeRangeError struct {
	CTC decimal.Decimal
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func (e *GradeRangeError) Error() string {
	bound := func(d *decimal.Decimal) string {
		if d == nil {
			return "unbounded"
		}
		return d.String()
	}
	return fmt.Sprintf("%s: ctc %s not in [%s, %s]", ErrCTCOutOfGradeRange.Error(), e.CTC.String(), bound(e.Min), bound(e.Max))
}

func (e *GradeRangeError) Unwrap() error { return ErrCTCOutOfGradeRange }
