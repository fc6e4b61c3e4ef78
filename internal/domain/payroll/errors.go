package payroll

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRunNotFound            = errors.New("payroll run not found")
	ErrRecordNotFound         = errors.New("payroll record not found")
	ErrDuplicatePeriod        = errors.New("payroll run already exists for this period")
	ErrInvalidRunState        = errors.New("operation not allowed in current payroll run state")
	ErrInvalidPeriod          = errors.New("invalid payroll period")
	ErrNoEmployees            = errors.New("no employees to calculate")
	ErrAllCalculationsFailed  = errors.New("payroll calculation failed for every employee")
	ErrInvalidAdjustment      = errors.New("invalid payroll adjustment")
	ErrCalculationInterrupted = errors.New("payroll calculation was interrupted before completing")
)

// RunStateError names the state a run was in and the states the operation needs.
type RunStateError struct {
	RunID     string
	Current   RunStatus
	Required  []RunStatus
	Operation string
}

func (e *RunStateError) Error() string {
	required := make([]string, 0, len(e.Required))
	for _, s := range e.Required {
		required = append(required, string(s))
	}
	return fmt.Sprintf("%s: cannot %s run %s in status %s (requires %s)",
		ErrInvalidRunState.Error(), e.Operation, e.RunID, e.Current, strings.Join(required, " or "))
}

func (e *RunStateError) Unwrap() error { return ErrInvalidRunState }

// SystemicError marks a calculation failure that is not attributable to a
// single employee and must abort the whole batch.
type SystemicError struct {
	EmployeeID string
	Err        error
}

func (e *SystemicError) Error() string {
	return fmt.Sprintf("payroll calculation aborted at employee %s: %v", e.EmployeeID, e.Err)
}

func (e *SystemicError) Unwrap() error { return e.Err }
