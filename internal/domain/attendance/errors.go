package attendance

import (
	"errors"
	"fmt"
)

var (
	ErrFactsNotFound     = errors.New("attendance facts not found for period")
	ErrInvalidAttendance = errors.New("invalid attendance facts")
)

type InvalidFactsError struct {
	EmployeeID string
	Reason     string
}

func (e *InvalidFactsError) Error() string {
	return fmt.Sprintf("%s for employee %s: %s", ErrInvalidAttendance.Error(), e.EmployeeID, e.Reason)
}

func (e *InvalidFactsError) Unwrap() error { return ErrInvalidAttendance }
