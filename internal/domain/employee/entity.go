package employee

import "time"

// Employee - the slice of the HR employee record payroll depends on
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	DeletedAt        *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
