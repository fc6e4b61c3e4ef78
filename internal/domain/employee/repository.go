package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	// GetActiveIDs returns the ids of employees that are active and not deleted.
	GetActiveIDs(ctx context.Context, companyID string) ([]string, error)
}
