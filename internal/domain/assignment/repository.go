package assignment

import (
	"context"
	"time"
)

// AssignmentRepository defines data access methods for salary assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	// GetOpen returns the assignment of employeeID whose effective_to is null.
	GetOpen(ctx context.Context, employeeID, companyID string) (Assignment, error)
	GetActiveAt(ctx context.Context, employeeID, companyID string, at time.Time) (Assignment, error)
	// ListByEmployee returns assignments ordered by effective_from descending.
	ListByEmployee(ctx context.Context, employeeID, companyID string) ([]Assignment, error)
	Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error
}
