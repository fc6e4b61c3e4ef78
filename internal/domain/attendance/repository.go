package attendance

import (
	"context"
)

// Source supplies reconciled attendance facts for payroll.
type Source interface {
	GetFacts(ctx context.Context, companyID, employeeID, period string) (Facts, error)
	// GetFactsBulk returns facts keyed by employee id. Employees without facts
	// are absent from the map.
	GetFactsBulk(ctx context.Context, companyID, period string, employeeIDs []string) (map[string]Facts, error)
}
