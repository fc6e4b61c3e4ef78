package structure

import (
	"context"
	"time"
)

// StructureRepository defines data access methods for salary structures.
// All methods include companyID parameter to prevent cross-company data access attacks.
type StructureRepository interface {
	// Pay component catalog
	CreatePayComponent(ctx context.Context, component PayComponent) (PayComponent, error)
	GetPayComponentsByIDs(ctx context.Context, companyID string, ids []string) ([]PayComponent, error)
	ListPayComponents(ctx context.Context, companyID string, activeOnly bool) ([]PayComponent, error)

	// Versions
	ExistsByNameOrCode(ctx context.Context, companyID, name, code string) (bool, error)
	Create(ctx context.Context, s Structure) (Structure, error)
	GetByID(ctx context.Context, id string, companyID string) (Structure, error)
	// ListByName returns every version of name ordered by effective_from ascending.
	ListByName(ctx context.Context, companyID, name string) ([]Structure, error)
	// ListActiveAt returns, per name, the version whose range contains asOf.
	ListActiveAt(ctx context.Context, companyID string, asOf time.Time) ([]Structure, error)
	Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error
}
