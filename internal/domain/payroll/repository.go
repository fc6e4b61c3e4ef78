package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll runs, records and adjustments.
// All methods include companyID parameter to prevent cross-company data access attacks.
type PayrollRepository interface {
	// Runs
	// CreateRun returns ErrDuplicatePeriod when the company already has a run for the period.
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRunByID(ctx context.Context, id string, companyID string) (Run, error)
	// GetRunForUpdate reads a run and locks it until the surrounding transaction ends.
	GetRunForUpdate(ctx context.Context, id string, companyID string) (Run, error)
	ListRuns(ctx context.Context, companyID string) ([]Run, error)
	UpdateRun(ctx context.Context, run Run) error
	DeleteRun(ctx context.Context, id string, companyID string) error
	// ListStaleDrafts returns draft runs of every company last updated before cutoff.
	ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]Run, error)

	// Records
	CreateRecords(ctx context.Context, records []Record) error
	GetRecordByID(ctx context.Context, id string, companyID string) (Record, error)
	ListRecordsByRun(ctx context.Context, runID string, companyID string) ([]Record, error)
	UpdateRecord(ctx context.Context, record Record) error
	UpdateRecordStatusByRun(ctx context.Context, runID string, companyID string, status RecordStatus) error
	DeleteRecordsByRun(ctx context.Context, runID string, companyID string) error
	// SumRecords aggregates the persisted records of a run.
	SumRecords(ctx context.Context, runID string, companyID string) (Totals, error)

	// Adjustments
	CreateAdjustment(ctx context.Context, adjustment Adjustment) (Adjustment, error)
	ListAdjustmentsByRun(ctx context.Context, runID string, companyID string) ([]Adjustment, error)
}
