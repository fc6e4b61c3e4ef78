package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

type PayrollService interface {
	CreateRun(ctx context.Context, req CreateRunRequest) (CreateRunResponse, error)
	Approve(ctx context.Context, req ApproveRunRequest) (RunResponse, error)
	Reject(ctx context.Context, req RejectRunRequest) (RunResponse, error)
	Recalculate(ctx context.Context, runID string) (CreateRunResponse, error)
	DeleteRun(ctx context.Context, runID string) error

	GetRun(ctx context.Context, runID string) (RunResponse, error)
	// ListRuns returns every run when status is empty.
	ListRuns(ctx context.Context, status RunStatus) ([]RunResponse, error)
	ListRecords(ctx context.Context, runID string) ([]RecordResponse, error)
	ListAdjustments(ctx context.Context, runID string) ([]AdjustmentResponse, error)
	GetRecord(ctx context.Context, recordID string) (RecordResponse, error)
	Preview(ctx context.Context, req PreviewRequest) (RecordResponse, error)
}

// Calculator computes payroll records without persisting them.
type Calculator interface {
	Calculate(ctx context.Context, companyID, employeeID string, period Period, facts attendance.Facts) (Record, error)
	// CalculateBulk returns a systemic error only when the batch cannot be
	// trusted. Employee scoped problems are reported in BulkResult.Failures.
	CalculateBulk(ctx context.Context, companyID string, employeeIDs []string, period Period) (BulkResult, error)
	// MinorUnits is the number of decimals every persisted amount carries.
	MinorUnits() int32
}
