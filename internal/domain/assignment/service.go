package assignment

import (
	"context"
	"time"
)

type AssignmentService interface {
	Assign(ctx context.Context, req AssignRequest) (AssignmentResponse, error)
	History(ctx context.Context, employeeID string) ([]AssignmentResponse, error)
	ActiveAt(ctx context.Context, employeeID string, at time.Time) (AssignmentResponse, error)
	BulkReassign(ctx context.Context, req BulkReassignRequest) ([]BulkReassignResult, error)
}
