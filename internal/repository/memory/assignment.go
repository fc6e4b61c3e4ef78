package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
)

type assignmentRepository struct {
	s *Store
}

func NewAssignmentRepository(s *Store) assignment.AssignmentRepository {
	return &assignmentRepository{s: s}
}

func (r *assignmentRepository) Create(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	defer r.s.lock(ctx)()

	if a.EffectiveTo == nil {
		for _, existing := range r.s.state.assignments {
			if existing.CompanyID == a.CompanyID && existing.EmployeeID == a.EmployeeID && existing.EffectiveTo == nil {
				return assignment.Assignment{}, assignment.ErrOpenAssignmentExists
			}
		}
	}

	now := time.Now()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Overrides = slices.Clone(a.Overrides)
	r.s.state.assignments[a.ID] = a
	return copyAssignment(a), nil
}

func (r *assignmentRepository) GetOpen(ctx context.Context, employeeID, companyID string) (assignment.Assignment, error) {
	defer r.s.rlock(ctx)()

	for _, a := range r.s.state.assignments {
		if a.CompanyID == companyID && a.EmployeeID == employeeID && a.EffectiveTo == nil {
			return copyAssignment(a), nil
		}
	}
	return assignment.Assignment{}, assignment.ErrAssignmentNotFound
}

func (r *assignmentRepository) GetActiveAt(ctx context.Context, employeeID, companyID string, at time.Time) (assignment.Assignment, error) {
	defer r.s.rlock(ctx)()

	for _, a := range r.s.state.assignments {
		if a.CompanyID == companyID && a.EmployeeID == employeeID && a.Range().Contains(at) {
			return copyAssignment(a), nil
		}
	}
	return assignment.Assignment{}, assignment.ErrAssignmentNotFound
}

func (r *assignmentRepository) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]assignment.Assignment, error) {
	defer r.s.rlock(ctx)()

	var out []assignment.Assignment
	for _, a := range r.s.state.assignments {
		if a.CompanyID == companyID && a.EmployeeID == employeeID {
			out = append(out, copyAssignment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.After(out[j].EffectiveFrom) })
	return out, nil
}

func (r *assignmentRepository) Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error {
	defer r.s.lock(ctx)()

	a, ok := r.s.state.assignments[id]
	if !ok || a.CompanyID != companyID {
		return assignment.ErrAssignmentNotFound
	}
	a.EffectiveTo = &effectiveTo
	a.UpdatedAt = time.Now()
	r.s.state.assignments[id] = a
	return nil
}

func copyAssignment(a assignment.Assignment) assignment.Assignment {
	a.Overrides = slices.Clone(a.Overrides)
	return a
}
