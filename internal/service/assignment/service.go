package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

type AssignmentServiceImpl struct {
	tx             database.Transactor
	assignmentRepo assignment.AssignmentRepository
	structureRepo  structure.StructureRepository
	gradeRepo      grade.GradeRepository
	employeeRepo   employee.EmployeeRepository
	auditLog       audit.Recorder
}

func NewAssignmentService(
	tx database.Transactor,
	assignmentRepo assignment.AssignmentRepository,
	structureRepo structure.StructureRepository,
	gradeRepo grade.GradeRepository,
	employeeRepo employee.EmployeeRepository,
	auditLog audit.Recorder,
) assignment.AssignmentService {
	return &AssignmentServiceImpl{
		tx:             tx,
		assignmentRepo: assignmentRepo,
		structureRepo:  structureRepo,
		gradeRepo:      gradeRepo,
		employeeRepo:   employeeRepo,
		auditLog:       auditLog,
	}
}

// Helper to get company_id and user_id from JWT context
func getClaimsFromContext(ctx context.Context) (companyID, userID string, err error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return "", "", fmt.Errorf("company_id claim is missing or invalid")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

type assignInput struct {
	employeeID     string
	structure      structure.Structure
	ctc            decimal.Decimal
	effectiveFrom  time.Time
	revisionReason *string
	overrides      []assignment.OverrideInput
}

func (s *AssignmentServiceImpl) Assign(ctx context.Context, req assignment.AssignRequest) (assignment.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return assignment.AssignmentResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	st, err := s.structureRepo.GetByID(ctx, req.StructureID, companyID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	created, previous, err := s.assign(ctx, companyID, userID, assignInput{
		employeeID:     req.EmployeeID,
		structure:      st,
		ctc:            req.CTC,
		effectiveFrom:  req.EffectiveDate(),
		revisionReason: req.RevisionReason,
		overrides:      req.Overrides,
	})
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	return s.respond(ctx, companyID, userID, st, created, previous), nil
}

func (s *AssignmentServiceImpl) BulkReassign(ctx context.Context, req assignment.BulkReassignRequest) ([]assignment.BulkReassignResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// A missing structure fails every update the same way, so it fails the call.
	st, err := s.structureRepo.GetByID(ctx, req.StructureID, companyID)
	if err != nil {
		return nil, err
	}
	effectiveFrom, _ := time.Parse("2006-01-02", req.EffectiveDate)

	results := make([]assignment.BulkReassignResult, 0, len(req.Updates))
	succeeded := 0
	for _, u := range req.Updates {
		created, previous, err := s.assign(ctx, companyID, userID, assignInput{
			employeeID:     u.EmployeeID,
			structure:      st,
			ctc:            u.CTC,
			effectiveFrom:  effectiveFrom,
			revisionReason: u.RevisionReason,
			overrides:      u.Overrides,
		})
		if err != nil {
			slog.Warn("bulk reassignment failed for employee",
				"employee_id", u.EmployeeID,
				"structure_id", st.ID,
				"error", err,
			)
			results = append(results, assignment.BulkReassignResult{
				EmployeeID: u.EmployeeID,
				Error:      err.Error(),
				Err:        err,
			})
			continue
		}

		resp := s.respond(ctx, companyID, userID, st, created, previous)
		results = append(results, assignment.BulkReassignResult{
			EmployeeID: u.EmployeeID,
			Success:    true,
			Assignment: &resp,
		})
		succeeded++
	}

	slog.Info("bulk reassignment finished",
		"structure_id", st.ID,
		"company_id", companyID,
		"requested", len(req.Updates),
		"succeeded", succeeded,
	)
	return results, nil
}

// assign validates one assignment against its structure and grade, then
// closes the employee's open assignment and inserts the new one atomically.
// It returns the new assignment and the one it replaced, if any.
func (s *AssignmentServiceImpl) assign(ctx context.Context, companyID, userID string, in assignInput) (assignment.Assignment, *assignment.Assignment, error) {
	if _, err := s.employeeRepo.GetByID(ctx, in.employeeID, companyID); err != nil {
		return assignment.Assignment{}, nil, err
	}

	if !in.structure.Range().Contains(in.effectiveFrom) {
		return assignment.Assignment{}, nil, fmt.Errorf("%w: structure %s version %d covers %s, requested %s",
			assignment.ErrStructureNotActiveForDate, in.structure.Name, in.structure.Version,
			in.structure.Range(), in.effectiveFrom.Format("2006-01-02"))
	}

	if in.structure.GradeID != nil {
		g, err := s.gradeRepo.GetByID(ctx, *in.structure.GradeID, companyID)
		if err != nil {
			return assignment.Assignment{}, nil, err
		}
		if !g.Contains(in.ctc) {
			return assignment.Assignment{}, nil, &assignment.GradeRangeError{CTC: in.ctc, Min: g.MinSalary, Max: g.MaxSalary}
		}
	}

	inStructure := make(map[string]bool, len(in.structure.Components))
	for _, c := range in.structure.Components {
		inStructure[c.PayComponentID] = true
	}
	overrides := make([]assignment.Override, 0, len(in.overrides))
	for _, o := range in.overrides {
		if !inStructure[o.PayComponentID] {
			return assignment.Assignment{}, nil, fmt.Errorf("%w: %s", assignment.ErrOverrideComponentNotInStructure, o.PayComponentID)
		}
		overrides = append(overrides, assignment.Override{PayComponentID: o.PayComponentID, Value: o.Value})
	}

	var (
		created  assignment.Assignment
		previous *assignment.Assignment
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := s.assignmentRepo.GetOpen(ctx, in.employeeID, companyID)
		switch {
		case err == nil:
			if !open.EffectiveFrom.Before(in.effectiveFrom) {
				return fmt.Errorf("%w: current assignment starts %s",
					assignment.ErrEffectiveDateNotAfterCurrent, open.EffectiveFrom.Format("2006-01-02"))
			}
			if err := s.assignmentRepo.Close(ctx, open.ID, companyID, in.effectiveFrom); err != nil {
				return err
			}
			closedAt := in.effectiveFrom
			open.EffectiveTo = &closedAt
			previous = &open
		case errors.Is(err, assignment.ErrAssignmentNotFound):
		default:
			return err
		}

		var approvedBy *string
		if userID != "" {
			approvedBy = &userID
		}
		created, err = s.assignmentRepo.Create(ctx, assignment.Assignment{
			CompanyID:      companyID,
			EmployeeID:     in.employeeID,
			StructureID:    in.structure.ID,
			CTC:            in.ctc,
			EffectiveFrom:  in.effectiveFrom,
			RevisionReason: in.revisionReason,
			ApprovedBy:     approvedBy,
			Overrides:      overrides,
		})
		return err
	})
	if err != nil {
		return assignment.Assignment{}, nil, err
	}

	return created, previous, nil
}

// respond writes the audit entry for a committed assignment and builds its response.
func (s *AssignmentServiceImpl) respond(ctx context.Context, companyID, userID string, st structure.Structure, created assignment.Assignment, previous *assignment.Assignment) assignment.AssignmentResponse {
	resp := assignment.ToResponse(created)
	structResp := structure.ToResponse(st)
	resp.Structure = &structResp

	var before interface{}
	if previous != nil {
		before = assignment.ToResponse(*previous)
	}
	s.auditLog.Log(ctx, companyID, userID, audit.ActionAssignmentCreated, audit.ResourceAssignment, created.ID, before, assignment.ToResponse(created))
	slog.Info("salary assignment created",
		"assignment_id", created.ID,
		"employee_id", created.EmployeeID,
		"structure_id", created.StructureID,
		"company_id", companyID,
	)
	return resp
}

func (s *AssignmentServiceImpl) History(ctx context.Context, employeeID string) ([]assignment.AssignmentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.ListByEmployee(ctx, employeeID, companyID)
	if err != nil {
		return nil, err
	}

	structures := make(map[string]*structure.StructureResponse)
	responses := make([]assignment.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp := assignment.ToResponse(a)
		st, ok := structures[a.StructureID]
		if !ok {
			found, err := s.structureRepo.GetByID(ctx, a.StructureID, companyID)
			if err != nil {
				return nil, err
			}
			r := structure.ToResponse(found)
			st = &r
			structures[a.StructureID] = st
		}
		resp.Structure = st
		responses = append(responses, resp)
	}
	return responses, nil
}

func (s *AssignmentServiceImpl) ActiveAt(ctx context.Context, employeeID string, at time.Time) (assignment.AssignmentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	a, err := s.assignmentRepo.GetActiveAt(ctx, employeeID, companyID, at)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}
	st, err := s.structureRepo.GetByID(ctx, a.StructureID, companyID)
	if err != nil {
		return assignment.AssignmentResponse{}, err
	}

	resp := assignment.ToResponse(a)
	structResp := structure.ToResponse(st)
	resp.Structure = &structResp
	return resp, nil
}
