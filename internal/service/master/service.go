package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/go-chi/jwtauth/v5"
)

// MasterService manages the master data payroll depends on. Grades carry the
// salary band that assignments are checked against.
type MasterService interface {
	CreateGrade(ctx context.Context, req grade.CreateGradeRequest) (grade.GradeResponse, error)
	GetGrade(ctx context.Context, id string) (grade.GradeResponse, error)
	ListGrades(ctx context.Context) ([]grade.GradeResponse, error)
}

type masterServiceImpl struct {
	gradeRepo grade.GradeRepository
	auditLog  audit.Recorder
}

func NewMasterService(gradeRepo grade.GradeRepository, auditLog audit.Recorder) MasterService {
	return &masterServiceImpl{
		gradeRepo: gradeRepo,
		auditLog:  auditLog,
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
		return "", "", fmt.Errorf("company_id not found in token")
	}

	userID, _ = claims["user_id"].(string)

	return companyID, userID, nil
}

// ==================== GRADE OPERATIONS ====================

func (s *masterServiceImpl) CreateGrade(ctx context.Context, req grade.CreateGradeRequest) (grade.GradeResponse, error) {
	if err := req.Validate(); err != nil {
		return grade.GradeResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return grade.GradeResponse{}, err
	}

	created, err := s.gradeRepo.Create(ctx, grade.Grade{
		CompanyID: companyID,
		Name:      req.Name,
		MinSalary: req.MinSalary,
		MaxSalary: req.MaxSalary,
	})
	if err != nil {
		if errors.Is(err, grade.ErrGradeNameExists) {
			return grade.GradeResponse{}, err
		}
		return grade.GradeResponse{}, fmt.Errorf("failed to create grade: %w", err)
	}

	response := grade.ToResponse(created)
	s.auditLog.Log(ctx, companyID, userID, audit.ActionGradeCreated, audit.ResourceGrade, created.ID, nil, response)
	slog.Info("grade created", "grade_id", created.ID, "company_id", companyID)

	return response, nil
}

func (s *masterServiceImpl) GetGrade(ctx context.Context, id string) (grade.GradeResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return grade.GradeResponse{}, err
	}

	g, err := s.gradeRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return grade.GradeResponse{}, err
	}

	return grade.ToResponse(g), nil
}

func (s *masterServiceImpl) ListGrades(ctx context.Context) ([]grade.GradeResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	grades, err := s.gradeRepo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	responses := make([]grade.GradeResponse, 0, len(grades))
	for _, g := range grades {
		responses = append(responses, grade.ToResponse(g))
	}
	return responses, nil
}
