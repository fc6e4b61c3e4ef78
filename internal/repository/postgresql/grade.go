package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type gradeRepositoryImpl struct {
	db *database.DB
}

func NewGradeRepository(db *database.DB) grade.GradeRepository {
	return &gradeRepositoryImpl{db: db}
}

// Create implements grade.GradeRepository.
func (r *gradeRepositoryImpl) Create(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO grades (id, company_id, name, min_salary, max_salary)
		VALUES (uuidv7(), $1, $2, $3, $4)
		RETURNING id, company_id, name, min_salary, max_salary
	`

	var result grade.Grade
	err := q.QueryRow(ctx, query, g.CompanyID, g.Name, g.MinSalary, g.MaxSalary).Scan(
		&result.ID,
		&result.CompanyID,
		&result.Name,
		&result.MinSalary,
		&result.MaxSalary,
	)

	if isUniqueViolation(err, "uk_grades_company_name") {
		return grade.Grade{}, grade.ErrGradeNameExists
	}
	if err != nil {
		return grade.Grade{}, fmt.Errorf("failed to create grade: %w", err)
	}

	return result, nil
}

// GetByID implements grade.GradeRepository.
func (r *gradeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (grade.Grade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, min_salary, max_salary
		FROM grades
		WHERE id = $1 AND company_id = $2
	`

	var result grade.Grade
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&result.ID,
		&result.CompanyID,
		&result.Name,
		&result.MinSalary,
		&result.MaxSalary,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return grade.Grade{}, grade.ErrGradeNotFound
	}

	if err != nil {
		return grade.Grade{}, fmt.Errorf("failed to get grade: %w", err)
	}

	return result, nil
}

// List implements grade.GradeRepository.
func (r *gradeRepositoryImpl) List(ctx context.Context, companyID string) ([]grade.Grade, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, name, min_salary, max_salary
		FROM grades
		WHERE company_id = $1
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}
	defer rows.Close()

	var grades []grade.Grade
	for rows.Next() {
		var g grade.Grade
		if err := rows.Scan(&g.ID, &g.CompanyID, &g.Name, &g.MinSalary, &g.MaxSalary); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		grades = append(grades, g)
	}

	return grades, rows.Err()
}
