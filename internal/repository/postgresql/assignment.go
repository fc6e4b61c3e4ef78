package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type assignmentRepository struct {
	db *database.DB
	tx database.Transactor
}

func NewAssignmentRepository(db *database.DB) assignment.AssignmentRepository {
	return &assignmentRepository{db: db, tx: NewTransactor(db)}
}

const assignmentColumns = `id, company_id, employee_id, structure_id, ctc, effective_from, effective_to,
	revision_reason, approved_by, created_at, updated_at`

func scanAssignment(row pgx.Row) (assignment.Assignment, error) {
	var a assignment.Assignment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.StructureID, &a.CTC, &a.EffectiveFrom, &a.EffectiveTo,
		&a.RevisionReason, &a.ApprovedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *assignmentRepository) Create(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	var created assignment.Assignment
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO employee_salary_assignments (
				id, company_id, employee_id, structure_id, ctc, effective_from, effective_to,
				revision_reason, approved_by
			) VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + assignmentColumns

		var err error
		created, err = scanAssignment(q.QueryRow(ctx, query,
			a.CompanyID, a.EmployeeID, a.StructureID, a.CTC, a.EffectiveFrom, a.EffectiveTo,
			a.RevisionReason, a.ApprovedBy,
		))
		if err != nil {
			if isUniqueViolation(err, "uk_assignment_open") {
				return assignment.ErrOpenAssignmentExists
			}
			return fmt.Errorf("failed to create salary assignment: %w", err)
		}

		for _, o := range a.Overrides {
			_, err := q.Exec(ctx,
				`INSERT INTO employee_salary_overrides (assignment_id, pay_component_id, value) VALUES ($1, $2, $3)`,
				created.ID, o.PayComponentID, o.Value,
			)
			if err != nil {
				return fmt.Errorf("failed to create salary override: %w", err)
			}
		}
		created.Overrides = append([]assignment.Override(nil), a.Overrides...)
		return nil
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return created, nil
}

func (r *assignmentRepository) getOne(ctx context.Context, query string, args ...interface{}) (assignment.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAssignment(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Assignment{}, assignment.ErrAssignmentNotFound
		}
		return assignment.Assignment{}, fmt.Errorf("failed to get salary assignment: %w", err)
	}

	a.Overrides, err = r.overrides(ctx, a.ID)
	if err != nil {
		return assignment.Assignment{}, err
	}
	return a, nil
}

func (r *assignmentRepository) overrides(ctx context.Context, assignmentID string) ([]assignment.Override, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT pay_component_id, value FROM employee_salary_overrides WHERE assignment_id = $1 ORDER BY pay_component_id`,
		assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary overrides: %w", err)
	}
	defer rows.Close()

	var overrides []assignment.Override
	for rows.Next() {
		var o assignment.Override
		if err := rows.Scan(&o.PayComponentID, &o.Value); err != nil {
			return nil, fmt.Errorf("failed to scan salary override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (r *assignmentRepository) GetOpen(ctx context.Context, employeeID, companyID string) (assignment.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM employee_salary_assignments
		WHERE employee_id = $1 AND company_id = $2 AND effective_to IS NULL
	`
	return r.getOne(ctx, query, employeeID, companyID)
}

func (r *assignmentRepository) GetActiveAt(ctx context.Context, employeeID, companyID string, at time.Time) (assignment.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM employee_salary_assignments
		WHERE employee_id = $1 AND company_id = $2
		  AND effective_from <= $3 AND (effective_to IS NULL OR effective_to > $3)
		ORDER BY effective_from DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, employeeID, companyID, at)
}

func (r *assignmentRepository) ListByEmployee(ctx context.Context, employeeID, companyID string) ([]assignment.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + assignmentColumns + `
		FROM employee_salary_assignments
		WHERE employee_id = $1 AND company_id = $2
		ORDER BY effective_from DESC
	`

	rows, err := q.Query(ctx, query, employeeID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary assignments: %w", err)
	}

	var assignments []assignment.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan salary assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	for i := range assignments {
		assignments[i].Overrides, err = r.overrides(ctx, assignments[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return assignments, nil
}

func (r *assignmentRepository) Close(ctx context.Context, id string, companyID string, effectiveTo time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_salary_assignments
		SET effective_to = $1, updated_at = NOW()
		WHERE id = $2 AND company_id = $3
	`

	commandTag, err := q.Exec(ctx, query, effectiveTo, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to close salary assignment: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}
