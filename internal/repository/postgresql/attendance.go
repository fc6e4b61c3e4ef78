package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// attendanceSource reads the period summaries the attendance module reconciles.
type attendanceSource struct {
	db *database.DB
}

func NewAttendanceSource(db *database.DB) attendance.Source {
	return &attendanceSource{db: db}
}

const factsColumns = `employee_id, period, working_days, present_days, absent_days, lop_days, overtime_hours`

func scanFacts(row pgx.Row) (attendance.Facts, error) {
	var f attendance.Facts
	err := row.Scan(&f.EmployeeID, &f.Period, &f.WorkingDays, &f.PresentDays, &f.AbsentDays, &f.LOPDays, &f.OvertimeHours)
	return f, err
}

// GetFacts implements attendance.Source.
func (a *attendanceSource) GetFacts(ctx context.Context, companyID, employeeID, period string) (attendance.Facts, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + factsColumns + `
		FROM attendance_summaries
		WHERE company_id = $1 AND employee_id = $2 AND period = $3
	`

	f, err := scanFacts(q.QueryRow(ctx, query, companyID, employeeID, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Facts{}, fmt.Errorf("employee %s period %s: %w", employeeID, period, attendance.ErrFactsNotFound)
		}
		return attendance.Facts{}, fmt.Errorf("failed to get attendance summary: %w", err)
	}
	return f, nil
}

// GetFactsBulk implements attendance.Source.
func (a *attendanceSource) GetFactsBulk(ctx context.Context, companyID, period string, employeeIDs []string) (map[string]attendance.Facts, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + factsColumns + `
		FROM attendance_summaries
		WHERE company_id = $1 AND period = $2 AND employee_id = ANY($3::uuid[])
	`

	rows, err := q.Query(ctx, query, companyID, period, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance summaries: %w", err)
	}
	defer rows.Close()

	facts := make(map[string]attendance.Facts, len(employeeIDs))
	for rows.Next() {
		f, err := scanFacts(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		facts[f.EmployeeID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return facts, nil
}
