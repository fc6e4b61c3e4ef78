package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== RUNS ==========

const runColumns = `id, company_id, period, status, total_gross, total_net, total_deductions,
	employee_count, failed_count, failure_reason, rejection_reason, created_by, approved_by, approved_at,
	created_at, updated_at`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.Period, &run.Status, &run.TotalGross, &run.TotalNet, &run.TotalDeductions,
		&run.EmployeeCount, &run.FailedCount, &run.FailureReason, &run.RejectionReason,
		&run.CreatedBy, &run.ApprovedBy, &run.ApprovedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (id, company_id, period, status, total_gross, total_net, total_deductions, created_by)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query,
		run.CompanyID, run.Period, run.Status, run.TotalGross, run.TotalNet, run.TotalDeductions, run.CreatedBy,
	))
	if err != nil {
		if isUniqueViolation(err, "uk_payroll_runs_company_period") {
			return payroll.Run{}, payroll.ErrDuplicatePeriod
		}
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (r *payrollRepository) getRun(ctx context.Context, query string, args ...interface{}) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	run, err := scanRun(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.getRun(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1 AND company_id = $2`, id, companyID)
}

func (r *payrollRepository) GetRunForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.getRun(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

func (r *payrollRepository) ListRuns(ctx context.Context, companyID string) ([]payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE company_id = $1 ORDER BY period DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return runs, nil
}

func (r *payrollRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE status = 'draft' AND updated_at < $1 ORDER BY updated_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale payroll runs: %w", err)
	}
	defer rows.Close()

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (payroll.Run, error) {
		return scanRun(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payroll run: %w", err)
	}
	return runs, nil
}

func (r *payrollRepository) UpdateRun(ctx context.Context, run payroll.Run) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs SET
			status = $1, total_gross = $2, total_net = $3, total_deductions = $4,
			employee_count = $5, failed_count = $6, failure_reason = $7, rejection_reason = $8,
			approved_by = $9, approved_at = $10, updated_at = NOW()
		WHERE id = $11 AND company_id = $12
	`

	commandTag, err := q.Exec(ctx, query,
		run.Status, run.TotalGross, run.TotalNet, run.TotalDeductions,
		run.EmployeeCount, run.FailedCount, run.FailureReason, run.RejectionReason,
		run.ApprovedBy, run.ApprovedAt, run.ID, run.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll run: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}
	return nil
}

// DeleteRun removes the run; records and adjustments go with it by cascade.
func (r *payrollRepository) DeleteRun(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM payroll_runs WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll run: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.ErrRunNotFound
	}
	return nil
}

// ========== RECORDS ==========

const recordColumns = `id, run_id, company_id, employee_id, assignment_id, structure_id, ctc, basic_salary,
	total_earnings, gross_salary, total_deductions, net_salary, earnings_detail, deductions_detail,
	working_days, present_days, absent_days, lop_days, lop_amount, overtime_hours, overtime_amount,
	pf_amount, esi_amount, tds_amount, pt_amount, adjustment_amount, status, notes, created_at, updated_at`

func scanRecord(row pgx.Row) (payroll.Record, error) {
	var rec payroll.Record
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.CompanyID, &rec.EmployeeID, &rec.AssignmentID, &rec.StructureID, &rec.CTC, &rec.BasicSalary,
		&rec.TotalEarnings, &rec.GrossSalary, &rec.TotalDeductions, &rec.NetSalary, &rec.Earnings, &rec.Deductions,
		&rec.WorkingDays, &rec.PresentDays, &rec.AbsentDays, &rec.LOPDays, &rec.LOPAmount, &rec.OvertimeHours, &rec.OvertimeAmount,
		&rec.PFAmount, &rec.ESIAmount, &rec.TDSAmount, &rec.PTAmount, &rec.AdjustmentAmount, &rec.Status, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// CreateRecords inserts every record of a batch in one round trip.
func (r *payrollRepository) CreateRecords(ctx context.Context, records []payroll.Record) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_run_records (
			id, run_id, company_id, employee_id, assignment_id, structure_id, ctc, basic_salary,
			total_earnings, gross_salary, total_deductions, net_salary, earnings_detail, deductions_detail,
			working_days, present_days, absent_days, lop_days, lop_amount, overtime_hours, overtime_amount,
			pf_amount, esi_amount, tds_amount, pt_amount, adjustment_amount, status, notes
		) VALUES (
			uuidv7(), $1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27
		)
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.RunID, rec.CompanyID, rec.EmployeeID, rec.AssignmentID, rec.StructureID, rec.CTC, rec.BasicSalary,
			rec.TotalEarnings, rec.GrossSalary, rec.TotalDeductions, rec.NetSalary, lineItems(rec.Earnings), lineItems(rec.Deductions),
			rec.WorkingDays, rec.PresentDays, rec.AbsentDays, rec.LOPDays, rec.LOPAmount, rec.OvertimeHours, rec.OvertimeAmount,
			rec.PFAmount, rec.ESIAmount, rec.TDSAmount, rec.PTAmount, rec.AdjustmentAmount, rec.Status, rec.Notes,
		)
	}

	var br pgx.BatchResults
	if tx, ok := q.(pgx.Tx); ok {
		br = tx.SendBatch(ctx, batch)
	} else {
		br = r.db.SendBatch(ctx, batch)
	}
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to create payroll record: %w", err)
		}
	}
	return br.Close()
}

func lineItems(items []payroll.LineItem) []payroll.LineItem {
	if items == nil {
		return []payroll.LineItem{}
	}
	return items
}

func (r *payrollRepository) GetRecordByID(ctx context.Context, id string, companyID string) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanRecord(q.QueryRow(ctx, `SELECT `+recordColumns+` FROM payroll_run_records WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepository) ListRecordsByRun(ctx context.Context, runID string, companyID string) ([]payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT `+recordColumns+` FROM payroll_run_records WHERE run_id = $1 AND company_id = $2 ORDER BY employee_id`,
		runID, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return records, nil
}

func (r *payrollRepository) UpdateRecord(ctx context.Context, rec payroll.Record) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_run_records SET
			total_earnings = $1, gross_salary = $2, total_deductions = $3, net_salary = $4,
			earnings_detail = $5, deductions_detail = $6, adjustment_amount = $7, status = $8, notes = $9,
			updated_at = NOW()
		WHERE id = $10 AND company_id = $11
	`

	commandTag, err := q.Exec(ctx, query,
		rec.TotalEarnings, rec.GrossSalary, rec.TotalDeductions, rec.NetSalary,
		lineItems(rec.Earnings), lineItems(rec.Deductions), rec.AdjustmentAmount, rec.Status, rec.Notes,
		rec.ID, rec.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll record: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return payroll.ErrRecordNotFound
	}
	return nil
}

func (r *payrollRepository) UpdateRecordStatusByRun(ctx context.Context, runID string, companyID string, status payroll.RecordStatus) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx,
		`UPDATE payroll_run_records SET status = $1, updated_at = NOW() WHERE run_id = $2 AND company_id = $3`,
		status, runID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payroll record status: %w", err)
	}
	return nil
}

func (r *payrollRepository) DeleteRecordsByRun(ctx context.Context, runID string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM payroll_run_records WHERE run_id = $1 AND company_id = $2`, runID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete payroll records: %w", err)
	}
	return nil
}

func (r *payrollRepository) SumRecords(ctx context.Context, runID string, companyID string) (payroll.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(gross_salary), 0), COALESCE(SUM(net_salary), 0),
			   COALESCE(SUM(total_deductions), 0), COUNT(*)
		FROM payroll_run_records
		WHERE run_id = $1 AND company_id = $2
	`

	var t payroll.Totals
	if err := q.QueryRow(ctx, query, runID, companyID).Scan(&t.Gross, &t.Net, &t.Deductions, &t.EmployeeCount); err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to sum payroll records: %w", err)
	}
	return t, nil
}

// ========== ADJUSTMENTS ==========

const adjustmentColumns = `id, run_id, record_id, type, amount, net_before, net_after, reason, created_by, created_at`

func scanAdjustment(row pgx.Row) (payroll.Adjustment, error) {
	var a payroll.Adjustment
	err := row.Scan(&a.ID, &a.RunID, &a.RecordID, &a.Type, &a.Amount, &a.NetBefore, &a.NetAfter, &a.Reason, &a.CreatedBy, &a.CreatedAt)
	return a, err
}

func (r *payrollRepository) CreateAdjustment(ctx context.Context, adjustment payroll.Adjustment) (payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_adjustments (id, run_id, record_id, type, amount, net_before, net_after, reason, created_by)
		VALUES (uuidv7(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + adjustmentColumns

	a, err := scanAdjustment(q.QueryRow(ctx, query,
		adjustment.RunID, adjustment.RecordID, adjustment.Type, adjustment.Amount,
		adjustment.NetBefore, adjustment.NetAfter, adjustment.Reason, adjustment.CreatedBy,
	))
	if err != nil {
		return payroll.Adjustment{}, fmt.Errorf("failed to create payroll adjustment: %w", err)
	}
	return a, nil
}

func (r *payrollRepository) ListAdjustmentsByRun(ctx context.Context, runID string, companyID string) ([]payroll.Adjustment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT a.id, a.run_id, a.record_id, a.type, a.amount, a.net_before, a.net_after, a.reason, a.created_by, a.created_at
		FROM payroll_adjustments a
		JOIN payroll_runs r ON r.id = a.run_id
		WHERE a.run_id = $1 AND r.company_id = $2
		ORDER BY a.created_at ASC, a.id ASC
	`

	rows, err := q.Query(ctx, query, runID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []payroll.Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll adjustment: %w", err)
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return adjustments, nil
}
