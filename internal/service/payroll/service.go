package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	tx           database.Transactor
	payrollRepo  payroll.PayrollRepository
	employeeRepo employee.EmployeeRepository
	attendance   attendance.Source
	calculator   payroll.Calculator
	auditLog     audit.Recorder
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceSource attendance.Source,
	calculator payroll.Calculator,
	auditLog audit.Recorder,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:           tx,
		payrollRepo:  payrollRepo,
		employeeRepo: employeeRepo,
		attendance:   attendanceSource,
		calculator:   calculator,
		auditLog:     auditLog,
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

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) CreateRun(ctx context.Context, req payroll.CreateRunRequest) (payroll.CreateRunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.CreateRunResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}

	period, err := payroll.ParsePeriod(req.Period)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}

	run, err := s.payrollRepo.CreateRun(ctx, payroll.Run{
		CompanyID:       companyID,
		Period:          period.String(),
		Status:          payroll.RunStatusDraft,
		TotalGross:      decimal.Zero,
		TotalNet:        decimal.Zero,
		TotalDeductions: decimal.Zero,
		CreatedBy:       optional(userID),
	})
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}
	s.auditLog.Log(ctx, companyID, userID, audit.ActionRunCreated, audit.ResourceRun, run.ID, nil, payroll.ToRunResponse(run))

	return s.calculateRun(ctx, run, period, req.EmployeeIDs)
}

// calculateRun computes a draft run. A systemic failure or a batch with no
// successes leaves the run failed without records; otherwise records and the
// completed run are written in one transaction.
func (s *PayrollServiceImpl) calculateRun(ctx context.Context, run payroll.Run, period payroll.Period, employeeIDs []string) (payroll.CreateRunResponse, error) {
	logger := slog.With("run_id", run.ID, "period", run.Period, "company_id", run.CompanyID)

	cohort, err := s.cohort(ctx, run.CompanyID, employeeIDs)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}
	if len(cohort) == 0 {
		return s.fail(ctx, run, payroll.ErrNoEmployees.Error(), 0, nil)
	}

	started := time.Now()
	result, err := s.calculator.CalculateBulk(ctx, run.CompanyID, cohort, period)
	if err != nil {
		logger.Error("payroll run failed", "error", err)
		return s.fail(ctx, run, err.Error(), len(cohort), nil)
	}
	if len(result.Records) == 0 {
		logger.Warn("payroll run has no successful calculations", "failed", len(result.Failures))
		return s.fail(ctx, run, payroll.ErrAllCalculationsFailed.Error(), len(result.Failures), result.Failures)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockDraft(ctx, run, "complete"); err != nil {
			return err
		}

		records := make([]payroll.Record, 0, len(result.Records))
		for _, rec := range result.Records {
			rec.RunID = run.ID
			rec.CompanyID = run.CompanyID
			rec.Status = payroll.RecordStatusCalculated
			records = append(records, rec)
		}
		if err := s.payrollRepo.CreateRecords(ctx, records); err != nil {
			return err
		}

		totals, err := s.payrollRepo.SumRecords(ctx, run.ID, run.CompanyID)
		if err != nil {
			return err
		}
		applyTotals(&run, totals)
		run.Status = payroll.RunStatusCompleted
		run.FailedCount = len(result.Failures)
		run.FailureReason = nil
		run.RejectionReason = nil
		return s.payrollRepo.UpdateRun(ctx, run)
	})
	if errors.Is(err, payroll.ErrInvalidRunState) {
		logger.Warn("payroll run changed state during calculation", "error", err)
		return payroll.CreateRunResponse{}, err
	}
	if err != nil {
		logger.Error("failed to persist payroll run", "error", err)
		if _, failErr := s.fail(ctx, run, err.Error(), len(cohort), nil); failErr != nil {
			logger.Error("failed to mark payroll run as failed", "error", failErr)
		}
		return payroll.CreateRunResponse{}, err
	}

	logger.Info("payroll run completed",
		"employees", run.EmployeeCount,
		"failed", run.FailedCount,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return payroll.CreateRunResponse{
		Run:      payroll.ToRunResponse(run),
		Failures: payroll.ToFailureResponses(result.Failures),
	}, nil
}

func (s *PayrollServiceImpl) fail(ctx context.Context, run payroll.Run, reason string, failedCount int, failures []payroll.CalculationFailure) (payroll.CreateRunResponse, error) {
	run.Status = payroll.RunStatusFailed
	run.FailureReason = &reason
	run.FailedCount = failedCount
	applyTotals(&run, payroll.Totals{Gross: decimal.Zero, Net: decimal.Zero, Deductions: decimal.Zero})

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockDraft(ctx, run, "fail"); err != nil {
			return err
		}
		return s.payrollRepo.UpdateRun(ctx, run)
	})
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}
	return payroll.CreateRunResponse{
		Run:      payroll.ToRunResponse(run),
		Failures: payroll.ToFailureResponses(failures),
	}, nil
}

// lockDraft re-reads run under lock and requires it to still be a draft. The
// interrupted-run sweeper fails drafts whose calculation outlives its window.
func (s *PayrollServiceImpl) lockDraft(ctx context.Context, run payroll.Run, operation string) error {
	current, err := s.payrollRepo.GetRunForUpdate(ctx, run.ID, run.CompanyID)
	if err != nil {
		return err
	}
	if current.Status != payroll.RunStatusDraft {
		return &payroll.RunStateError{
			RunID:     run.ID,
			Current:   current.Status,
			Required:  []payroll.RunStatus{payroll.RunStatusDraft},
			Operation: operation,
		}
	}
	return nil
}

// cohort returns the requested employees without duplicates, or every active
// employee when none were requested.
func (s *PayrollServiceImpl) cohort(ctx context.Context, companyID string, employeeIDs []string) ([]string, error) {
	if len(employeeIDs) == 0 {
		return s.employeeRepo.GetActiveIDs(ctx, companyID)
	}

	seen := make(map[string]bool, len(employeeIDs))
	out := make([]string, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func applyTotals(run *payroll.Run, totals payroll.Totals) {
	run.TotalGross = totals.Gross
	run.TotalNet = totals.Net
	run.TotalDeductions = totals.Deductions
	run.EmployeeCount = totals.EmployeeCount
}

func (s *PayrollServiceImpl) Approve(ctx context.Context, req payroll.ApproveRunRequest) (payroll.RunResponse, error) {
	req.MinorUnits = s.calculator.MinorUnits()
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	var (
		run       payroll.Run
		applied   []appliedAdjustment
		repeated  bool
		runBefore payroll.Run
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(ctx, req.RunID, companyID)
		if err != nil {
			return err
		}
		runBefore = run

		// Approving again without adjustments only re-derives totals.
		if run.Status == payroll.RunStatusApproved && len(req.Adjustments) == 0 {
			repeated = true
			return s.refreshTotals(ctx, &run)
		}
		if run.Status != payroll.RunStatusCompleted {
			return &payroll.RunStateError{
				RunID:     run.ID,
				Current:   run.Status,
				Required:  []payroll.RunStatus{payroll.RunStatusCompleted},
				Operation: "approve",
			}
		}

		applied, err = s.applyAdjustments(ctx, run, userID, req.Adjustments)
		if err != nil {
			return err
		}

		if err := s.payrollRepo.UpdateRecordStatusByRun(ctx, run.ID, companyID, payroll.RecordStatusApproved); err != nil {
			return err
		}

		now := time.Now()
		run.Status = payroll.RunStatusApproved
		run.ApprovedBy = optional(userID)
		run.ApprovedAt = &now
		return s.refreshTotals(ctx, &run)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	if repeated {
		return payroll.ToRunResponse(run), nil
	}

	for _, a := range applied {
		s.auditLog.Log(ctx, companyID, userID, audit.ActionRecordAdjusted, audit.ResourceRecord, a.adjustment.RecordID,
			adjustmentAudit{Type: a.adjustment.Type, Amount: a.adjustment.Amount, NetSalary: a.adjustment.NetBefore, Reason: a.adjustment.Reason},
			adjustmentAudit{Type: a.adjustment.Type, Amount: a.adjustment.Amount, NetSalary: a.adjustment.NetAfter, Reason: a.adjustment.Reason},
		)
	}
	s.auditLog.Log(ctx, companyID, userID, audit.ActionRunApproved, audit.ResourceRun, run.ID,
		payroll.ToRunResponse(runBefore), payroll.ToRunResponse(run))
	slog.Info("payroll run approved", "run_id", run.ID, "period", run.Period, "adjustments", len(applied), "company_id", companyID)

	return payroll.ToRunResponse(run), nil
}

// refreshTotals recomputes run totals from the persisted records and saves the run.
func (s *PayrollServiceImpl) refreshTotals(ctx context.Context, run *payroll.Run) error {
	totals, err := s.payrollRepo.SumRecords(ctx, run.ID, run.CompanyID)
	if err != nil {
		return err
	}
	applyTotals(run, totals)
	return s.payrollRepo.UpdateRun(ctx, *run)
}

type appliedAdjustment struct {
	adjustment payroll.Adjustment
}

type adjustmentAudit struct {
	Type      payroll.AdjustmentType `json:"type"`
	Amount    decimal.Decimal        `json:"amount"`
	NetSalary decimal.Decimal        `json:"net_salary"`
	Reason    *string                `json:"reason,omitempty"`
}

// applyAdjustments applies adjustments in request order. Several adjustments
// may target the same record; each sees the result of the previous one.
func (s *PayrollServiceImpl) applyAdjustments(ctx context.Context, run payroll.Run, userID string, inputs []payroll.AdjustmentInput) ([]appliedAdjustment, error) {
	records := make(map[string]*payroll.Record)
	applied := make([]appliedAdjustment, 0, len(inputs))

	for _, in := range inputs {
		rec, ok := records[in.RecordID]
		if !ok {
			found, err := s.payrollRepo.GetRecordByID(ctx, in.RecordID, run.CompanyID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", err, in.RecordID)
			}
			if found.RunID != run.ID {
				return nil, fmt.Errorf("%w: %s does not belong to run %s", payroll.ErrRecordNotFound, in.RecordID, run.ID)
			}
			rec = &found
			records[in.RecordID] = rec
		}

		netBefore := rec.NetSalary
		if err := ApplyAdjustment(rec, payroll.AdjustmentType(in.Type), in.Amount); err != nil {
			return nil, err
		}
		if err := s.payrollRepo.UpdateRecord(ctx, *rec); err != nil {
			return nil, err
		}

		adj, err := s.payrollRepo.CreateAdjustment(ctx, payroll.Adjustment{
			RunID:     run.ID,
			RecordID:  rec.ID,
			Type:      payroll.AdjustmentType(in.Type),
			Amount:    in.Amount,
			NetBefore: netBefore,
			NetAfter:  rec.NetSalary,
			Reason:    in.Reason,
			CreatedBy: optional(userID),
		})
		if err != nil {
			return nil, err
		}
		applied = append(applied, appliedAdjustment{adjustment: adj})
	}
	return applied, nil
}

// Adjustment line codes
const (
	AdjustmentBonusCode      = "ADJ_BONUS"
	AdjustmentDeductionCode  = "ADJ_DEDUCTION"
	AdjustmentCorrectionCode = "ADJ_CORRECTION"
	adjustmentCategory       = "adjustment"
)

// ApplyAdjustment books an adjustment as a line item so that
// net = gross - deductions keeps holding. CORRECTION sets net to amount.
func ApplyAdjustment(rec *payroll.Record, typ payroll.AdjustmentType, amount decimal.Decimal) error {
	switch typ {
	case payroll.AdjustmentBonus:
		if !amount.IsPositive() {
			return fmt.Errorf("%w: bonus amount must be positive", payroll.ErrInvalidAdjustment)
		}
		rec.Earnings = append(rec.Earnings, adjustmentLine(AdjustmentBonusCode, "Bonus adjustment", amount))
		rec.AdjustmentAmount = rec.AdjustmentAmount.Add(amount)

	case payroll.AdjustmentDeduction:
		if !amount.IsPositive() {
			return fmt.Errorf("%w: deduction amount must be positive", payroll.ErrInvalidAdjustment)
		}
		rec.Deductions = append(rec.Deductions, adjustmentLine(AdjustmentDeductionCode, "Deduction adjustment", amount))
		rec.AdjustmentAmount = rec.AdjustmentAmount.Sub(amount)

	case payroll.AdjustmentCorrection:
		if amount.IsNegative() {
			return fmt.Errorf("%w: corrected net must not be negative", payroll.ErrInvalidAdjustment)
		}
		diff := amount.Sub(rec.NetSalary)
		switch {
		case diff.IsPositive():
			rec.Earnings = append(rec.Earnings, adjustmentLine(AdjustmentCorrectionCode, "Net salary correction", diff))
		case diff.IsNegative():
			rec.Deductions = append(rec.Deductions, adjustmentLine(AdjustmentCorrectionCode, "Net salary correction", diff.Neg()))
		}
		rec.AdjustmentAmount = rec.AdjustmentAmount.Add(diff)

	default:
		return fmt.Errorf("%w: unknown type %q", payroll.ErrInvalidAdjustment, typ)
	}

	rec.Retotal()
	return nil
}

func adjustmentLine(code, name string, amount decimal.Decimal) payroll.LineItem {
	return payroll.LineItem{Code: code, Name: name, Category: adjustmentCategory, Amount: amount, FullAmount: amount}
}

func (s *PayrollServiceImpl) Reject(ctx context.Context, req payroll.RejectRunRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	var run, before payroll.Run
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(ctx, req.RunID, companyID)
		if err != nil {
			return err
		}
		before = run

		if run.Status != payroll.RunStatusCompleted {
			return &payroll.RunStateError{
				RunID:     run.ID,
				Current:   run.Status,
				Required:  []payroll.RunStatus{payroll.RunStatusCompleted},
				Operation: "reject",
			}
		}

		if err := s.payrollRepo.UpdateRecordStatusByRun(ctx, run.ID, companyID, payroll.RecordStatusDraft); err != nil {
			return err
		}
		comments := req.Comments
		run.Status = payroll.RunStatusFailed
		run.RejectionReason = &comments
		return s.payrollRepo.UpdateRun(ctx, run)
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	s.auditLog.Log(ctx, companyID, userID, audit.ActionRunRejected, audit.ResourceRun, run.ID,
		payroll.ToRunResponse(before), payroll.ToRunResponse(run))
	slog.Info("payroll run rejected", "run_id", run.ID, "period", run.Period, "company_id", companyID)

	return payroll.ToRunResponse(run), nil
}

// Recalculate reuses a failed run for another attempt over the active cohort.
func (s *PayrollServiceImpl) Recalculate(ctx context.Context, runID string) (payroll.CreateRunResponse, error) {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}

	var run payroll.Run
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(ctx, runID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payroll.RunStatusFailed {
			return &payroll.RunStateError{
				RunID:     run.ID,
				Current:   run.Status,
				Required:  []payroll.RunStatus{payroll.RunStatusFailed},
				Operation: "recalculate",
			}
		}

		if err := s.payrollRepo.DeleteRecordsByRun(ctx, run.ID, companyID); err != nil {
			return err
		}
		run.Status = payroll.RunStatusDraft
		run.FailureReason = nil
		run.RejectionReason = nil
		run.FailedCount = 0
		run.ApprovedBy = nil
		run.ApprovedAt = nil
		applyTotals(&run, payroll.Totals{Gross: decimal.Zero, Net: decimal.Zero, Deductions: decimal.Zero})
		return s.payrollRepo.UpdateRun(ctx, run)
	})
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}

	period, err := payroll.ParsePeriod(run.Period)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}

	resp, err := s.calculateRun(ctx, run, period, nil)
	if err != nil {
		return payroll.CreateRunResponse{}, err
	}
	s.auditLog.Log(ctx, companyID, userID, audit.ActionRunRecalculated, audit.ResourceRun, run.ID, nil, resp.Run)
	return resp, nil
}

func (s *PayrollServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	companyID, userID, err := getClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	var run payroll.Run
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.payrollRepo.GetRunForUpdate(ctx, runID, companyID)
		if err != nil {
			return err
		}
		if run.Status != payroll.RunStatusFailed && run.Status != payroll.RunStatusDraft {
			return &payroll.RunStateError{
				RunID:     run.ID,
				Current:   run.Status,
				Required:  []payroll.RunStatus{payroll.RunStatusFailed, payroll.RunStatusDraft},
				Operation: "delete",
			}
		}
		return s.payrollRepo.DeleteRun(ctx, run.ID, companyID)
	})
	if err != nil {
		return err
	}

	s.auditLog.Log(ctx, companyID, userID, audit.ActionRunDeleted, audit.ResourceRun, run.ID, payroll.ToRunResponse(run), nil)
	return nil
}

// ========== READS ==========

func (s *PayrollServiceImpl) GetRun(ctx context.Context, runID string) (payroll.RunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.payrollRepo.GetRunByID(ctx, runID, companyID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, status payroll.RunStatus) ([]payroll.RunResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	runs, err := s.payrollRepo.ListRuns(ctx, companyID)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.RunResponse, 0, len(runs))
	for _, r := range runs {
		if status != "" && r.Status != status {
			continue
		}
		responses = append(responses, payroll.ToRunResponse(r))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, runID string) ([]payroll.RecordResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.payrollRepo.GetRunByID(ctx, runID, companyID); err != nil {
		return nil, err
	}
	records, err := s.payrollRepo.ListRecordsByRun(ctx, runID, companyID)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.RecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, payroll.ToRecordResponse(r))
	}
	return responses, nil
}

// ListAdjustments returns the adjustments applied to a run in the order they
// were made.
func (s *PayrollServiceImpl) ListAdjustments(ctx context.Context, runID string) ([]payroll.AdjustmentResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.payrollRepo.GetRunByID(ctx, runID, companyID); err != nil {
		return nil, err
	}
	adjustments, err := s.payrollRepo.ListAdjustmentsByRun(ctx, runID, companyID)
	if err != nil {
		return nil, err
	}
	responses := make([]payroll.AdjustmentResponse, 0, len(adjustments))
	for _, a := range adjustments {
		responses = append(responses, payroll.ToAdjustmentResponse(a))
	}
	return responses, nil
}

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, recordID string) (payroll.RecordResponse, error) {
	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	rec, err := s.payrollRepo.GetRecordByID(ctx, recordID, companyID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return payroll.ToRecordResponse(rec), nil
}

// Preview calculates one employee without persisting anything.
func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	companyID, _, err := getClaimsFromContext(ctx)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	period, err := payroll.ParsePeriod(req.Period)
	if err != nil {
		return payroll.RecordResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID); err != nil {
		return payroll.RecordResponse{}, err
	}

	var facts attendance.Facts
	if req.Attendance != nil {
		facts = attendance.Facts{
			EmployeeID:    req.EmployeeID,
			Period:        period.String(),
			WorkingDays:   req.Attendance.WorkingDays,
			PresentDays:   req.Attendance.PresentDays,
			AbsentDays:    req.Attendance.AbsentDays,
			LOPDays:       req.Attendance.LOPDays,
			OvertimeHours: req.Attendance.OvertimeHours,
		}
	} else {
		facts, err = s.attendance.GetFacts(ctx, companyID, req.EmployeeID, period.String())
		if err != nil {
			return payroll.RecordResponse{}, err
		}
	}

	rec, err := s.calculator.Calculate(ctx, companyID, req.EmployeeID, period, facts)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return payroll.ToRecordResponse(rec), nil
}

// IsRunStateError reports whether err is a run state violation.
func IsRunStateError(err error) bool {
	var stateErr *payroll.RunStateError
	return errors.As(err, &stateErr)
}
