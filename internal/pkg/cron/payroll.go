package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// PayrollJobs holds the payroll maintenance jobs.
type PayrollJobs struct {
	tx          database.Transactor
	payrollRepo payroll.PayrollRepository
	auditLog    audit.Recorder
	staleAfter  time.Duration
	now         func() time.Time
}

func NewPayrollJobs(tx database.Transactor, payrollRepo payroll.PayrollRepository, auditLog audit.Recorder, staleAfter time.Duration) *PayrollJobs {
	return &PayrollJobs{
		tx:          tx,
		payrollRepo: payrollRepo,
		auditLog:    auditLog,
		staleAfter:  staleAfter,
		now:         time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("fail_interrupted_payroll_runs", interval, j.FailInterruptedRuns)
}

// FailInterruptedRuns marks runs that have stayed in draft longer than
// staleAfter as failed. A draft only survives that long when the process
// stopped mid-calculation; failing it lets the run be recalculated or deleted.
func (j *PayrollJobs) FailInterruptedRuns(ctx context.Context) error {
	cutoff := j.now().Add(-j.staleAfter)

	stale, err := j.payrollRepo.ListStaleDrafts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale payroll runs: %w", err)
	}

	failed := 0
	for _, candidate := range stale {
		var run payroll.Run
		err := j.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			run, err = j.payrollRepo.GetRunForUpdate(ctx, candidate.ID, candidate.CompanyID)
			if err != nil {
				return err
			}
			// Another process may have finished it since the listing.
			if run.Status != payroll.RunStatusDraft || !run.UpdatedAt.Before(cutoff) {
				run = payroll.Run{}
				return nil
			}

			reason := payroll.ErrCalculationInterrupted.Error()
			run.Status = payroll.RunStatusFailed
			run.FailureReason = &reason
			run.TotalGross, run.TotalNet, run.TotalDeductions = decimal.Zero, decimal.Zero, decimal.Zero
			if err := j.payrollRepo.DeleteRecordsByRun(ctx, run.ID, run.CompanyID); err != nil {
				return err
			}
			return j.payrollRepo.UpdateRun(ctx, run)
		})
		if err != nil {
			slog.Error("failed to mark interrupted payroll run",
				"run_id", candidate.ID,
				"company_id", candidate.CompanyID,
				"error", err,
			)
			continue
		}
		if run.ID == "" {
			continue
		}

		failed++
		j.auditLog.Log(ctx, run.CompanyID, "", audit.ActionRunInterrupted, audit.ResourceRun, run.ID, nil, payroll.ToRunResponse(run))
		slog.Warn("payroll run marked failed after interruption",
			"run_id", run.ID,
			"company_id", run.CompanyID,
			"period", run.Period,
		)
	}

	if failed > 0 {
		slog.Info("interrupted payroll runs failed", "count", failed)
	}
	return nil
}
