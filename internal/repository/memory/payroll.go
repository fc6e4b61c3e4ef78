package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	s *Store
}

func NewPayrollRepository(s *Store) payroll.PayrollRepository {
	return &payrollRepository{s: s}
}

// ========== RUNS ==========

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.state.runs {
		if existing.CompanyID == run.CompanyID && existing.Period == run.Period {
			return payroll.Run{}, payroll.ErrDuplicatePeriod
		}
	}

	now := time.Now()
	run.ID = newID()
	run.CreatedAt = now
	run.UpdatedAt = now
	r.s.state.runs[run.ID] = run
	return run, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	defer r.s.rlock(ctx)()

	run, ok := r.s.state.runs[id]
	if !ok || run.CompanyID != companyID {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return run, nil
}

// GetRunForUpdate needs no row lock here: transactions are already serialised.
func (r *payrollRepository) GetRunForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.GetRunByID(ctx, id, companyID)
}

func (r *payrollRepository) ListRuns(ctx context.Context, companyID string) ([]payroll.Run, error) {
	defer r.s.rlock(ctx)()

	var out []payroll.Run
	for _, run := range r.s.state.runs {
		if run.CompanyID == companyID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

func (r *payrollRepository) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]payroll.Run, error) {
	defer r.s.rlock(ctx)()

	var out []payroll.Run
	for _, run := range r.s.state.runs {
		if run.Status == payroll.RunStatusDraft && run.UpdatedAt.Before(cutoff) {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (r *payrollRepository) UpdateRun(ctx context.Context, run payroll.Run) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.state.runs[run.ID]
	if !ok || existing.CompanyID != run.CompanyID {
		return payroll.ErrRunNotFound
	}
	run.CreatedAt = existing.CreatedAt
	run.UpdatedAt = time.Now()
	r.s.state.runs[run.ID] = run
	return nil
}

func (r *payrollRepository) DeleteRun(ctx context.Context, id string, companyID string) error {
	defer r.s.lock(ctx)()

	run, ok := r.s.state.runs[id]
	if !ok || run.CompanyID != companyID {
		return payroll.ErrRunNotFound
	}
	delete(r.s.state.runs, id)
	for recID, rec := range r.s.state.records {
		if rec.RunID == id {
			delete(r.s.state.records, recID)
		}
	}
	for adjID, adj := range r.s.state.adjustments {
		if adj.RunID == id {
			delete(r.s.state.adjustments, adjID)
		}
	}
	return nil
}

// ========== RECORDS ==========

func (r *payrollRepository) CreateRecords(ctx context.Context, records []payroll.Record) error {
	defer r.s.lock(ctx)()

	seen := make(map[string]bool)
	for _, rec := range r.s.state.records {
		seen[rec.RunID+"/"+rec.EmployeeID] = true
	}

	now := time.Now()
	staged := make([]payroll.Record, 0, len(records))
	for _, rec := range records {
		key := rec.RunID + "/" + rec.EmployeeID
		if seen[key] {
			return fmt.Errorf("failed to create payroll record for employee %s: duplicate record in run", rec.EmployeeID)
		}
		seen[key] = true
		rec.ID = newID()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		staged = append(staged, copyRecord(rec))
	}
	for _, rec := range staged {
		r.s.state.records[rec.ID] = rec
	}
	return nil
}

func (r *payrollRepository) GetRecordByID(ctx context.Context, id string, companyID string) (payroll.Record, error) {
	defer r.s.rlock(ctx)()

	rec, ok := r.s.state.records[id]
	if !ok || rec.CompanyID != companyID {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return copyRecord(rec), nil
}

func (r *payrollRepository) ListRecordsByRun(ctx context.Context, runID string, companyID string) ([]payroll.Record, error) {
	defer r.s.rlock(ctx)()

	var out []payroll.Record
	for _, rec := range r.s.state.records {
		if rec.RunID == runID && rec.CompanyID == companyID {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *payrollRepository) UpdateRecord(ctx context.Context, record payroll.Record) error {
	defer r.s.lock(ctx)()

	existing, ok := r.s.state.records[record.ID]
	if !ok || existing.CompanyID != record.CompanyID {
		return payroll.ErrRecordNotFound
	}
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = time.Now()
	r.s.state.records[record.ID] = copyRecord(record)
	return nil
}

func (r *payrollRepository) UpdateRecordStatusByRun(ctx context.Context, runID string, companyID string, status payroll.RecordStatus) error {
	defer r.s.lock(ctx)()

	now := time.Now()
	for id, rec := range r.s.state.records {
		if rec.RunID == runID && rec.CompanyID == companyID {
			rec.Status = status
			rec.UpdatedAt = now
			r.s.state.records[id] = rec
		}
	}
	return nil
}

func (r *payrollRepository) DeleteRecordsByRun(ctx context.Context, runID string, companyID string) error {
	defer r.s.lock(ctx)()

	for id, rec := range r.s.state.records {
		if rec.RunID == runID && rec.CompanyID == companyID {
			delete(r.s.state.records, id)
		}
	}
	for id, adj := range r.s.state.adjustments {
		if adj.RunID == runID {
			delete(r.s.state.adjustments, id)
		}
	}
	return nil
}

func (r *payrollRepository) SumRecords(ctx context.Context, runID string, companyID string) (payroll.Totals, error) {
	defer r.s.rlock(ctx)()

	totals := payroll.Totals{Gross: decimal.Zero, Net: decimal.Zero, Deductions: decimal.Zero}
	for _, rec := range r.s.state.records {
		if rec.RunID != runID || rec.CompanyID != companyID {
			continue
		}
		totals.Gross = totals.Gross.Add(rec.GrossSalary)
		totals.Net = totals.Net.Add(rec.NetSalary)
		totals.Deductions = totals.Deductions.Add(rec.TotalDeductions)
		totals.EmployeeCount++
	}
	return totals, nil
}

// ========== ADJUSTMENTS ==========

func (r *payrollRepository) CreateAdjustment(ctx context.Context, adjustment payroll.Adjustment) (payroll.Adjustment, error) {
	defer r.s.lock(ctx)()

	if _, ok := r.s.state.records[adjustment.RecordID]; !ok {
		return payroll.Adjustment{}, payroll.ErrRecordNotFound
	}
	adjustment.ID = newID()
	adjustment.CreatedAt = time.Now()
	r.s.state.adjustments[adjustment.ID] = adjustment
	return adjustment, nil
}

func (r *payrollRepository) ListAdjustmentsByRun(ctx context.Context, runID string, companyID string) ([]payroll.Adjustment, error) {
	defer r.s.rlock(ctx)()

	run, ok := r.s.state.runs[runID]
	if !ok || run.CompanyID != companyID {
		return nil, payroll.ErrRunNotFound
	}

	var out []payroll.Adjustment
	for _, adj := range r.s.state.adjustments {
		if adj.RunID == runID {
			out = append(out, adj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyRecord(rec payroll.Record) payroll.Record {
	rec.Earnings = slices.Clone(rec.Earnings)
	rec.Deductions = slices.Clone(rec.Deductions)
	return rec
}
