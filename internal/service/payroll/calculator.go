package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	structuresvc "github.com/cmlabs-hris/hris-payroll-go/internal/service/structure"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers    = 8
	defaultMinorUnits = 2
)

var statutoryNames = map[payroll.StatutoryKind]string{
	payroll.StatutoryPF:  "Provident Fund",
	payroll.StatutoryESI: "Employee State Insurance",
	payroll.StatutoryTDS: "Tax Deducted at Source",
	payroll.StatutoryPT:  "Professional Tax",
}

type CalculatorConfig struct {
	Workers    int
	MinorUnits int32
}

type calculator struct {
	assignmentRepo assignment.AssignmentRepository
	structureRepo  structure.StructureRepository
	attendance     attendance.Source
	resolver       structure.Resolver
	rules          []payroll.StatutoryRule
	workers        int
	minorUnits     int32
}

func NewCalculator(
	assignmentRepo assignment.AssignmentRepository,
	structureRepo structure.StructureRepository,
	attendanceSource attendance.Source,
	resolver structure.Resolver,
	rules []payroll.StatutoryRule,
	cfg CalculatorConfig,
) payroll.Calculator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	minorUnits := cfg.MinorUnits
	if minorUnits < 0 {
		minorUnits = defaultMinorUnits
	}

	return &calculator{
		assignmentRepo: assignmentRepo,
		structureRepo:  structureRepo,
		attendance:     attendanceSource,
		resolver:       resolver,
		rules:          orderRules(rules),
		workers:        workers,
		minorUnits:     minorUnits,
	}
}

// orderRules sorts rules into PF, ESI, TDS, PT order. Unknown kinds go last.
func orderRules(rules []payroll.StatutoryRule) []payroll.StatutoryRule {
	rank := make(map[payroll.StatutoryKind]int, len(payroll.StatutoryOrder))
	for i, k := range payroll.StatutoryOrder {
		rank[k] = i
	}
	position := func(r payroll.StatutoryRule) int {
		if i, ok := rank[r.Kind()]; ok {
			return i
		}
		return len(rank)
	}

	out := make([]payroll.StatutoryRule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return position(out[i]) < position(out[j]) })
	return out
}

func (c *calculator) MinorUnits() int32 {
	return c.minorUnits
}

func (c *calculator) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.minorUnits)
}

func (c *calculator) Calculate(ctx context.Context, companyID, employeeID string, period payroll.Period, facts attendance.Facts) (payroll.Record, error) {
	a, err := c.assignmentRepo.GetActiveAt(ctx, employeeID, companyID, period.LastDay())
	if err != nil {
		return payroll.Record{}, fmt.Errorf("employee %s on %s: %w", employeeID, period.LastDay().Format("2006-01-02"), err)
	}

	st, err := c.structureRepo.GetByID(ctx, a.StructureID, companyID)
	if err != nil {
		return payroll.Record{}, fmt.Errorf("structure %s of assignment %s: %w", a.StructureID, a.ID, err)
	}

	plan, err := c.resolver.Resolve(st, structure.ResolveInput{CTC: a.CTC, Overrides: a.OverrideMap()})
	if err != nil {
		return payroll.Record{}, fmt.Errorf("structure %s version %d: %w", st.Name, st.Version, err)
	}

	facts.EmployeeID = employeeID
	if err := facts.Validate(); err != nil {
		return payroll.Record{}, err
	}

	rec := payroll.Record{
		CompanyID:        companyID,
		EmployeeID:       employeeID,
		AssignmentID:     a.ID,
		StructureID:      st.ID,
		CTC:              a.CTC,
		BasicSalary:      decimal.Zero,
		WorkingDays:      facts.WorkingDays,
		PresentDays:      facts.PresentDays,
		AbsentDays:       facts.AbsentDays,
		LOPDays:          facts.LOPDays,
		LOPAmount:        decimal.Zero,
		OvertimeHours:    facts.OvertimeHours,
		OvertimeAmount:   decimal.Zero,
		AdjustmentAmount: decimal.Zero,
		Status:           payroll.RecordStatusCalculated,
		Earnings:         []payroll.LineItem{},
		Deductions:       []payroll.LineItem{},
	}

	for _, line := range plan.Lines {
		// Statutory amounts come from the rule set only.
		if line.Category == structure.CategoryStatutoryDeduction {
			continue
		}

		amount := line.Amount
		switch {
		case line.Category == structure.CategoryOvertime && line.Type == structure.ComponentTypeEarning:
			amount = line.Amount.Mul(facts.OvertimeHours)
		case line.Prorate:
			amount = facts.Prorate(line.Amount)
		}

		item := payroll.LineItem{
			Code:       line.Code,
			Name:       line.Name,
			Category:   string(line.Category),
			Amount:     c.round(amount),
			FullAmount: c.round(line.Amount),
			Prorated:   line.Prorate,
			Overridden: line.Overridden,
		}
		if line.Category == structure.CategoryOvertime {
			item.FullAmount = item.Amount
		}

		if line.Type == structure.ComponentTypeDeduction {
			rec.Deductions = append(rec.Deductions, item)
			continue
		}

		rec.Earnings = append(rec.Earnings, item)
		if line.Prorate {
			rec.LOPAmount = rec.LOPAmount.Add(item.FullAmount.Sub(item.Amount))
		}
		switch line.Category {
		case structure.CategoryBasic:
			rec.BasicSalary = rec.BasicSalary.Add(item.Amount)
		case structure.CategoryOvertime:
			rec.OvertimeAmount = rec.OvertimeAmount.Add(item.Amount)
		}
	}

	rec.Retotal()
	if err := c.applyStatutory(ctx, &rec); err != nil {
		return payroll.Record{}, err
	}
	rec.Retotal()

	return rec, nil
}

// applyStatutory runs each rule once, in order, against the earnings totals.
func (c *calculator) applyStatutory(ctx context.Context, rec *payroll.Record) error {
	in := payroll.StatutoryInput{Gross: rec.GrossSalary, Basic: rec.BasicSalary}

	rec.PFAmount, rec.ESIAmount, rec.TDSAmount, rec.PTAmount = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, rule := range c.rules {
		v, err := rule.Compute(ctx, in)
		if err != nil {
			return fmt.Errorf("statutory rule %s: %w", rule.Kind(), err)
		}
		amount := c.round(v)
		if amount.IsNegative() {
			return fmt.Errorf("statutory rule %s returned negative amount %s", rule.Kind(), amount)
		}

		switch rule.Kind() {
		case payroll.StatutoryPF:
			rec.PFAmount = amount
		case payroll.StatutoryESI:
			rec.ESIAmount = amount
		case payroll.StatutoryTDS:
			rec.TDSAmount = amount
		case payroll.StatutoryPT:
			rec.PTAmount = amount
		}

		if amount.IsZero() {
			continue
		}
		name, ok := statutoryNames[rule.Kind()]
		if !ok {
			name = string(rule.Kind())
		}
		rec.Deductions = append(rec.Deductions, payroll.LineItem{
			Code:       string(rule.Kind()),
			Name:       name,
			Category:   string(structure.CategoryStatutoryDeduction),
			Amount:     amount,
			FullAmount: amount,
		})
	}
	return nil
}

type outcome struct {
	record payroll.Record
	err    error
}

func (c *calculator) CalculateBulk(ctx context.Context, companyID string, employeeIDs []string, period payroll.Period) (payroll.BulkResult, error) {
	facts, err := c.attendance.GetFactsBulk(ctx, companyID, period.String(), employeeIDs)
	if err != nil {
		return payroll.BulkResult{}, fmt.Errorf("failed to load attendance for %s: %w", period, err)
	}

	outcomes := make([]outcome, len(employeeIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, employeeID := range employeeIDs {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = &payroll.SystemicError{EmployeeID: employeeID, Err: fmt.Errorf("panic: %v", p)}
				}
			}()

			f, ok := facts[employeeID]
			if !ok {
				outcomes[i].err = fmt.Errorf("employee %s period %s: %w", employeeID, period, attendance.ErrFactsNotFound)
				return nil
			}

			rec, err := c.Calculate(gctx, companyID, employeeID, period, f)
			if err != nil {
				if !isEmployeeScoped(err) {
					return &payroll.SystemicError{EmployeeID: employeeID, Err: err}
				}
				outcomes[i].err = err
				return nil
			}
			outcomes[i].record = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return payroll.BulkResult{}, err
	}

	result := payroll.BulkResult{}
	for i, o := range outcomes {
		if o.err != nil {
			slog.Warn("payroll calculation failed for employee",
				"employee_id", employeeIDs[i],
				"period", period.String(),
				"error", o.err,
			)
			result.Failures = append(result.Failures, payroll.CalculationFailure{EmployeeID: employeeIDs[i], Err: o.err})
			continue
		}
		result.Records = append(result.Records, o.record)
	}
	return result, nil
}

// isEmployeeScoped reports whether err concerns one employee's data and
// must not abort the batch.
func isEmployeeScoped(err error) bool {
	return errors.Is(err, assignment.ErrAssignmentNotFound) ||
		errors.Is(err, structure.ErrStructureNotFound) ||
		errors.Is(err, attendance.ErrFactsNotFound) ||
		errors.Is(err, attendance.ErrInvalidAttendance) ||
		structuresvc.IsConfigurationError(err)
}
