package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/memory"
	auditservice "github.com/cmlabs-hris/hris-payroll-go/internal/service/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/statutory"
	structuresvc "github.com/cmlabs-hris/hris-payroll-go/internal/service/structure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID = "0192f0a0-0000-7000-8000-000000000001"
	testUserID    = "0192f0a0-0000-7000-8000-0000000000aa"
)

type payrollFixture struct {
	ctx            context.Context
	store          *memory.Store
	structureRepo  structure.StructureRepository
	assignmentRepo assignment.AssignmentRepository
	payrollRepo    payroll.PayrollRepository
	calculator     payroll.Calculator
	service        payroll.PayrollService

	components map[string]string // code -> pay component id
}

// newPayrollFixture wires the engine over the memory store. Without rules
// the calculator applies no statutory deductions.
func newPayrollFixture(t *testing.T, rules []payroll.StatutoryRule) *payrollFixture {
	t.Helper()

	ctx, err := jwt.ContextWithClaims(context.Background(), testCompanyID, testUserID)
	require.NoError(t, err)

	store := memory.NewStore()
	f := &payrollFixture{
		ctx:            ctx,
		store:          store,
		structureRepo:  memory.NewStructureRepository(store),
		assignmentRepo: memory.NewAssignmentRepository(store),
		payrollRepo:    memory.NewPayrollRepository(store),
		components:     make(map[string]string),
	}
	f.calculator = NewCalculator(
		f.assignmentRepo,
		f.structureRepo,
		memory.NewAttendanceSource(store),
		structuresvc.NewResolver(),
		rules,
		CalculatorConfig{Workers: 4, MinorUnits: 2},
	)
	f.service = f.serviceWith(f.calculator)
	return f
}

// serviceWith builds a run orchestrator over the fixture store using calc.
func (f *payrollFixture) serviceWith(calc payroll.Calculator) payroll.PayrollService {
	return NewPayrollService(
		memory.NewTransactor(f.store),
		f.payrollRepo,
		memory.NewEmployeeRepository(f.store),
		memory.NewAttendanceSource(f.store),
		calc,
		auditservice.NewRecorder(memory.NewAuditSink(f.store)),
	)
}

func defaultRules() []payroll.StatutoryRule {
	return statutory.NewRuleSet(statutory.DefaultConfig())
}

type componentDef struct {
	code     string
	typ      structure.ComponentType
	category structure.ComponentCategory
	mode     structure.CalculationMode
	value    string
	percent  string
	base     string
	formula  string
}

func (f *payrollFixture) component(t *testing.T, def componentDef) string {
	t.Helper()
	if id, ok := f.components[def.code]; ok {
		return id
	}
	pc, err := f.structureRepo.CreatePayComponent(f.ctx, structure.PayComponent{
		CompanyID: testCompanyID,
		Code:      def.code,
		Name:      def.code,
		Type:      def.typ,
		Category:  def.category,
		IsActive:  true,
	})
	require.NoError(t, err)
	f.components[def.code] = pc.ID
	return pc.ID
}

func (f *payrollFixture) structure(t *testing.T, name string, defs ...componentDef) structure.Structure {
	t.Helper()

	components := make([]structure.StructureComponent, 0, len(defs))
	for i, def := range defs {
		c := structure.StructureComponent{
			PayComponentID:  f.component(t, def),
			CalculationMode: def.mode,
			DisplayOrder:    i + 1,
		}
		if def.value != "" {
			v := decimal.RequireFromString(def.value)
			c.Value = &v
		}
		if def.percent != "" {
			p := decimal.RequireFromString(def.percent)
			c.Percentage = &p
		}
		if def.base != "" {
			id := f.components[def.base]
			c.BaseComponentID = &id
		}
		if def.formula != "" {
			expr := def.formula
			c.Formula = &expr
		}
		components = append(components, c)
	}

	st, err := f.structureRepo.Create(f.ctx, structure.Structure{
		CompanyID:     testCompanyID,
		Name:          name,
		Code:          name,
		Version:       1,
		EffectiveFrom: date("2024-01-01"),
		IsActive:      true,
		Components:    components,
	})
	require.NoError(t, err)
	return st
}

// engineer is Basic 30000 fixed and HRA 40% of Basic.
func (f *payrollFixture) engineer(t *testing.T, extra ...componentDef) structure.Structure {
	t.Helper()
	defs := append([]componentDef{
		{code: "BASIC", typ: structure.ComponentTypeEarning, category: structure.CategoryBasic, mode: structure.ModeFixed, value: "30000"},
		{code: "HRA", typ: structure.ComponentTypeEarning, category: structure.CategoryAllowance, mode: structure.ModePercentage, percent: "40", base: "BASIC"},
	}, extra...)
	return f.structure(t, "Engineer-L1", defs...)
}

func (f *payrollFixture) employee(t *testing.T, code string) string {
	t.Helper()
	e := f.store.AddEmployee(employee.Employee{
		CompanyID:    testCompanyID,
		EmployeeCode: code,
		FullName:     "Employee " + code,
	})
	return e.ID
}

func (f *payrollFixture) assign(t *testing.T, employeeID string, st structure.Structure, ctc string, overrides ...assignment.Override) assignment.Assignment {
	t.Helper()
	a, err := f.assignmentRepo.Create(f.ctx, assignment.Assignment{
		CompanyID:     testCompanyID,
		EmployeeID:    employeeID,
		StructureID:   st.ID,
		CTC:           decimal.RequireFromString(ctc),
		EffectiveFrom: date("2024-01-01"),
		Overrides:     overrides,
	})
	require.NoError(t, err)
	return a
}

func (f *payrollFixture) facts(employeeID, period, working, present string) attendance.Facts {
	w := decimal.RequireFromString(working)
	p := decimal.RequireFromString(present)
	facts := attendance.Facts{
		EmployeeID:    employeeID,
		Period:        period,
		WorkingDays:   w,
		PresentDays:   p,
		AbsentDays:    w.Sub(p),
		LOPDays:       w.Sub(p),
		OvertimeHours: decimal.Zero,
	}
	f.store.SetFacts(testCompanyID, facts)
	return facts
}

// hire seeds an active employee on the given structure with full attendance for period.
func (f *payrollFixture) hire(t *testing.T, code string, st structure.Structure, ctc, period string) string {
	t.Helper()
	id := f.employee(t, code)
	f.assign(t, id, st, ctc)
	f.facts(id, period, "22", "22")
	return id
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustPeriod(t *testing.T, s string) payroll.Period {
	t.Helper()
	p, err := payroll.ParsePeriod(s)
	require.NoError(t, err)
	return p
}

// requireDecimal compares decimals by value so that 42000 equals 42000.00.
func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func lineByCode(items []payroll.LineItem, code string) (payroll.LineItem, bool) {
	for _, it := range items {
		if it.Code == code {
			return it, true
		}
	}
	return payroll.LineItem{}, false
}
