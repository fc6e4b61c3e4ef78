package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
)

// AddEmployee seeds an employee. The HR application owns employees; the
// payroll engine only reads them.
func (s *Store) AddEmployee(e employee.Employee) employee.Employee {
	defer s.lock(context.Background())()

	if e.ID == "" {
		e.ID = newID()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.state.employees[e.ID] = e
	return e
}

// SetFacts seeds reconciled attendance for one employee and period.
func (s *Store) SetFacts(companyID string, f attendance.Facts) {
	defer s.lock(context.Background())()

	s.state.facts[factsKey{companyID: companyID, employeeID: f.EmployeeID, period: f.Period}] = f
}

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	defer r.s.rlock(ctx)()

	e, ok := r.s.state.employees[id]
	if !ok || e.CompanyID != companyID || e.DeletedAt != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) GetActiveIDs(ctx context.Context, companyID string) ([]string, error) {
	defer r.s.rlock(ctx)()

	var active []employee.Employee
	for _, e := range r.s.state.employees {
		if e.CompanyID == companyID && e.DeletedAt == nil && e.EmploymentStatus == employee.EmploymentStatusActive {
			active = append(active, e)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].EmployeeCode != active[j].EmployeeCode {
			return active[i].EmployeeCode < active[j].EmployeeCode
		}
		return active[i].ID < active[j].ID
	})

	ids := make([]string, 0, len(active))
	for _, e := range active {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

type gradeRepository struct {
	s *Store
}

func NewGradeRepository(s *Store) grade.GradeRepository {
	return &gradeRepository{s: s}
}

func (r *gradeRepository) Create(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.state.grades {
		if existing.CompanyID == g.CompanyID && existing.Name == g.Name {
			return grade.Grade{}, grade.ErrGradeNameExists
		}
	}
	g.ID = newID()
	r.s.state.grades[g.ID] = g
	return g, nil
}

func (r *gradeRepository) GetByID(ctx context.Context, id string, companyID string) (grade.Grade, error) {
	defer r.s.rlock(ctx)()

	g, ok := r.s.state.grades[id]
	if !ok || g.CompanyID != companyID {
		return grade.Grade{}, grade.ErrGradeNotFound
	}
	return g, nil
}

func (r *gradeRepository) List(ctx context.Context, companyID string) ([]grade.Grade, error) {
	defer r.s.rlock(ctx)()

	var out []grade.Grade
	for _, g := range r.s.state.grades {
		if g.CompanyID == companyID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type attendanceSource struct {
	s *Store
}

func NewAttendanceSource(s *Store) attendance.Source {
	return &attendanceSource{s: s}
}

func (a *attendanceSource) GetFacts(ctx context.Context, companyID, employeeID, period string) (attendance.Facts, error) {
	defer a.s.rlock(ctx)()

	f, ok := a.s.state.facts[factsKey{companyID: companyID, employeeID: employeeID, period: period}]
	if !ok {
		return attendance.Facts{}, attendance.ErrFactsNotFound
	}
	return f, nil
}

func (a *attendanceSource) GetFactsBulk(ctx context.Context, companyID, period string, employeeIDs []string) (map[string]attendance.Facts, error) {
	defer a.s.rlock(ctx)()

	out := make(map[string]attendance.Facts, len(employeeIDs))
	for _, id := range employeeIDs {
		if f, ok := a.s.state.facts[factsKey{companyID: companyID, employeeID: id, period: period}]; ok {
			out[id] = f
		}
	}
	return out, nil
}
