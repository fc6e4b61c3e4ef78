// Package memory is an in-process implementation of every repository used by
// the payroll engine. It enforces the same uniqueness rules as the PostgreSQL
// schema and supports transactions by snapshot and rollback. Calls made outside
// a transaction wait for the running one, so uncommitted writes are never seen
// and a rollback never discards another caller's committed write.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/google/uuid"
)

type factsKey struct {
	companyID  string
	employeeID string
	period     string
}

type state struct {
	payComponents map[string]structure.PayComponent
	structures    map[string]structure.Structure
	assignments   map[string]assignment.Assignment
	employees     map[string]employee.Employee
	grades        map[string]grade.Grade
	facts         map[factsKey]attendance.Facts
	runs          map[string]payroll.Run
	records       map[string]payroll.Record
	adjustments   map[string]payroll.Adjustment
	audit         []audit.Entry
}

func newState() state {
	return state{
		payComponents: make(map[string]structure.PayComponent),
		structures:    make(map[string]structure.Structure),
		assignments:   make(map[string]assignment.Assignment),
		employees:     make(map[string]employee.Employee),
		grades:        make(map[string]grade.Grade),
		facts:         make(map[factsKey]attendance.Facts),
		runs:          make(map[string]payroll.Run),
		records:       make(map[string]payroll.Record),
		adjustments:   make(map[string]payroll.Adjustment),
	}
}

// clone copies every table. Stored values own their slices, so a shallow
// copy of each map is enough.
func (s state) clone() state {
	return state{
		payComponents: maps.Clone(s.payComponents),
		structures:    maps.Clone(s.structures),
		assignments:   maps.Clone(s.assignments),
		employees:     maps.Clone(s.employees),
		grades:        maps.Clone(s.grades),
		facts:         maps.Clone(s.facts),
		runs:          maps.Clone(s.runs),
		records:       maps.Clone(s.records),
		adjustments:   maps.Clone(s.adjustments),
		audit:         append([]audit.Entry(nil), s.audit...),
	}
}

// Store holds all tables. txMu is held for the whole of a transaction and
// shared by readers outside one; mu guards the maps themselves.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.RWMutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func inTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// lock takes the data lock for a write and returns its release.
func (s *Store) lock(ctx context.Context) func() {
	if inTransaction(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// rlock takes the data lock for a read and returns its release.
func (s *Store) rlock(ctx context.Context) func() {
	if inTransaction(ctx) {
		s.mu.RLock()
		return s.mu.RUnlock
	}
	s.txMu.RLock()
	s.mu.RLock()
	return func() {
		s.mu.RUnlock()
		s.txMu.RUnlock()
	}
}

type transactor struct {
	s *Store
}

func NewTransactor(s *Store) database.Transactor {
	return &transactor{s: s}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.RLock()
	snapshot := t.s.state.clone()
	t.s.mu.RUnlock()

	rollback := func() {
		t.s.mu.Lock()
		t.s.state = snapshot
		t.s.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, struct{}{})); err != nil {
		rollback()
		return err
	}
	return nil
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
