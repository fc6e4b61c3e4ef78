package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/memory"
	assignmentService "github.com/cmlabs-hris/hris-payroll-go/internal/service/assignment"
	auditService "github.com/cmlabs-hris/hris-payroll-go/internal/service/audit"
	masterService "github.com/cmlabs-hris/hris-payroll-go/internal/service/master"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/statutory"
	structureService "github.com/cmlabs-hris/hris-payroll-go/internal/service/structure"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
	handlerTestCompanyID = "0192f0a0-0000-7000-8000-000000000001"
	handlerTestUserID    = "0192f0a0-0000-7000-8000-0000000000aa"
)

type apiFixture struct {
	router     *chi.Mux
	store      *memory.Store
	jwtService jwt.Service
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	tx := memory.NewTransactor(store)
	structureRepo := memory.NewStructureRepository(store)
	assignmentRepo := memory.NewAssignmentRepository(store)
	gradeRepo := memory.NewGradeRepository(store)
	employeeRepo := memory.NewEmployeeRepository(store)
	attendanceSource := memory.NewAttendanceSource(store)
	auditLog := auditService.NewRecorder(memory.NewAuditSink(store))

	calculator := payrollService.NewCalculator(
		assignmentRepo,
		structureRepo,
		attendanceSource,
		structureService.NewResolver(),
		statutory.NewRuleSet(statutory.DefaultConfig()),
		payrollService.CalculatorConfig{Workers: 2, MinorUnits: 2},
	)

	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	router := NewRouter(
		RouterOptions{CORSAllowedOrigins: []string{"http://localhost:3000"}},
		jwtSvc,
		NewMasterHandler(masterService.NewMasterService(gradeRepo, auditLog)),
		NewStructureHandler(structureService.NewStructureService(tx, structureRepo, gradeRepo, auditLog)),
		NewAssignmentHandler(assignmentService.NewAssignmentService(tx, assignmentRepo, structureRepo, gradeRepo, employeeRepo, auditLog)),
		NewPayrollHandler(payrollService.NewPayrollService(tx, memory.NewPayrollRepository(store), employeeRepo, attendanceSource, calculator, auditLog)),
	)

	return &apiFixture{router: router, store: store, jwtService: jwtSvc}
}

func (f *apiFixture) token(t *testing.T, companyID, role string) string {
	t.Helper()
	token, _, err := f.jwtService.GenerateAccessToken(handlerTestUserID, companyID, role)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		TotalItems int64 `json:"total_items"`
	} `json:"meta"`
}

func (f *apiFixture) do(t *testing.T, token, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp), "path %s", path)
	return w.Code, resp
}

func (f *apiFixture) manager(t *testing.T) string {
	return f.token(t, handlerTestCompanyID, middleware.RoleManager)
}

// mustData decodes the data envelope into v.
func mustData(t *testing.T, resp apiResponse, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func (f *apiFixture) createComponent(t *testing.T, token, code, typ, category string) string {
	t.Helper()
	status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/components", map[string]interface{}{
		"code":     code,
		"name":     code,
		"type":     typ,
		"category": category,
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)

	var pc struct {
		ID string `json:"id"`
	}
	mustData(t, resp, &pc)
	return pc.ID
}

// createEngineer posts Basic 30000 fixed and HRA 40% of Basic.
func (f *apiFixture) createEngineer(t *testing.T, token string) string {
	t.Helper()
	basic := f.createComponent(t, token, "BASIC", "earning", "basic")
	hra := f.createComponent(t, token, "HRA", "earning", "allowance")

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/structures", map[string]interface{}{
		"name":           "Engineer-L1",
		"code":           "ENG-L1",
		"effective_from": "2024-01-01",
		"components": []map[string]interface{}{
			{"pay_component_id": basic, "calculation_mode": "fixed", "value": "30000", "display_order": 1},
			{"pay_component_id": hra, "calculation_mode": "percentage", "percentage": "40", "base_component_id": basic, "display_order": 2},
		},
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)

	var st struct {
		ID string `json:"id"`
	}
	mustData(t, resp, &st)
	return st.ID
}

func (f *apiFixture) employee(t *testing.T, code, period string) string {
	t.Helper()
	e := f.store.AddEmployee(employee.Employee{
		CompanyID:    handlerTestCompanyID,
		EmployeeCode: code,
		FullName:     "Employee " + code,
	})
	f.store.SetFacts(handlerTestCompanyID, attendance.Facts{
		EmployeeID:    e.ID,
		Period:        period,
		WorkingDays:   decimal.NewFromInt(22),
		PresentDays:   decimal.NewFromInt(22),
		AbsentDays:    decimal.Zero,
		LOPDays:       decimal.Zero,
		OvertimeHours: decimal.Zero,
	})
	return e.ID
}

func requireAmount(t *testing.T, want, got string) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(got)), "want %s, got %s", want, got)
}

// ===== AUTH =====

func TestRouter_Authentication(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"missing token", "", http.MethodGet, "/api/v1/payroll/runs", nil, http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.MethodGet, "/api/v1/payroll/runs", nil, http.StatusUnauthorized},
		{"token without company", f.token(t, "", middleware.RoleManager), http.MethodGet, "/api/v1/payroll/runs", nil, http.StatusForbidden},
		{"employee creates run", f.token(t, handlerTestCompanyID, middleware.RoleEmployee), http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "2024-03"}, http.StatusForbidden},
		{"employee creates structure", f.token(t, handlerTestCompanyID, middleware.RoleEmployee), http.MethodPost, "/api/v1/structures", map[string]string{}, http.StatusForbidden},
		{"employee reads runs", f.token(t, handlerTestCompanyID, middleware.RoleEmployee), http.MethodGet, "/api/v1/payroll/runs", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := f.do(t, tt.token, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status == http.StatusOK, resp.Success)
		})
	}
}

// ===== STRUCTURES =====

func TestStructureHandler_VersionLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	v1 := f.createEngineer(t, token)

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/structures/"+v1+"/supersede", map[string]interface{}{
		"effective_from": "2024-07-01",
		"change_log":     "Mid-year revision",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var v2 struct {
		ID            string  `json:"id"`
		Version       int     `json:"version"`
		BaseVersionID *string `json:"base_version_id"`
	}
	mustData(t, resp, &v2)
	assert.Equal(t, 2, v2.Version)
	require.NotNil(t, v2.BaseVersionID)
	assert.Equal(t, v1, *v2.BaseVersionID)

	type version struct {
		ID          string  `json:"id"`
		Version     int     `json:"version"`
		EffectiveTo *string `json:"effective_to"`
	}

	t.Run("active resolves by date", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/structures/active?name=Engineer-L1&as_of=2024-03-15", nil)
		require.Equal(t, http.StatusOK, status)
		var got version
		mustData(t, resp, &got)
		assert.Equal(t, v1, got.ID)

		status, resp = f.do(t, token, http.MethodGet, "/api/v1/structures/active?name=Engineer-L1&as_of=2024-07-01", nil)
		require.Equal(t, http.StatusOK, status)
		mustData(t, resp, &got)
		assert.Equal(t, v2.ID, got.ID)
	})

	t.Run("before first version", func(t *testing.T) {
		status, _ := f.do(t, token, http.MethodGet, "/api/v1/structures/active?name=Engineer-L1&as_of=2023-12-31", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("history closes predecessor", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/structures/history?name=Engineer-L1", nil)
		require.Equal(t, http.StatusOK, status)
		var history []version
		mustData(t, resp, &history)
		require.Len(t, history, 2)
		for _, v := range history {
			if v.ID == v1 {
				require.NotNil(t, v.EffectiveTo)
				assert.Equal(t, "2024-07-01", *v.EffectiveTo)
			}
		}
	})

	t.Run("overlapping supersede", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodPost, "/api/v1/structures/"+v1+"/supersede", map[string]interface{}{
			"effective_from": "2024-07-01",
			"change_log":     "Duplicate",
		})
		assert.Equal(t, http.StatusConflict, status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "OVERLAPPING_RANGE", resp.Error.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		status, _ := f.do(t, token, http.MethodGet, "/api/v1/structures/"+v2.ID, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = f.do(t, token, http.MethodGet, "/api/v1/structures/0192f0a0-0000-7000-8000-00000000ffff", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("query validation", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/structures/active?as_of=2024-01-01", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, resp.Error.Details, "name")

		status, resp = f.do(t, token, http.MethodGet, "/api/v1/structures?as_of=15-03-2024", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, resp.Error.Details, "as_of")
	})
}

func TestStructureHandler_CreateErrors(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	basic := f.createComponent(t, token, "BASIC", "earning", "basic")

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{
			name:   "invalid json",
			body:   "{not json",
			status: http.StatusBadRequest,
		},
		{
			name: "missing components",
			body: map[string]interface{}{
				"name": "Empty", "code": "EMPTY", "effective_from": "2024-01-01",
			},
			status: http.StatusUnprocessableEntity,
			code:   "VALIDATION_ERROR",
		},
		{
			name: "inverted range",
			body: map[string]interface{}{
				"name": "Inverted", "code": "INV", "effective_from": "2024-06-01", "effective_to": "2024-01-01",
				"components": []map[string]interface{}{
					{"pay_component_id": basic, "calculation_mode": "fixed", "value": "1000", "display_order": 1},
				},
			},
			status: http.StatusUnprocessableEntity,
			code:   "INVERTED_RANGE",
		},
		{
			name: "unknown pay component",
			body: map[string]interface{}{
				"name": "Unknown", "code": "UNK", "effective_from": "2024-01-01",
				"components": []map[string]interface{}{
					{"pay_component_id": "0192f0a0-0000-7000-8000-00000000ffff", "calculation_mode": "fixed", "value": "1000", "display_order": 1},
				},
			},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := f.do(t, token, http.MethodPost, "/api/v1/structures", tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, resp.Success)
			if tt.code != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.code, resp.Error.Code)
			}
		})
	}
}

func TestStructureHandler_DuplicateComponentCode(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	f.createComponent(t, token, "BASIC", "earning", "basic")

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/components", map[string]interface{}{
		"code": "BASIC", "name": "Basic again", "type": "earning", "category": "basic",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_CODE", resp.Error.Code)

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/payroll/components", nil)
	require.Equal(t, http.StatusOK, status)
	var list []map[string]interface{}
	mustData(t, resp, &list)
	assert.Len(t, list, 1)
}

// ===== ASSIGNMENTS =====

func TestAssignmentHandler_AssignAndHistory(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	st := f.createEngineer(t, token)
	emp := f.employee(t, "E001", "2024-03")

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"employee_id":    emp,
		"structure_id":   st,
		"ctc":            "50000",
		"effective_from": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"employee_id":    emp,
		"structure_id":   st,
		"ctc":            "55000",
		"effective_from": "2024-01-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EFFECTIVE_DATE_NOT_AFTER_CURRENT", resp.Error.Code)

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/assignments/bulk", map[string]interface{}{
		"structure_id":   st,
		"effective_date": "2024-04-01",
		"updates": []map[string]interface{}{
			{"employee_id": emp, "ctc": "60000"},
			{"employee_id": "0192f0a0-0000-7000-8000-00000000ffff", "ctc": "60000"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	var results []struct {
		EmployeeID string `json:"employee_id"`
		Success    bool   `json:"success"`
		Error      string `json:"error"`
	}
	mustData(t, resp, &results)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/employees/"+emp+"/assignments", nil)
	require.Equal(t, http.StatusOK, status)
	var history []map[string]interface{}
	mustData(t, resp, &history)
	assert.Len(t, history, 2)

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/employees/"+emp+"/assignments/current?as_of=2024-03-31", nil)
	require.Equal(t, http.StatusOK, status)
	var current struct {
		CTC string `json:"ctc"`
	}
	mustData(t, resp, &current)
	requireAmount(t, "50000", current.CTC)
}

// ===== PAYROLL =====

func TestPayrollHandler_RunLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	st := f.createEngineer(t, token)

	for i := 1; i <= 2; i++ {
		emp := f.employee(t, fmt.Sprintf("E%03d", i), "2024-03")
		status, resp := f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
			"employee_id":    emp,
			"structure_id":   st,
			"ctc":            "50000",
			"effective_from": "2024-01-01",
		})
		require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	}

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "2024-03"})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var created struct {
		Run struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			TotalGross    string `json:"total_gross"`
			TotalNet      string `json:"total_net"`
			EmployeeCount int    `json:"employee_count"`
		} `json:"run"`
		Failures []map[string]string `json:"failures"`
	}
	mustData(t, resp, &created)
	runID := created.Run.ID
	assert.Equal(t, "completed", created.Run.Status)
	assert.Equal(t, 2, created.Run.EmployeeCount)
	assert.Empty(t, created.Failures)
	requireAmount(t, "84000", created.Run.TotalGross)
	requireAmount(t, "78300", created.Run.TotalNet)

	t.Run("duplicate period", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "2024-03"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "DUPLICATE_PERIOD", resp.Error.Code)
	})

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/payroll/runs/"+runID+"/records", nil)
	require.Equal(t, http.StatusOK, status)
	var records []struct {
		ID        string `json:"id"`
		NetSalary string `json:"net_salary"`
		PFAmount  string `json:"pf_amount"`
	}
	mustData(t, resp, &records)
	require.Len(t, records, 2)
	requireAmount(t, "39150", records[0].NetSalary)
	requireAmount(t, "1800", records[0].PFAmount)

	status, _ = f.do(t, token, http.MethodGet, "/api/v1/payroll/records/"+records[0].ID, nil)
	assert.Equal(t, http.StatusOK, status)

	t.Run("delete completed run", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodDelete, "/api/v1/payroll/runs/"+runID, nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "INVALID_RUN_STATE", resp.Error.Code)
	})

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/approve", map[string]interface{}{
		"adjustments": []map[string]interface{}{
			{"record_id": records[0].ID, "type": "CORRECTION", "amount": "40000", "reason": "Agreed settlement"},
		},
	})
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
	var approved struct {
		Status   string `json:"status"`
		TotalNet string `json:"total_net"`
	}
	mustData(t, resp, &approved)
	assert.Equal(t, "approved", approved.Status)
	requireAmount(t, "79150", approved.TotalNet)

	t.Run("repeat approval without body", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/approve", nil)
		require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
		mustData(t, resp, &approved)
		requireAmount(t, "79150", approved.TotalNet)
	})

	t.Run("adjustment trail", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/payroll/runs/"+runID+"/adjustments", nil)
		require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
		var adjustments []struct {
			RecordID  string `json:"record_id"`
			Type      string `json:"type"`
			NetBefore string `json:"net_before"`
			NetAfter  string `json:"net_after"`
		}
		mustData(t, resp, &adjustments)
		require.Len(t, adjustments, 1)
		assert.Equal(t, records[0].ID, adjustments[0].RecordID)
		assert.Equal(t, "CORRECTION", adjustments[0].Type)
		requireAmount(t, "39150", adjustments[0].NetBefore)
		requireAmount(t, "40000", adjustments[0].NetAfter)
		require.NotNil(t, resp.Meta)
		assert.EqualValues(t, 1, resp.Meta.TotalItems)
	})

	t.Run("list runs by status", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/payroll/runs?status=approved", nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, resp.Meta)
		assert.EqualValues(t, 1, resp.Meta.TotalItems)

		status, resp = f.do(t, token, http.MethodGet, "/api/v1/payroll/runs?status=completed", nil)
		require.Equal(t, http.StatusOK, status)
		var runs []json.RawMessage
		mustData(t, resp, &runs)
		assert.Empty(t, runs)

		status, resp = f.do(t, token, http.MethodGet, "/api/v1/payroll/runs?status=paid", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Contains(t, resp.Error.Details, "status")
	})

	t.Run("malformed run id", func(t *testing.T) {
		status, resp := f.do(t, token, http.MethodGet, "/api/v1/payroll/runs/not-a-uuid", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "id")
	})

	t.Run("reject approved run", func(t *testing.T) {
		status, _ := f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/reject", map[string]string{"comments": "too late"})
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestPayrollHandler_RejectRecalculateDelete(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	st := f.createEngineer(t, token)
	emp := f.employee(t, "E001", "2024-03")
	status, resp := f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"employee_id": emp, "structure_id": st, "ctc": "50000", "effective_from": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs", map[string]string{"period": "2024-03"})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		Run struct {
			ID string `json:"id"`
		} `json:"run"`
	}
	mustData(t, resp, &created)
	runID := created.Run.ID

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/reject", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, resp.Error.Details, "comments")

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/reject", map[string]string{"comments": "HRA is wrong"})
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
	var rejected struct {
		Status          string  `json:"status"`
		RejectionReason *string `json:"rejection_reason"`
	}
	mustData(t, resp, &rejected)
	assert.Equal(t, "failed", rejected.Status)
	require.NotNil(t, rejected.RejectionReason)

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/recalculate", nil)
	require.Equal(t, http.StatusOK, status, "%+v", resp.Error)
	var recalculated struct {
		Run struct {
			Status string `json:"status"`
		} `json:"run"`
	}
	mustData(t, resp, &recalculated)
	assert.Equal(t, "completed", recalculated.Run.Status)

	status, _ = f.do(t, token, http.MethodPost, "/api/v1/payroll/runs/"+runID+"/reject", map[string]string{"comments": "Again"})
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, token, http.MethodDelete, "/api/v1/payroll/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = f.do(t, token, http.MethodGet, "/api/v1/payroll/runs/"+runID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPayrollHandler_Preview(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)
	st := f.createEngineer(t, token)
	emp := f.employee(t, "E001", "2024-03")
	status, resp := f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"employee_id": emp, "structure_id": st, "ctc": "50000", "effective_from": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
		gross  string
	}{
		{
			name:   "stored attendance",
			body:   map[string]interface{}{"employee_id": emp, "period": "2024-03"},
			status: http.StatusOK,
			gross:  "42000",
		},
		{
			name:   "missing attendance",
			body:   map[string]interface{}{"employee_id": emp, "period": "2024-04"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "invalid period",
			body:   map[string]interface{}{"employee_id": emp, "period": "March"},
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown employee",
			body:   map[string]interface{}{"employee_id": "0192f0a0-0000-7000-8000-00000000ffff", "period": "2024-03"},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := f.do(t, token, http.MethodPost, "/api/v1/payroll/preview", tt.body)
			require.Equal(t, tt.status, status, "%+v", resp.Error)
			if tt.gross != "" {
				var rec struct {
					GrossSalary string `json:"gross_salary"`
				}
				mustData(t, resp, &rec)
				requireAmount(t, tt.gross, rec.GrossSalary)
			}
		})
	}

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/payroll/runs", nil)
	require.Equal(t, http.StatusOK, status)
	var runs []map[string]interface{}
	mustData(t, resp, &runs)
	assert.Empty(t, runs)
}

// ===== GRADES =====

func TestMasterHandler_GradeBandGuardsAssignment(t *testing.T) {
	f := newAPIFixture(t)
	token := f.manager(t)

	status, resp := f.do(t, token, http.MethodPost, "/api/v1/grades", map[string]interface{}{
		"name": "L1", "min_salary": "30000", "max_salary": "60000",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var g struct {
		ID string `json:"id"`
	}
	mustData(t, resp, &g)

	status, resp = f.do(t, token, http.MethodPost, "/api/v1/grades", map[string]interface{}{"name": "L1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_NAME", resp.Error.Code)

	basic := f.createComponent(t, token, "BASIC", "earning", "basic")
	status, resp = f.do(t, token, http.MethodPost, "/api/v1/structures", map[string]interface{}{
		"name":           "Graded",
		"code":           "GRADED",
		"grade_id":       g.ID,
		"effective_from": "2024-01-01",
		"components": []map[string]interface{}{
			{"pay_component_id": basic, "calculation_mode": "fixed", "value": "30000", "display_order": 1},
		},
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp.Error)
	var st struct {
		ID string `json:"id"`
	}
	mustData(t, resp, &st)

	emp := f.employee(t, "E001", "2024-03")
	status, resp = f.do(t, token, http.MethodPost, "/api/v1/assignments", map[string]interface{}{
		"employee_id": emp, "structure_id": st.ID, "ctc": "75000", "effective_from": "2024-01-01",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "CTC_OUT_OF_GRADE_RANGE", resp.Error.Code)

	status, resp = f.do(t, token, http.MethodGet, "/api/v1/grades", nil)
	require.Equal(t, http.StatusOK, status)
	var grades []map[string]interface{}
	mustData(t, resp, &grades)
	assert.Len(t, grades, 1)
}
