package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "0192f0a0-0000-7000-8000-000000000001"

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties the
// payroll tables. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	tables := []string{
		"audit_events",
		"payroll_adjustments",
		"payroll_run_records",
		"payroll_runs",
		"employee_salary_overrides",
		"employee_salary_assignments",
		"salary_structure_components",
		"salary_structures",
		"pay_components",
		"attendance_summaries",
		"grades",
		"employees",
	}
	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}

	return db
}

func seedEmployee(t *testing.T, db *database.DB, code string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (id, company_id, employee_code, full_name)
		VALUES (uuidv7(), $1, $2, $3)
		RETURNING id
	`, testCompanyID, code, "Employee "+code).Scan(&id)
	require.NoError(t, err)
	return id
}

func seedFacts(t *testing.T, db *database.DB, employeeID, period string, working, present int) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO attendance_summaries (company_id, employee_id, period, working_days, present_days, absent_days, lop_days)
		VALUES ($1, $2, $3, $4, $5, $4 - $5, $4 - $5)
	`, testCompanyID, employeeID, period, working, present)
	require.NoError(t, err)
}
