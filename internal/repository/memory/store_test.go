package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "0192f0a0-0000-7000-8000-000000000001"

func TestTransactor_RollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	store := NewStore()
	tx := NewTransactor(store)
	repo := NewPayrollRepository(store)
	ctx := context.Background()

	txRunID := make(chan string)
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- tx.WithinTransaction(ctx, func(ctx context.Context) error {
			run, err := repo.CreateRun(ctx, payroll.Run{CompanyID: testCompanyID, Period: "2024-01", Status: payroll.RunStatusDraft})
			if err != nil {
				return err
			}
			txRunID <- run.ID
			<-release
			return errors.New("calculation aborted")
		})
	}()
	uncommittedID := <-txRunID

	type result struct {
		run payroll.Run
		err error
	}
	created := make(chan result, 1)
	go func() {
		run, err := repo.CreateRun(ctx, payroll.Run{CompanyID: testCompanyID, Period: "2024-02", Status: payroll.RunStatusDraft})
		created <- result{run, err}
	}()
	read := make(chan error, 1)
	go func() {
		_, err := repo.GetRunByID(ctx, uncommittedID, testCompanyID)
		read <- err
	}()

	select {
	case <-created:
		t.Fatal("write outside the transaction completed while it was open")
	case <-read:
		t.Fatal("uncommitted run was readable outside the transaction")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-txDone)

	assert.ErrorIs(t, <-read, payroll.ErrRunNotFound)

	outside := <-created
	require.NoError(t, outside.err)
	got, err := repo.GetRunByID(ctx, outside.run.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02", got.Period)

	runs, err := repo.ListRuns(ctx, testCompanyID)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestTransactor_CommitIsVisible(t *testing.T) {
	store := NewStore()
	tx := NewTransactor(store)
	repo := NewPayrollRepository(store)
	ctx := context.Background()

	var id string
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := repo.CreateRun(ctx, payroll.Run{CompanyID: testCompanyID, Period: "2024-03", Status: payroll.RunStatusDraft})
		id = run.ID
		return err
	})
	require.NoError(t, err)

	_, err = repo.GetRunByID(ctx, id, testCompanyID)
	assert.NoError(t, err)
}

func TestTransactor_NestedCallJoinsOuter(t *testing.T) {
	store := NewStore()
	tx := NewTransactor(store)
	repo := NewPayrollRepository(store)
	ctx := context.Background()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.CreateRun(ctx, payroll.Run{CompanyID: testCompanyID, Period: "2024-04", Status: payroll.RunStatusDraft})
			return err
		}); err != nil {
			return err
		}
		return errors.New("outer failed")
	})
	require.Error(t, err)

	runs, err := repo.ListRuns(ctx, testCompanyID)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
