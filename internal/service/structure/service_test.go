package structure

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/memory"
	auditservice "github.com/cmlabs-hris/hris-payroll-go/internal/service/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID = "0192f0a0-0000-7000-8000-000000000001"
	testUserID    = "0192f0a0-0000-7000-8000-0000000000aa"
)

type structureFixture struct {
	ctx       context.Context
	store     *memory.Store
	service   structure.StructureService
	basicID   string
	hraID     string
	specialID string
}

func newStructureFixture(t *testing.T) *structureFixture {
	t.Helper()

	ctx, err := jwt.ContextWithClaims(context.Background(), testCompanyID, testUserID)
	require.NoError(t, err)

	store := memory.NewStore()
	svc := NewStructureService(
		memory.NewTransactor(store),
		memory.NewStructureRepository(store),
		memory.NewGradeRepository(store),
		auditservice.NewRecorder(memory.NewAuditSink(store)),
	)

	f := &structureFixture{ctx: ctx, store: store, service: svc}
	f.basicID = f.createComponent(t, "BASIC", "basic")
	f.hraID = f.createComponent(t, "HRA", "allowance")
	f.specialID = f.createComponent(t, "SPECIAL", "allowance")
	return f
}

func (f *structureFixture) createComponent(t *testing.T, code, category string) string {
	t.Helper()
	resp, err := f.service.CreatePayComponent(f.ctx, structure.CreatePayComponentRequest{
		Code:     code,
		Name:     code,
		Type:     "earning",
		Category: category,
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *structureFixture) engineerComponents() []structure.ComponentInput {
	basicID := f.basicID
	return []structure.ComponentInput{
		{PayComponentID: f.basicID, CalculationMode: "fixed", Value: decPtr("30000"), DisplayOrder: 1},
		{PayComponentID: f.hraID, CalculationMode: "percentage", Percentage: decPtr("40"), BaseComponentID: &basicID, DisplayOrder: 2},
	}
}

func (f *structureFixture) createEngineer(t *testing.T, from string) structure.StructureResponse {
	t.Helper()
	resp, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name:          "Engineer-L1",
		Code:          "ENG-L1",
		EffectiveFrom: from,
		Components:    f.engineerComponents(),
	})
	require.NoError(t, err)
	return resp
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ===== PAY COMPONENTS =====

func TestStructureService_CreatePayComponent_DuplicateCode(t *testing.T) {
	f := newStructureFixture(t)

	_, err := f.service.CreatePayComponent(f.ctx, structure.CreatePayComponentRequest{
		Code: "BASIC", Name: "Basic again", Type: "earning", Category: "basic",
	})
	assert.ErrorIs(t, err, structure.ErrPayComponentCodeExists)
}

func TestStructureService_CreatePayComponent_TypeCategoryMismatch(t *testing.T) {
	f := newStructureFixture(t)

	_, err := f.service.CreatePayComponent(f.ctx, structure.CreatePayComponentRequest{
		Code: "PF", Name: "Provident fund", Type: "earning", Category: "statutory_deduction",
	})
	assert.Error(t, err)
}

func TestStructureService_ListPayComponents(t *testing.T) {
	f := newStructureFixture(t)

	list, err := f.service.ListPayComponents(f.ctx, true)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BASIC", list[0].Code)
}

// ===== CREATE VERSION =====

func TestStructureService_CreateVersion_Success(t *testing.T) {
	f := newStructureFixture(t)

	resp := f.createEngineer(t, "2024-01-01")

	assert.Equal(t, 1, resp.Version)
	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.EffectiveTo)
	require.Len(t, resp.Components, 2)
	assert.Equal(t, "BASIC", resp.Components[0].Code)
	assert.Equal(t, "HRA", resp.Components[1].Code)

	entries := f.store.AuditEntries(testCompanyID)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionStructureCreated, entries[0].Action)
	assert.Equal(t, resp.ID, entries[0].ResourceID)
	assert.Equal(t, testUserID, entries[0].ActorID)
}

func TestStructureService_CreateVersion_DuplicateNameOrCode(t *testing.T) {
	f := newStructureFixture(t)
	f.createEngineer(t, "2024-01-01")

	tests := []struct {
		name string
		req  structure.CreateStructureRequest
	}{
		{"same name", structure.CreateStructureRequest{Name: "Engineer-L1", Code: "OTHER", EffectiveFrom: "2025-01-01", Components: f.engineerComponents()}},
		{"same code", structure.CreateStructureRequest{Name: "Other", Code: "ENG-L1", EffectiveFrom: "2025-01-01", Components: f.engineerComponents()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateVersion(f.ctx, tt.req)
			assert.ErrorIs(t, err, structure.ErrDuplicateNameOrCode)
		})
	}
}

func TestStructureService_CreateVersion_InvertedRange(t *testing.T) {
	f := newStructureFixture(t)
	to := "2024-01-01"

	_, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name: "Engineer-L1", Code: "ENG-L1", EffectiveFrom: "2024-01-01", EffectiveTo: &to,
		Components: f.engineerComponents(),
	})
	assert.ErrorIs(t, err, structure.ErrInvertedRange)
}

func TestStructureService_CreateVersion_UnresolvedBaseReference(t *testing.T) {
	f := newStructureFixture(t)
	basicID := f.basicID

	_, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name:          "Engineer-L1",
		Code:          "ENG-L1",
		EffectiveFrom: "2024-01-01",
		Components: []structure.ComponentInput{
			{PayComponentID: f.hraID, CalculationMode: "percentage", Percentage: decPtr("40"), BaseComponentID: &basicID, DisplayOrder: 1},
			{PayComponentID: f.basicID, CalculationMode: "fixed", Value: decPtr("30000"), DisplayOrder: 2},
		},
	})
	assert.ErrorIs(t, err, structure.ErrUnresolvedBaseReference)

	_, err = f.service.History(f.ctx, "Engineer-L1")
	assert.ErrorIs(t, err, structure.ErrStructureNotFound, "nothing persisted")
}

func TestStructureService_CreateVersion_UnknownPayComponent(t *testing.T) {
	f := newStructureFixture(t)

	_, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name:          "Engineer-L1",
		Code:          "ENG-L1",
		EffectiveFrom: "2024-01-01",
		Components: []structure.ComponentInput{
			{PayComponentID: "0192f0a0-0000-7000-8000-00000000ffff", CalculationMode: "fixed", Value: decPtr("1"), DisplayOrder: 1},
		},
	})
	assert.ErrorIs(t, err, structure.ErrPayComponentNotFound)
}

func TestStructureService_CreateVersion_UnknownGrade(t *testing.T) {
	f := newStructureFixture(t)
	gradeID := "0192f0a0-0000-7000-8000-00000000eeee"

	_, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name: "Engineer-L1", Code: "ENG-L1", GradeID: &gradeID, EffectiveFrom: "2024-01-01",
		Components: f.engineerComponents(),
	})
	assert.ErrorIs(t, err, grade.ErrGradeNotFound)
}

func TestStructureService_CreateVersion_RequiresClaims(t *testing.T) {
	f := newStructureFixture(t)

	_, err := f.service.CreateVersion(context.Background(), structure.CreateStructureRequest{
		Name: "Engineer-L1", Code: "ENG-L1", EffectiveFrom: "2024-01-01", Components: f.engineerComponents(),
	})
	assert.Error(t, err)
}

// ===== SUPERSEDE =====

func TestStructureService_Supersede_ClosesPredecessorAndCarriesComponentsForward(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")

	v2, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID,
		EffectiveFrom: "2024-07-01",
		ChangeLog:     "mid-year revision",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, v2.Version)
	assert.True(t, v2.IsActive)
	require.NotNil(t, v2.BaseVersionID)
	assert.Equal(t, v1.ID, *v2.BaseVersionID)
	require.Len(t, v2.Components, 2)
	assert.Equal(t, v1.Components[0].PayComponentID, v2.Components[0].PayComponentID)
	assert.Equal(t, v1.Components[1].CalculationMode, v2.Components[1].CalculationMode)
	assert.NotEqual(t, v1.Components[0].ID, v2.Components[0].ID)

	closed, err := f.service.GetVersion(f.ctx, v1.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.EffectiveTo)
	assert.Equal(t, "2024-07-01", *closed.EffectiveTo)
	assert.False(t, closed.IsActive)

	history, err := f.service.History(f.ctx, "Engineer-L1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v1.ID, history[0].ID)
	assert.Equal(t, v2.ID, history[1].ID)

	entries := f.store.AuditEntries(testCompanyID)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionStructureSuperseded, entries[1].Action)
	assert.NotEmpty(t, entries[1].Before)
}

func TestStructureService_Supersede_WithNewComponents(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")

	v2, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID,
		EffectiveFrom: "2024-07-01",
		ChangeLog:     "add special allowance",
		Components: append(f.engineerComponents(), structure.ComponentInput{
			PayComponentID: f.specialID, CalculationMode: "formula", Formula: strPtr("CTC - BASIC - HRA"), DisplayOrder: 3,
		}),
	})
	require.NoError(t, err)
	require.Len(t, v2.Components, 3)
	assert.Equal(t, "SPECIAL", v2.Components[2].Code)
}

// Overlap is rejected and nothing is written.
func TestStructureService_Supersede_OverlapCommitsNothing(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")
	v2, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-07-01", ChangeLog: "revision",
	})
	require.NoError(t, err)

	_, err = f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-03-01", ChangeLog: "backdated",
	})
	require.ErrorIs(t, err, structure.ErrOverlappingRange)

	var overlap *structure.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Contains(t, []string{v1.ID, v2.ID}, overlap.ConflictID)

	history, err := f.service.History(f.ctx, "Engineer-L1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	current, err := f.service.GetVersion(f.ctx, v2.ID)
	require.NoError(t, err)
	assert.Nil(t, current.EffectiveTo)
}

func TestStructureService_Supersede_SameStartOverlapsOpenVersion(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")

	_, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-01-01", ChangeLog: "same day",
	})

	var overlap *structure.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, v1.ID, overlap.ConflictID)
	assert.Equal(t, 1, overlap.ConflictVersion)
}

func TestStructureService_Supersede_InvertedRange(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")
	to := "2024-06-01"

	_, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-07-01", EffectiveTo: &to, ChangeLog: "inverted",
	})
	assert.ErrorIs(t, err, structure.ErrInvertedRange)
}

func TestStructureService_Supersede_GapAfterClosedVersion(t *testing.T) {
	f := newStructureFixture(t)
	to := "2024-06-01"
	v1, err := f.service.CreateVersion(f.ctx, structure.CreateStructureRequest{
		Name: "Engineer-L1", Code: "ENG-L1", EffectiveFrom: "2024-01-01", EffectiveTo: &to,
		Components: f.engineerComponents(),
	})
	require.NoError(t, err)

	_, err = f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-08-01", ChangeLog: "late",
	})
	require.ErrorIs(t, err, structure.ErrRangeGap)

	var gap *structure.GapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, v1.ID, gap.NeighbourID)
	assert.Equal(t, date("2024-06-01"), gap.GapFrom)
	assert.Equal(t, date("2024-08-01"), gap.GapTo)

	_, err = f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-06-01", ChangeLog: "contiguous",
	})
	assert.NoError(t, err)
}

func TestStructureService_Supersede_BaseNotFound(t *testing.T) {
	f := newStructureFixture(t)

	_, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: "0192f0a0-0000-7000-8000-00000000dddd", EffectiveFrom: "2024-07-01", ChangeLog: "x",
	})
	assert.ErrorIs(t, err, structure.ErrStructureNotFound)
}

// ===== READS =====

func TestStructureService_ResolveActive(t *testing.T) {
	f := newStructureFixture(t)
	v1 := f.createEngineer(t, "2024-01-01")
	v2, err := f.service.Supersede(f.ctx, structure.SupersedeStructureRequest{
		BaseVersionID: v1.ID, EffectiveFrom: "2024-07-01", ChangeLog: "revision",
	})
	require.NoError(t, err)

	tests := []struct {
		asOf   string
		wantID string
	}{
		{"2024-01-01", v1.ID},
		{"2024-06-30", v1.ID},
		{"2024-07-01", v2.ID},
		{"2030-01-01", v2.ID},
	}
	for _, tt := range tests {
		t.Run(tt.asOf, func(t *testing.T) {
			got, err := f.service.ResolveActive(f.ctx, "Engineer-L1", date(tt.asOf))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	_, err = f.service.ResolveActive(f.ctx, "Engineer-L1", date("2023-12-31"))
	assert.ErrorIs(t, err, structure.ErrStructureNotFound)
}

func TestStructureService_ListCurrent(t *testing.T) {
	f := newStructureFixture(t)
	f.createEngineer(t, "2024-01-01")

	list, err := f.service.ListCurrent(f.ctx, date("2024-05-01"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Engineer-L1", list[0].Name)

	list, err = f.service.ListCurrent(f.ctx, date("2023-05-01"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

// ===== TIMELINE =====

func TestCheckTimeline(t *testing.T) {
	closedTo := date("2024-07-01")
	versions := []structure.Structure{
		{ID: "v1", Version: 1, EffectiveFrom: date("2024-01-01"), EffectiveTo: &closedTo},
		{ID: "v2", Version: 2, EffectiveFrom: date("2024-07-01")},
	}
	until := func(s string) *time.Time { d := date(s); return &d }

	tests := []struct {
		name            string
		rng             structure.DateRange
		wantErr         error
		wantPredecessor string
	}{
		{"after open version", structure.DateRange{From: date("2025-01-01")}, nil, "v2"},
		{"inside closed version", structure.DateRange{From: date("2024-03-01")}, structure.ErrOverlappingRange, ""},
		{"same start as open version", structure.DateRange{From: date("2024-07-01")}, structure.ErrOverlappingRange, ""},
		{"before history, contiguous", structure.DateRange{From: date("2023-01-01"), To: until("2024-01-01")}, structure.ErrOverlappingRange, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := checkTimeline(versions, tt.rng)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, pred)
			assert.Equal(t, tt.wantPredecessor, pred.ID)
		})
	}
}

func TestCheckTimeline_GapBeforeNextVersion(t *testing.T) {
	closedTo := date("2024-12-01")
	versions := []structure.Structure{
		{ID: "v1", Version: 1, EffectiveFrom: date("2024-06-01"), EffectiveTo: &closedTo},
	}
	to := date("2024-03-01")

	_, err := checkTimeline(versions, structure.DateRange{From: date("2024-01-01"), To: &to})

	var gap *structure.GapError
	require.ErrorAs(t, err, &gap)
	assert.Equal(t, "v1", gap.NeighbourID)
	assert.Equal(t, date("2024-03-01"), gap.GapFrom)
	assert.Equal(t, date("2024-06-01"), gap.GapTo)
}
