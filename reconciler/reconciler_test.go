package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases/memdb"
	"github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

type fixture struct {
	store *memdb.Store
	r     *Reconciler
	base  time.Time
}

func newFixture() *fixture {
	store := memdb.New()
	return &fixture{
		store: store,
		r:     New(store.Cases(), store.Assignments()),
		base:  time.Now().Add(-time.Hour),
	}
}

func (f *fixture) addCase(t *testing.T, status, currentLawyer string) models.Case {
	t.Helper()
	c := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			CaseNumber:    "CL2026-" + primitive.NewObjectID().Hex()[18:],
			UserID:        "client-1",
			Status:        status,
			CurrentLawyer: currentLawyer,
			CreatedAt:     f.base,
		},
	}
	require.NoError(t, f.store.Cases().InsertOne(context.Background(), c))
	return c
}

// addAssignment stores an assignment created offset after the fixture base time
func (f *fixture) addAssignment(t *testing.T, c models.Case, lawyer, by, status string, offset time.Duration) models.LawyerAssignment {
	t.Helper()
	a := models.LawyerAssignment{
		ID:         primitive.NewObjectID(),
		CaseID:     c.ID.Hex(),
		LawyerID:   lawyer,
		AssignedBy: by,
		Status:     status,
		CreatedAt:  f.base.Add(offset),
	}
	require.NoError(t, f.store.Assignments().InsertOne(context.Background(), a))
	return a
}

func (f *fixture) load(t *testing.T, c models.Case) models.CaseDetails {
	t.Helper()
	got, err := f.store.Cases().FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	return got.Details
}

func TestReconcile_AlignsWithAcceptedAssignment(t *testing.T) {
	for _, status := range []string{models.CaseStatusLawyerAssigned, models.CaseStatusFiled, models.CaseStatusSchedulingRequested} {
		t.Run(status, func(t *testing.T) {
			f := newFixture()
			c := f.addCase(t, status, "")
			f.addAssignment(t, c, "lawyer-a", models.AssignedByClient, models.AssignmentRejected, time.Minute)
			f.addAssignment(t, c, "lawyer-b", models.AssignedByClient, models.AssignmentAccepted, 2*time.Minute)

			res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
			require.NoError(t, err)
			assert.True(t, res.Fixed)
			assert.True(t, res.Consistent)
			assert.Equal(t, []string{ActionFromAccepted}, res.Actions)

			got := f.load(t, c)
			assert.Equal(t, "lawyer-b", got.CurrentLawyer)
			assert.Equal(t, status, got.Status)
			require.Len(t, got.History, 1)
			assert.Equal(t, "reconciled", got.History[0].Action)
		})
	}
}

func TestReconcile_RealignsStaleLawyer(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusFiled, "lawyer-gone")
	f.addAssignment(t, c, "lawyer-gone", models.AssignedByClient, models.AssignmentWithdrawn, time.Minute)
	f.addAssignment(t, c, "lawyer-b", models.AssignedByClient, models.AssignmentAccepted, 2*time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{ActionRealigned}, res.Actions)
	assert.Equal(t, "lawyer-b", f.load(t, c).CurrentLawyer)
}

func TestReconcile_ForcedAccept(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusLawyerAssigned, "")
	a := f.addAssignment(t, c, "lawyer-a", models.AssignedBySystem, models.AssignmentPending, time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Fixed)
	assert.Equal(t, "lawyer-a", res.Lawyer)
	assert.Equal(t, []string{ActionForcedAccept}, res.Actions)

	assignment, err := f.store.Assignments().FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentAccepted, assignment.Status)
	assert.NotNil(t, assignment.ResponseDate)
	assert.NotEmpty(t, assignment.LawyerResponse)

	got := f.load(t, c)
	assert.Equal(t, "lawyer-a", got.CurrentLawyer)
	assert.Equal(t, models.CaseStatusLawyerAssigned, got.Status)
}

func TestReconcile_HearingScheduledWithPendingIsDowngraded(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusHearingScheduled, "")
	a := f.addAssignment(t, c, "lawyer-a", models.AssignedByClient, models.AssignmentPending, time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{ActionAcceptedPending}, res.Actions)
	assert.True(t, res.Consistent)

	got := f.load(t, c)
	assert.Equal(t, "lawyer-a", got.CurrentLawyer)
	assert.Equal(t, models.CaseStatusLawyerAssigned, got.Status)

	assignment, _ := f.store.Assignments().FindByID(context.Background(), a.ID)
	assert.Equal(t, models.AssignmentAccepted, assignment.Status)
}

func TestReconcile_Unfixable(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusFiled, "")
	f.addAssignment(t, c, "lawyer-a", models.AssignedByClient, models.AssignmentRejected, time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.Fixed)
	assert.False(t, res.Consistent)
	assert.Equal(t, []string{ActionUnfixable}, res.Actions)
	assert.Empty(t, f.load(t, c).CurrentLawyer)

	noAssignments := f.addCase(t, models.CaseStatusLawyerAssigned, "")
	res, err = f.r.Reconcile(context.Background(), noAssignments.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.Fixed)
}

func TestReconcile_TheftGuardRestoresHumanAssignment(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusLawyerAssigned, "lawyer-b")
	f.addAssignment(t, c, "lawyer-a", models.AssignedByClient, models.AssignmentAccepted, time.Minute)
	f.addAssignment(t, c, "lawyer-b", models.AssignedBySystem, models.AssignmentAccepted, 2*time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Fixed)
	assert.Equal(t, []string{ActionTheftGuard}, res.Actions)
	assert.Equal(t, "lawyer-a", f.load(t, c).CurrentLawyer)

	// a second run finds nothing left to do
	res, err = f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.False(t, res.Fixed)
	assert.True(t, res.Consistent)
}

func TestReconcile_TheftGuardRunsAfterMissingLawyerRepair(t *testing.T) {
	f := newFixture()
	c := f.addCase(t, models.CaseStatusFiled, "")
	f.addAssignment(t, c, "lawyer-a", models.AssignedByAdmin, models.AssignmentAccepted, time.Minute)
	f.addAssignment(t, c, "lawyer-b", models.AssignedBySystem, models.AssignmentAccepted, 2*time.Minute)

	res, err := f.r.Reconcile(context.Background(), c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{ActionFromAccepted, ActionTheftGuard}, res.Actions)
	assert.Equal(t, "lawyer-a", f.load(t, c).CurrentLawyer)
}

func TestReconcile_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.r.Reconcile(context.Background(), primitive.NewObjectID().Hex())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReconcileAll_CountsAndScope(t *testing.T) {
	f := newFixture()
	fixable := f.addCase(t, models.CaseStatusLawyerAssigned, "")
	f.addAssignment(t, fixable, "lawyer-a", models.AssignedByClient, models.AssignmentAccepted, time.Minute)
	f.addCase(t, models.CaseStatusFiled, "")
	healthy := f.addCase(t, models.CaseStatusFiled, "lawyer-c")
	f.addAssignment(t, healthy, "lawyer-c", models.AssignedByClient, models.AssignmentAccepted, time.Minute)
	f.addCase(t, models.CaseStatusPending, "")

	res, err := f.r.ReconcileAll(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, SweepResult{TotalChecked: 3, FixedCount: 1, UnfixedCount: 1}, res)

	res, err = f.r.ReconcileAll(context.Background(), Scope{UserID: "lawyer-c"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalChecked)
}

func TestReconcileAll_IsolatesFailures(t *testing.T) {
	cdb := &mocks.CaseDatabase{}
	adb := &mocks.LawyerAssignmentDatabase{}
	broken := models.Case{ID: primitive.NewObjectID(), Details: models.CaseDetails{Status: models.CaseStatusFiled}}
	panicky := models.Case{ID: primitive.NewObjectID(), Details: models.CaseDetails{Status: models.CaseStatusFiled}}
	good := models.Case{ID: primitive.NewObjectID(), Details: models.CaseDetails{Status: models.CaseStatusFiled}}

	cdb.On("Find", mock.Anything, mock.Anything).Return([]models.Case{broken, panicky, good}, nil)
	adb.On("FindByCase", mock.Anything, broken.ID.Hex(), "").Return(nil, errors.New("mocked-error"))
	adb.On("FindByCase", mock.Anything, panicky.ID.Hex(), "").Run(func(mock.Arguments) {
		panic("corrupt record")
	}).Return(nil, nil)
	adb.On("FindByCase", mock.Anything, good.ID.Hex(), "").Return([]models.LawyerAssignment{{
		ID: primitive.NewObjectID(), CaseID: good.ID.Hex(), LawyerID: "lawyer-a",
		AssignedBy: models.AssignedByClient, Status: models.AssignmentAccepted,
	}}, nil)
	cdb.On("UpdateOne", mock.Anything, good.ID, mock.Anything).Return(nil)

	res, err := New(cdb, adb).ReconcileAll(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Equal(t, SweepResult{TotalChecked: 3, FixedCount: 1, FailedCount: 2}, res)
	cdb.AssertExpectations(t)
}
