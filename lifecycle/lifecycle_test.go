package lifecycle

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases/memdb"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
)

var (
	client      = identity.Caller{UserID: "client-1", UserType: models.UserTypeClient}
	otherClient = identity.Caller{UserID: "client-2", UserType: models.UserTypeClient}
	lawyerA     = identity.Caller{UserID: "lawyer-a", UserType: models.UserTypeLawyer}
	lawyerB     = identity.Caller{UserID: "lawyer-b", UserType: models.UserTypeLawyer}
	admin       = identity.Caller{UserID: "admin-1", UserType: models.UserTypeAdmin}
	court       = identity.Caller{UserID: "court-1", UserType: models.UserTypeCourt}
)

type fakeQueue struct {
	mu        sync.Mutex
	scheduled []jobs.Job
	cancelled []jobs.Job
}

func (q *fakeQueue) Schedule(_ context.Context, job jobs.Job, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.scheduled = append(q.scheduled, job)
	return nil
}

func (q *fakeQueue) Cancel(_ context.Context, job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled = append(q.cancelled, job)
	return nil
}

func (q *fakeQueue) Start(context.Context, jobs.Handler) {}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) wasScheduled(kind, caseID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return containsJob(q.scheduled, jobs.Job{Kind: kind, CaseID: caseID})
}

func (q *fakeQueue) wasCancelled(kind, caseID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return containsJob(q.cancelled, jobs.Job{Kind: kind, CaseID: caseID})
}

func containsJob(list []jobs.Job, job jobs.Job) bool {
	for _, j := range list {
		if j == job {
			return true
		}
	}
	return false
}

type eventRecorder struct {
	events chan notify.Event
}

func (r *eventRecorder) Notify(_ context.Context, e notify.Event) {
	r.events <- e
}

type fixture struct {
	store  *memdb.Store
	queue  *fakeQueue
	events *eventRecorder
	o      *Orchestrator
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memdb.New()
	seedUsers(store, true)
	f := &fixture{
		store:  store,
		queue:  &fakeQueue{},
		events: &eventRecorder{events: make(chan notify.Event, 32)},
		ctx:    context.Background(),
	}
	f.o = New(deps(store, f.queue, f.events), Options{ReconcileOnRead: true})
	return f
}

func deps(store *memdb.Store, q jobs.Queue, n notify.Notifier) Deps {
	return Deps{
		Cases:         store.Cases(),
		Assignments:   store.Assignments(),
		Verifications: store.Verifications(),
		Scheduling:    store.SchedulingRequests(),
		Users:         store.Users(),
		Queue:         q,
		Notifier:      n,
	}
}

func seedUsers(store *memdb.Store, lawyersAvailable bool) {
	users := []models.User{
		{ID: "client-1", Details: models.UserDetails{Name: "Nimal Perera", Email: "nimal@example.com", UserType: models.UserTypeClient}},
		{ID: "client-2", Details: models.UserDetails{Name: "Kamala Fernando", UserType: models.UserTypeClient}},
		{ID: "lawyer-a", Details: models.UserDetails{Name: "Anura Jayasinghe", UserType: models.UserTypeLawyer, District: "Colombo", Available: lawyersAvailable}},
		{ID: "lawyer-b", Details: models.UserDetails{Name: "Bimali Silva", UserType: models.UserTypeLawyer, District: "Kandy", Available: lawyersAvailable}},
		{ID: "admin-1", Details: models.UserDetails{Name: "Admin", UserType: models.UserTypeAdmin}},
		{ID: "court-1", Details: models.UserDetails{Name: "Registrar", UserType: models.UserTypeCourt}},
	}
	for _, u := range users {
		store.PutUser(u)
	}
}

func caseInput() CaseInput {
	return CaseInput{
		Title:       "Boundary dispute over ancestral land",
		Description: strings.Repeat("d", 50),
		CaseType:    "civil",
		District:    "Colombo",
		Plaintiff:   PartyInput{Name: "Nimal Perera"},
		Defendant:   PartyInput{Name: "Sunil Silva"},
	}
}

func (f *fixture) createCase(t *testing.T) *models.Case {
	t.Helper()
	c, err := f.o.CreateCase(f.ctx, client, caseInput())
	require.NoError(t, err)
	return c
}

// assigned walks a new case to lawyer_assigned with lawyer-a
func (f *fixture) assigned(t *testing.T) *models.Case {
	t.Helper()
	c := f.createCase(t)
	a, err := f.o.CreateAssignment(f.ctx, client, c.ID.Hex(), AssignmentInput{LawyerID: lawyerA.UserID})
	require.NoError(t, err)
	_, err = f.o.RespondToAssignment(f.ctx, lawyerA, a.ID.Hex(), AssignmentResponseInput{Accept: true})
	require.NoError(t, err)
	return f.reload(t, c)
}

func (f *fixture) reload(t *testing.T, c *models.Case) *models.Case {
	t.Helper()
	got, err := f.store.Cases().FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	return got
}

func (f *fixture) nextEvent(t *testing.T) notify.Event {
	t.Helper()
	select {
	case e := <-f.events.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
	return notify.Event{}
}

func TestCreateCase(t *testing.T) {
	f := newFixture(t)

	c := f.createCase(t)

	assert.Equal(t, models.CaseStatusPending, c.Details.Status)
	assert.Equal(t, models.VerificationPending, c.Details.VerificationStatus)
	assert.Equal(t, client.UserID, c.Details.UserID)
	assert.Equal(t, fmt.Sprintf("CL%d-0001", time.Now().Year()), c.Details.CaseNumber)
	assert.True(t, f.queue.wasScheduled(jobs.KindAutoVerify, c.ID.Hex()))

	second := f.createCase(t)
	assert.Equal(t, fmt.Sprintf("CL%d-0002", time.Now().Year()), second.Details.CaseNumber)
}

func TestCreateCase_ConcurrentNumbersAreDistinct(t *testing.T) {
	f := newFixture(t)
	const n = 25

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.o.CreateCase(f.ctx, client, caseInput())
			if assert.NoError(t, err) {
				numbers <- c.Details.CaseNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	format := regexp.MustCompile(fmt.Sprintf(`^CL%d-\d{4}$`, time.Now().Year()))
	seen := map[string]bool{}
	for number := range numbers {
		assert.Regexp(t, format, number)
		assert.False(t, seen[number], "duplicate case number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestCreateCase_Rejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.o.CreateCase(f.ctx, lawyerA, caseInput())
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	in := caseInput()
	in.Title = "  "
	in.Plaintiff.Name = ""
	_, err = f.o.CreateCase(f.ctx, client, in)
	require.ErrorIs(t, err, apperrors.ErrValidationFailed)
	fields := apperrors.Fields(err)
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "plaintiff.name")
}

func TestGetCase_Access(t *testing.T) {
	f := newFixture(t)
	c := f.createCase(t)

	_, err := f.o.GetCase(f.ctx, otherClient, c.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	_, err = f.o.GetCase(f.ctx, lawyerA, c.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	// a proposal lets the lawyer see the case
	_, err = f.o.CreateAssignment(f.ctx, client, c.ID.Hex(), AssignmentInput{LawyerID: lawyerA.UserID})
	require.NoError(t, err)
	got, err := f.o.GetCase(f.ctx, lawyerA, c.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusLawyerRequested, got.Details.Status)

	_, err = f.o.GetCase(f.ctx, admin, "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetCase_ReconcilesOnRead(t *testing.T) {
	f := newFixture(t)
	c := f.assigned(t)
	require.NoError(t, f.store.Cases().UpdateOne(f.ctx, c.ID, models.CaseUpdate{CurrentLawyer: models.StringPtr("")}))

	got, err := f.o.GetCase(f.ctx, client, c.ID.Hex())

	require.NoError(t, err)
	assert.Equal(t, lawyerA.UserID, got.Details.CurrentLawyer)
}

func TestListCases(t *testing.T) {
	f := newFixture(t)
	assigned := f.assigned(t)
	proposed := f.createCase(t)
	_, err := f.o.CreateAssignment(f.ctx, client, proposed.ID.Hex(), AssignmentInput{LawyerID: lawyerA.UserID})
	require.NoError(t, err)
	_, err = f.o.CreateCase(f.ctx, otherClient, caseInput())
	require.NoError(t, err)

	mine, err := f.o.ListCases(f.ctx, client, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	forLawyer, err := f.o.ListCases(f.ctx, lawyerA, "")
	require.NoError(t, err)
	assert.Len(t, forLawyer, 2)

	onlyAssigned, err := f.o.ListCases(f.ctx, lawyerA, models.CaseStatusLawyerAssigned)
	require.NoError(t, err)
	require.Len(t, onlyAssigned, 1)
	assert.Equal(t, assigned.ID, onlyAssigned[0].ID)

	all, err := f.o.ListCases(f.ctx, court, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.o.ListCases(f.ctx, admin, "archived")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestUpdateCase(t *testing.T) {
	f := newFixture(t)
	c := f.createCase(t)

	in := caseInput()
	in.Title = "Amended title"
	in.Documents = []DocumentInput{{Name: "deed.pdf", URL: "https://files.example.com/deed.pdf"}}
	got, err := f.o.UpdateCase(f.ctx, client, c.ID.Hex(), in)
	require.NoError(t, err)
	assert.Equal(t, "Amended title", got.Details.Title)
	assert.Len(t, got.Details.Documents, 1)

	_, err = f.o.UpdateCase(f.ctx, otherClient, c.ID.Hex(), in)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestDeleteCase(t *testing.T) {
	f := newFixture(t)
	c := f.createCase(t)

	require.ErrorIs(t, f.o.DeleteCase(f.ctx, otherClient, c.ID.Hex()), apperrors.ErrAccessDenied)
	require.NoError(t, f.o.DeleteCase(f.ctx, client, c.ID.Hex()))

	assert.True(t, f.queue.wasCancelled(jobs.KindAutoVerify, c.ID.Hex()))
	assert.True(t, f.queue.wasCancelled(jobs.KindAutoAssign, c.ID.Hex()))
	_, err := f.o.GetCase(f.ctx, client, c.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDeleteCase_RefusedOnceFiled(t *testing.T) {
	t.Run("filed through the court flow", func(t *testing.T) {
		f := newFixture(t)
		c := f.assigned(t)
		_, err := f.o.RequestFiling(f.ctx, client, c.ID.Hex())
		require.NoError(t, err)
		_, err = f.o.FileCourtCase(f.ctx, lawyerA, c.ID.Hex(), FilingInput{FilingReference: "DC/COL/2026/7"})
		require.NoError(t, err)

		assert.ErrorIs(t, f.o.DeleteCase(f.ctx, client, c.ID.Hex()), apperrors.ErrInvalidState)
		assert.ErrorIs(t, f.o.DeleteCase(f.ctx, admin, c.ID.Hex()), apperrors.ErrInvalidState)
		assert.Equal(t, models.CaseStatusFiled, f.reload(t, c).Details.Status)
	})

	t.Run("filed by status override", func(t *testing.T) {
		f := newFixture(t)
		c := f.assigned(t)
		_, err := f.o.UpdateStatus(f.ctx, admin, c.ID.Hex(), StatusInput{Status: models.CaseStatusFiled})
		require.NoError(t, err)
		require.Nil(t, f.reload(t, c).Details.CourtDetails)

		assert.ErrorIs(t, f.o.DeleteCase(f.ctx, client, c.ID.Hex()), apperrors.ErrInvalidState)
		assert.Equal(t, models.CaseStatusFiled, f.reload(t, c).Details.Status)
	})
}

func TestVerifyCase(t *testing.T) {
	f := newFixture(t)
	c := f.createCase(t)

	_, err := f.o.VerifyCase(f.ctx, client, c.ID.Hex())
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	for i := 0; i < 2; i++ {
		record, err := f.o.VerifyCase(f.ctx, admin, c.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, models.VerificationVerified, record.Status)
	}
	records, err := f.o.GetVerifications(f.ctx, client, c.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, models.CaseStatusPending, f.reload(t, c).Details.Status)
}

// Creation through filing with the in-process timer queue driving verification.
func TestEndToEnd_CreateVerifyAssignFile(t *testing.T) {
	store := memdb.New()
	// nobody is available, so the automatic assignment finds no lawyer
	seedUsers(store, false)
	queue := jobs.NewTimerQueue()
	o := New(deps(store, queue, nil), Options{
		AutoVerifyDelay: 10 * time.Millisecond,
		AutoAssignDelay: 10 * time.Millisecond,
		ReconcileOnRead: true,
	})
	queue.Start(context.Background(), o.HandleJob)
	defer queue.Close()
	ctx := context.Background()

	in := caseInput()
	require.Len(t, in.Description, 50)
	require.Empty(t, in.Documents)
	c, err := o.CreateCase(ctx, client, in)
	require.NoError(t, err)
	caseID := c.ID.Hex()

	require.Eventually(t, func() bool {
		got, err := o.GetCase(ctx, client, caseID)
		return err == nil && got.Details.VerificationStatus == models.VerificationVerified
	}, 2*time.Second, 10*time.Millisecond)
	got, err := o.GetCase(ctx, client, caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusPending, got.Details.Status)

	assignment, err := o.CreateAssignment(ctx, identity.System, caseID, AssignmentInput{LawyerID: lawyerA.UserID})
	require.NoError(t, err)
	assert.Equal(t, models.AssignedBySystem, assignment.AssignedBy)
	assert.Equal(t, models.AssignmentPending, assignment.Status)

	_, err = o.RespondToAssignment(ctx, lawyerA, assignment.ID.Hex(), AssignmentResponseInput{Accept: true})
	require.NoError(t, err)
	got, err = o.GetCase(ctx, client, caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusLawyerAssigned, got.Details.Status)
	assert.Equal(t, lawyerA.UserID, got.Details.CurrentLawyer)

	got, err = o.RequestFiling(ctx, client, caseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusFilingRequested, got.Details.Status)

	got, err = o.FileCourtCase(ctx, lawyerA, caseID, FilingInput{FilingReference: "DC/COL/2026/118"})
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusFiled, got.Details.Status)
	require.NotNil(t, got.Details.CourtDetails)
	assert.False(t, got.Details.CourtDetails.FilingDate.IsZero())

	_, err = o.UpdateCase(ctx, client, caseID, caseInput())
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.ErrorIs(t, o.DeleteCase(ctx, client, caseID), apperrors.ErrInvalidState)
}
