// Package memdb is an in-process implementation of the database interfaces. It backs
// DB_DRIVER=memory and the engine tests, and reports errors the same way the mongo
// driver does (mongo.ErrNoDocuments, duplicate key write exceptions).
package memdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// Store holds every collection behind a single lock
type Store struct {
	mu            sync.RWMutex
	cases         map[primitive.ObjectID]models.Case
	assignments   map[primitive.ObjectID]models.LawyerAssignment
	verifications []models.Verification
	scheduling    map[string]models.SchedulingRequest
	users         map[string]models.User
	locks         map[string]models.SchedulerLock
}

// New returns an empty store
func New() *Store {
	return &Store{
		cases:       map[primitive.ObjectID]models.Case{},
		assignments: map[primitive.ObjectID]models.LawyerAssignment{},
		scheduling:  map[string]models.SchedulingRequest{},
		users:       map[string]models.User{},
		locks:       map[string]models.SchedulerLock{},
	}
}

// Cases returns the case collection
func (s *Store) Cases() databases.CaseDatabase { return &caseStore{s} }

// Assignments returns the lawyer assignment collection
func (s *Store) Assignments() databases.LawyerAssignmentDatabase { return &assignmentStore{s} }

// Verifications returns the verification collection
func (s *Store) Verifications() databases.VerificationDatabase { return &verificationStore{s} }

// SchedulingRequests returns the scheduling request collection
func (s *Store) SchedulingRequests() databases.SchedulingRequestDatabase {
	return &schedulingStore{s}
}

// Users returns the user collection
func (s *Store) Users() databases.UserDatabase { return &userStore{s} }

// Locks returns the scheduler lock collection
func (s *Store) Locks() databases.SchedulerLockDatabase { return &lockStore{s} }

// PutUser inserts or replaces a user. There is no user write path in the API, so seeding goes through here.
func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func duplicateKey(index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: "E11000 duplicate key error collection index: " + index,
		}},
	}
}

// cases

type caseStore struct{ s *Store }

func (c *caseStore) InsertOne(_ context.Context, legalCase models.Case) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.cases[legalCase.ID]; ok {
		return duplicateKey("_id_")
	}
	for _, existing := range c.s.cases {
		if existing.Details.CaseNumber == legalCase.Details.CaseNumber {
			return duplicateKey("uniq_case_number")
		}
	}
	c.s.cases[legalCase.ID] = cloneCase(legalCase)
	return nil
}

func (c *caseStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Case, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	legalCase, ok := c.s.cases[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := cloneCase(legalCase)
	return &out, nil
}

func (c *caseStore) Find(_ context.Context, filter models.CaseFilter) ([]models.Case, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	var cases []models.Case
	for _, legalCase := range c.s.cases {
		if matchCase(legalCase.Details, filter) {
			cases = append(cases, cloneCase(legalCase))
		}
	}
	sort.Slice(cases, func(i, j int) bool {
		a, b := cases[i], cases[j]
		if !a.Details.CreatedAt.Equal(b.Details.CreatedAt) {
			return a.Details.CreatedAt.After(b.Details.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})
	return cases, nil
}

func (c *caseStore) FindHighestCaseNumber(_ context.Context, prefix string) (string, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	highest := ""
	for _, legalCase := range c.s.cases {
		n := legalCase.Details.CaseNumber
		if strings.HasPrefix(n, prefix) && isDigits(n[len(prefix):]) && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (c *caseStore) CaseNumberExists(_ context.Context, number string) (bool, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	for _, legalCase := range c.s.cases {
		if legalCase.Details.CaseNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (c *caseStore) UpdateOne(_ context.Context, id primitive.ObjectID, u models.CaseUpdate) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	legalCase, ok := c.s.cases[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	d := &legalCase.Details
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.VerificationStatus != nil {
		d.VerificationStatus = *u.VerificationStatus
	}
	if u.CurrentLawyer != nil {
		d.CurrentLawyer = *u.CurrentLawyer
	}
	if u.Content != nil {
		d.Title = u.Content.Title
		d.Description = u.Content.Description
		d.CaseType = u.Content.CaseType
		d.District = u.Content.District
		d.Plaintiff = u.Content.Plaintiff
		d.Defendant = u.Content.Defendant
		if u.Content.Documents != nil {
			d.Documents = append([]models.CaseDocument(nil), u.Content.Documents...)
		}
	}
	if u.CourtDetails != nil {
		v := *u.CourtDetails
		d.CourtDetails = &v
	}
	if u.DocumentRequest != nil {
		v := *u.DocumentRequest
		v.Documents = append([]string(nil), v.Documents...)
		d.DocumentRequest = &v
	}
	if u.HearingDetails != nil {
		v := *u.HearingDetails
		d.HearingDetails = &v
	}
	if u.AdjournmentDetails != nil {
		v := *u.AdjournmentDetails
		d.AdjournmentDetails = &v
	}
	if u.CompletionDetails != nil {
		v := *u.CompletionDetails
		d.CompletionDetails = &v
	}
	if len(u.AddDocuments) > 0 {
		d.Documents = append(d.Documents, u.AddDocuments...)
	}
	if u.History != nil {
		d.History = append(d.History, *u.History)
	}
	d.UpdatedAt = time.Now()
	c.s.cases[id] = cloneCase(legalCase)
	return nil
}

func (c *caseStore) DeleteOne(_ context.Context, id primitive.ObjectID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.cases[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(c.s.cases, id)
	return nil
}

func (c *caseStore) EnsureIndexes(context.Context) error { return nil }

func matchCase(d models.CaseDetails, f models.CaseFilter) bool {
	if f.UserID != "" && d.UserID != f.UserID && d.CurrentLawyer != f.UserID {
		return false
	}
	if f.OwnerID != "" && d.UserID != f.OwnerID {
		return false
	}
	if f.LawyerID != "" && d.CurrentLawyer != f.LawyerID {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, d.Status) {
		return false
	}
	return true
}

func cloneCase(c models.Case) models.Case {
	out := c
	d := &out.Details
	d.Documents = append([]models.CaseDocument(nil), c.Details.Documents...)
	d.History = append([]models.CaseHistoryEntry(nil), c.Details.History...)
	if c.Details.CourtDetails != nil {
		v := *c.Details.CourtDetails
		d.CourtDetails = &v
	}
	if c.Details.DocumentRequest != nil {
		v := *c.Details.DocumentRequest
		v.Documents = append([]string(nil), v.Documents...)
		d.DocumentRequest = &v
	}
	if c.Details.HearingDetails != nil {
		v := *c.Details.HearingDetails
		d.HearingDetails = &v
	}
	if c.Details.AdjournmentDetails != nil {
		v := *c.Details.AdjournmentDetails
		d.AdjournmentDetails = &v
	}
	if c.Details.CompletionDetails != nil {
		v := *c.Details.CompletionDetails
		d.CompletionDetails = &v
	}
	return out
}

// assignments

type assignmentStore struct{ s *Store }

func (a *assignmentStore) InsertOne(_ context.Context, assignment models.LawyerAssignment) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	if _, ok := a.s.assignments[assignment.ID]; ok {
		return duplicateKey("_id_")
	}
	a.s.assignments[assignment.ID] = cloneAssignment(assignment)
	return nil
}

func (a *assignmentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.LawyerAssignment, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	assignment, ok := a.s.assignments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	out := cloneAssignment(assignment)
	return &out, nil
}

func (a *assignmentStore) FindByCase(_ context.Context, caseID string, status string) ([]models.LawyerAssignment, error) {
	return a.collect(func(l models.LawyerAssignment) bool {
		return l.CaseID == caseID && (status == "" || l.Status == status)
	}), nil
}

func (a *assignmentStore) FindLatestByCase(ctx context.Context, caseID string, status string) (*models.LawyerAssignment, error) {
	assignments, _ := a.FindByCase(ctx, caseID, status)
	if len(assignments) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &assignments[0], nil
}

func (a *assignmentStore) FindByLawyer(_ context.Context, lawyerID string, statuses ...string) ([]models.LawyerAssignment, error) {
	return a.collect(func(l models.LawyerAssignment) bool {
		return l.LawyerID == lawyerID && (len(statuses) == 0 || contains(statuses, l.Status))
	}), nil
}

func (a *assignmentStore) CountByLawyer(ctx context.Context, lawyerID string, statuses ...string) (int64, error) {
	assignments, _ := a.FindByLawyer(ctx, lawyerID, statuses...)
	return int64(len(assignments)), nil
}

func (a *assignmentStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status, lawyerResponse string, responseDate time.Time) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	assignment, ok := a.s.assignments[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	assignment.Status = status
	assignment.LawyerResponse = lawyerResponse
	assignment.ResponseDate = &responseDate
	assignment.UpdatedAt = responseDate
	a.s.assignments[id] = cloneAssignment(assignment)
	return nil
}

func (a *assignmentStore) EnsureIndexes(context.Context) error { return nil }

// collect returns matching assignments newest first
func (a *assignmentStore) collect(match func(models.LawyerAssignment) bool) []models.LawyerAssignment {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []models.LawyerAssignment
	for _, l := range a.s.assignments {
		if match(l) {
			out = append(out, cloneAssignment(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func cloneAssignment(l models.LawyerAssignment) models.LawyerAssignment {
	if l.ResponseDate != nil {
		t := *l.ResponseDate
		l.ResponseDate = &t
	}
	return l
}

// verifications

type verificationStore struct{ s *Store }

func (v *verificationStore) InsertOne(_ context.Context, verification models.Verification) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	verification.Issues = append([]models.VerificationIssue(nil), verification.Issues...)
	v.s.verifications = append(v.s.verifications, verification)
	return nil
}

func (v *verificationStore) FindByCase(_ context.Context, caseID string) ([]models.Verification, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	var out []models.Verification
	// newest first; insertion order breaks ties
	for i := len(v.s.verifications) - 1; i >= 0; i-- {
		rec := v.s.verifications[i]
		if rec.CaseID == caseID {
			rec.Issues = append([]models.VerificationIssue(nil), rec.Issues...)
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VerifiedAt.After(out[j].VerifiedAt)
	})
	return out, nil
}

func (v *verificationStore) FindLatestByCase(ctx context.Context, caseID string) (*models.Verification, error) {
	records, _ := v.FindByCase(ctx, caseID)
	if len(records) == 0 {
		return nil, mongo.ErrNoDocuments
	}
	return &records[0], nil
}

// scheduling requests

type schedulingStore struct{ s *Store }

func (r *schedulingStore) InsertOne(_ context.Context, req models.SchedulingRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.scheduling[req.CaseID]; ok {
		return duplicateKey("uniq_scheduling_case")
	}
	req.PreferredDates = append([]time.Time(nil), req.PreferredDates...)
	r.s.scheduling[req.CaseID] = req
	return nil
}

func (r *schedulingStore) FindByCase(_ context.Context, caseID string) (*models.SchedulingRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.scheduling[caseID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	req.PreferredDates = append([]time.Time(nil), req.PreferredDates...)
	return &req, nil
}

func (r *schedulingStore) MarkScheduled(_ context.Context, caseID string, hearing models.HearingDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.scheduling[caseID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	date := hearing.Date
	req.Status = models.SchedulingScheduled
	req.HearingDate = &date
	req.HearingTime = hearing.Time
	req.Courtroom = hearing.Courtroom
	req.Judge = hearing.Judge
	req.UpdatedAt = time.Now()
	r.s.scheduling[caseID] = req
	return nil
}

func (r *schedulingStore) EnsureIndexes(context.Context) error { return nil }

// users

type userStore struct{ s *Store }

func (u *userStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &user, nil
}

func (u *userStore) FindAvailableLawyers(_ context.Context, district string) ([]models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var out []models.User
	for _, user := range u.s.users {
		if user.Details.UserType != models.UserTypeLawyer || !user.Details.Available {
			continue
		}
		if district != "" && user.Details.District != district {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// scheduler locks

type lockStore struct{ s *Store }

func (l *lockStore) TryAcquireLock(_ context.Context, jobName, owner string, ttl time.Duration) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	now := time.Now()
	if held, ok := l.s.locks[jobName]; ok && held.Owner != owner && held.ExpiresAt.After(now) {
		return false, nil
	}
	l.s.locks[jobName] = models.SchedulerLock{JobName: jobName, Owner: owner, ExpiresAt: now.Add(ttl)}
	return true, nil
}

func (l *lockStore) ReleaseLock(_ context.Context, jobName, owner string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if held, ok := l.s.locks[jobName]; ok && held.Owner == owner {
		delete(l.s.locks, jobName)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
