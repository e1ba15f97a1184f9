// Package lifecycle drives a case through its statuses and schedules the delayed steps that
// follow case creation.
package lifecycle

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
	"github.com/linesmerrill/legal-case-api/reconciler"
	"github.com/linesmerrill/legal-case-api/verification"
)

const notifyTimeout = 30 * time.Second

// Options tunes the orchestrator
type Options struct {
	AutoVerifyDelay time.Duration
	AutoAssignDelay time.Duration
	// ReconcileOnRead repairs lawyer-bound cases when they are read
	ReconcileOnRead bool
}

// DefaultOptions are the delays used when none are configured
func DefaultOptions() Options {
	return Options{
		AutoVerifyDelay: 3 * time.Second,
		AutoAssignDelay: 2 * time.Second,
		ReconcileOnRead: true,
	}
}

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Cases         databases.CaseDatabase
	Assignments   databases.LawyerAssignmentDatabase
	Verifications databases.VerificationDatabase
	Scheduling    databases.SchedulingRequestDatabase
	Users         databases.UserDatabase
	Resolver      identity.Resolver
	Queue         jobs.Queue
	Notifier      notify.Notifier
}

// Orchestrator runs every case operation. Callers pass the verified identity of whoever
// triggered the operation.
type Orchestrator struct {
	cases         databases.CaseDatabase
	assignments   databases.LawyerAssignmentDatabase
	verifications databases.VerificationDatabase
	scheduling    databases.SchedulingRequestDatabase
	users         databases.UserDatabase
	resolver      identity.Resolver
	queue         jobs.Queue
	notifier      notify.Notifier

	verifier   *verification.Engine
	reconciler *reconciler.Reconciler
	opts       Options
}

// New builds an orchestrator
func New(d Deps, opts Options) *Orchestrator {
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Resolver == nil {
		d.Resolver = identity.NewRegistry(d.Users)
	}
	return &Orchestrator{
		cases:         d.Cases,
		assignments:   d.Assignments,
		verifications: d.Verifications,
		scheduling:    d.Scheduling,
		users:         d.Users,
		resolver:      d.Resolver,
		queue:         d.Queue,
		notifier:      d.Notifier,
		verifier:      verification.NewEngine(d.Cases, d.Verifications),
		reconciler:    reconciler.New(d.Cases, d.Assignments),
		opts:          opts,
	}
}

// Reconciler exposes the reconciler the orchestrator repairs cases with
func (o *Orchestrator) Reconciler() *reconciler.Reconciler {
	return o.reconciler
}

func parseCaseID(caseID string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFoundf("case %s not found", caseID)
	}
	return id, nil
}

func (o *Orchestrator) loadCase(ctx context.Context, caseID string) (*models.Case, error) {
	id, err := parseCaseID(caseID)
	if err != nil {
		return nil, err
	}
	legalCase, err := o.cases.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFoundf("case %s not found", caseID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load case %s", caseID)
	}
	return legalCase, nil
}

func (o *Orchestrator) loadAssignment(ctx context.Context, assignmentID string) (*models.LawyerAssignment, error) {
	id, err := primitive.ObjectIDFromHex(assignmentID)
	if err != nil {
		return nil, apperrors.NotFoundf("assignment %s not found", assignmentID)
	}
	a, err := o.assignments.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFoundf("assignment %s not found", assignmentID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load assignment %s", assignmentID)
	}
	return a, nil
}

// updateCase applies update and maps a vanished case to NotFound
func (o *Orchestrator) updateCase(ctx context.Context, c *models.Case, update models.CaseUpdate) error {
	err := o.cases.UpdateOne(ctx, c.ID, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFoundf("case %s not found", c.ID.Hex())
	}
	if err != nil {
		return errors.Wrapf(err, "failed to update case %s", c.ID.Hex())
	}
	return nil
}

// commitStatus writes a status change together with update. A hearing_scheduled write for a
// case without a scheduling record is stored as lawyer_assigned, without hearing details.
// It returns the status actually written.
func (o *Orchestrator) commitStatus(ctx context.Context, caller identity.Caller, c *models.Case, to string, update models.CaseUpdate, notes string) (string, error) {
	if !models.ValidCaseStatus(to) {
		return "", apperrors.Validationf("status", "unknown case status %q", to)
	}
	if to == models.CaseStatusHearingScheduled {
		_, err := o.scheduling.FindByCase(ctx, c.ID.Hex())
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			zap.S().Warnw("no scheduling record, storing lawyer_assigned instead of hearing_scheduled",
				"caseId", c.ID.Hex(), "userId", caller.UserID)
			to = models.CaseStatusLawyerAssigned
			update.HearingDetails = nil
			notes = joinNotes(notes, "hearing_scheduled requires a scheduling request")
		case err != nil:
			return "", errors.Wrapf(err, "failed to check scheduling request of case %s", c.ID.Hex())
		}
	}

	update.Status = models.StringPtr(to)
	update.History = &models.CaseHistoryEntry{
		Action:     "status_changed",
		FromStatus: c.Details.Status,
		ToStatus:   to,
		UserID:     caller.UserID,
		UserType:   caller.UserType,
		Notes:      notes,
		Timestamp:  time.Now(),
	}
	if err := o.updateCase(ctx, c, update); err != nil {
		return "", err
	}
	zap.S().Infow("case status changed",
		"caseId", c.ID.Hex(),
		"from", c.Details.Status,
		"to", to,
		"userId", caller.UserID)
	return to, nil
}

// transition checks the current status, commits the new one and returns the stored case
func (o *Orchestrator) transition(ctx context.Context, caller identity.Caller, c *models.Case, to string, update models.CaseUpdate, notes string, from ...string) (*models.Case, error) {
	if !statusIn(c.Details.Status, from...) {
		return nil, apperrors.InvalidStatef("case %s is %s, expected one of %v", c.ID.Hex(), c.Details.Status, from)
	}
	if _, err := o.commitStatus(ctx, caller, c, to, update, notes); err != nil {
		return nil, err
	}
	return o.loadCase(ctx, c.ID.Hex())
}

// notify delivers e in the background; the operation that triggered it never waits or fails on it
func (o *Orchestrator) notify(e notify.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				zap.S().Errorw("notifier panicked", "event", e.Type, "panic", p)
			}
		}()
		o.notifier.Notify(ctx, e)
	}()
}

func caseEvent(eventType string, c *models.Case, data map[string]interface{}, recipients ...notify.Recipient) notify.Event {
	return notify.Event{
		Type:       eventType,
		CaseID:     c.ID.Hex(),
		CaseNumber: c.Details.CaseNumber,
		CaseTitle:  c.Details.Title,
		Recipients: recipients,
		Data:       data,
	}
}

func owner(c *models.Case) notify.Recipient {
	return notify.Recipient{UserID: c.Details.UserID, UserType: models.UserTypeClient}
}

func lawyer(id string) notify.Recipient {
	return notify.Recipient{UserID: id, UserType: models.UserTypeLawyer}
}

func statusIn(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func joinNotes(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
