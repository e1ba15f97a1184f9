package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/validation"
)

// caseNumberAttempts bounds the sequential probes before falling back to a timestamp number
const caseNumberAttempts = 100

// CreateCase stores a new pending case under a fresh CL<year>-NNNN number and schedules its
// automatic verification
func (o *Orchestrator) CreateCase(ctx context.Context, caller identity.Caller, in CaseInput) (*models.Case, error) {
	if !caller.Is(models.UserTypeClient, models.UserTypeAdmin) {
		return nil, apperrors.AccessDeniedf("user type %s may not create cases", caller.UserType)
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	now := time.Now()
	content := in.content(now)
	legalCase := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:              content.Title,
			Description:        content.Description,
			CaseType:           content.CaseType,
			District:           content.District,
			Plaintiff:          content.Plaintiff,
			Defendant:          content.Defendant,
			Documents:          content.Documents,
			UserID:             caller.UserID,
			Status:             models.CaseStatusPending,
			VerificationStatus: models.VerificationPending,
			History: []models.CaseHistoryEntry{{
				Action:    "created",
				ToStatus:  models.CaseStatusPending,
				UserID:    caller.UserID,
				UserType:  caller.UserType,
				Timestamp: now,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if err := o.insertNumbered(ctx, &legalCase, now); err != nil {
		return nil, err
	}
	zap.S().Infow("case created",
		"caseId", legalCase.ID.Hex(),
		"caseNumber", legalCase.Details.CaseNumber,
		"userId", caller.UserID)

	o.schedule(ctx, jobs.KindAutoVerify, legalCase.ID.Hex(), o.opts.AutoVerifyDelay)
	return &legalCase, nil
}

// insertNumbered inserts c under the next free case number of its year. The unique index on the
// case number settles races between concurrent creations.
func (o *Orchestrator) insertNumbered(ctx context.Context, c *models.Case, now time.Time) error {
	prefix := fmt.Sprintf("CL%d-", now.Year())
	candidate := 0
	for attempt := 0; attempt < caseNumberAttempts; attempt++ {
		highest, err := o.cases.FindHighestCaseNumber(ctx, prefix)
		if err != nil {
			return errors.Wrap(err, "failed to find highest case number")
		}
		next := sequence(prefix, highest) + 1
		if next <= candidate {
			next = candidate + 1
		}
		candidate = next

		c.Details.CaseNumber = fmt.Sprintf("%s%04d", prefix, candidate)
		err = o.cases.InsertOne(ctx, *c)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(err, "failed to insert case")
		}
	}

	c.Details.CaseNumber = fmt.Sprintf("%sT%d", prefix, time.Now().UnixMilli())
	zap.S().Warnw("case number sequence exhausted, using timestamp number", "caseNumber", c.Details.CaseNumber)
	err := o.cases.InsertOne(ctx, *c)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflictf("could not allocate a case number for %s", prefix)
	}
	if err != nil {
		return errors.Wrap(err, "failed to insert case")
	}
	return nil
}

func sequence(prefix, number string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil || number == "" {
		return 0
	}
	return n
}

// GetCase returns a case visible to the caller. Lawyer-bound cases are reconciled first when
// ReconcileOnRead is set.
func (o *Orchestrator) GetCase(ctx context.Context, caller identity.Caller, caseID string) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := o.requireViewer(ctx, caller, legalCase); err != nil {
		return nil, err
	}
	if !o.opts.ReconcileOnRead || !models.RequiresLawyer(legalCase.Details.Status) {
		return legalCase, nil
	}

	res, err := o.reconciler.Reconcile(ctx, caseID)
	if err != nil {
		zap.S().Warnw("reconcile on read failed", "caseId", caseID, "error", err)
		return legalCase, nil
	}
	if !res.Fixed {
		return legalCase, nil
	}
	return o.loadCase(ctx, caseID)
}

// ListCases returns the cases the caller may see, newest first. An empty status matches all.
func (o *Orchestrator) ListCases(ctx context.Context, caller identity.Caller, status string) ([]models.Case, error) {
	filter := models.CaseFilter{}
	if status != "" {
		if !models.ValidCaseStatus(status) {
			return nil, apperrors.Validationf("status", "unknown case status %q", status)
		}
		filter.Statuses = []string{status}
	}

	switch caller.UserType {
	case models.UserTypeAdmin, models.UserTypeCourt, models.UserTypeSystem:
	case models.UserTypeClient:
		filter.OwnerID = caller.UserID
	case models.UserTypeLawyer:
		return o.listLawyerCases(ctx, caller, filter)
	default:
		return nil, apperrors.AccessDeniedf("user type %s may not list cases", caller.UserType)
	}

	cases, err := o.cases.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	return cases, nil
}

// listLawyerCases merges the lawyer's current cases with the ones proposed to them
func (o *Orchestrator) listLawyerCases(ctx context.Context, caller identity.Caller, filter models.CaseFilter) ([]models.Case, error) {
	filter.LawyerID = caller.UserID
	cases, err := o.cases.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	seen := make(map[primitive.ObjectID]bool, len(cases))
	for _, c := range cases {
		seen[c.ID] = true
	}

	proposals, err := o.assignments.FindByLawyer(ctx, caller.UserID, models.AssignmentPending)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assignments")
	}
	for _, a := range proposals {
		id, err := primitive.ObjectIDFromHex(a.CaseID)
		if err != nil || seen[id] {
			continue
		}
		c, err := o.cases.FindByID(ctx, id)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load case %s", a.CaseID)
		}
		if len(filter.Statuses) > 0 && !statusIn(c.Details.Status, filter.Statuses...) {
			continue
		}
		seen[id] = true
		cases = append(cases, *c)
	}
	return cases, nil
}

// UpdateCase replaces the owner-editable content. Filed cases are immutable.
func (o *Orchestrator) UpdateCase(ctx context.Context, caller identity.Caller, caseID string, in CaseInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, legalCase); err != nil {
		return nil, err
	}
	if legalCase.Details.CourtDetails != nil {
		return nil, apperrors.InvalidStatef("case %s has been filed and can no longer be edited", caseID)
	}
	if legalCase.Details.Status == models.CaseStatusClosed {
		return nil, apperrors.InvalidStatef("case %s is closed", caseID)
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	now := time.Now()
	content := in.content(now)
	err = o.updateCase(ctx, legalCase, models.CaseUpdate{
		Content: &content,
		History: &models.CaseHistoryEntry{
			Action:    "updated",
			UserID:    caller.UserID,
			UserType:  caller.UserType,
			Timestamp: now,
		},
	})
	if err != nil {
		return nil, err
	}

	// content changed before any lawyer was involved: verify it again
	if legalCase.Details.Status == models.CaseStatusPending {
		o.schedule(ctx, jobs.KindAutoVerify, caseID, o.opts.AutoVerifyDelay)
	}
	return o.loadCase(ctx, caseID)
}

// DeleteCase removes an unfiled case and cancels its pending jobs
func (o *Orchestrator) DeleteCase(ctx context.Context, caller identity.Caller, caseID string) error {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(caller, legalCase); err != nil {
		return err
	}
	if legalCase.Details.Status == models.CaseStatusFiled || legalCase.Details.CourtDetails != nil {
		return apperrors.InvalidStatef("case %s has been filed and cannot be deleted", caseID)
	}

	err = o.cases.DeleteOne(ctx, legalCase.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFoundf("case %s not found", caseID)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to delete case %s", caseID)
	}
	for _, kind := range []string{jobs.KindAutoVerify, jobs.KindAutoAssign} {
		if err := o.queue.Cancel(ctx, jobs.Job{Kind: kind, CaseID: caseID}); err != nil {
			zap.S().Warnw("failed to cancel job", "kind", kind, "caseId", caseID, "error", err)
		}
	}
	zap.S().Infow("case deleted", "caseId", caseID, "userId", caller.UserID)
	return nil
}

// VerifyCase re-runs verification on demand
func (o *Orchestrator) VerifyCase(ctx context.Context, caller identity.Caller, caseID string) (*models.Verification, error) {
	if !caller.Is(models.UserTypeAdmin, models.UserTypeSystem) {
		return nil, apperrors.AccessDeniedf("user type %s may not verify cases", caller.UserType)
	}
	return o.verifier.Verify(ctx, caseID, caller.UserID)
}

// GetVerifications returns the verification records of a case, newest first
func (o *Orchestrator) GetVerifications(ctx context.Context, caller identity.Caller, caseID string) ([]models.Verification, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := o.requireViewer(ctx, caller, legalCase); err != nil {
		return nil, err
	}
	records, err := o.verifications.FindByCase(ctx, caseID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load verifications of case %s", caseID)
	}
	return records, nil
}

func (o *Orchestrator) schedule(ctx context.Context, kind, caseID string, delay time.Duration) {
	job := jobs.Job{Kind: kind, CaseID: caseID}
	if err := o.queue.Schedule(ctx, job, delay); err != nil {
		zap.S().Errorw("failed to schedule job", "job", job.Key(), "error", err)
	}
}
