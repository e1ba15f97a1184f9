package lifecycle

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
	"github.com/linesmerrill/legal-case-api/validation"
)

const supersededResponse = "Superseded by accepted assignment"

// statuses from which a lawyer can be proposed or accepted
var proposable = []string{
	models.CaseStatusPending,
	models.CaseStatusVerified,
	models.CaseStatusLawyerRequested,
}

// CreateAssignment proposes a lawyer for a case and moves the case to lawyer_requested
func (o *Orchestrator) CreateAssignment(ctx context.Context, caller identity.Caller, caseID string, in AssignmentInput) (*models.LawyerAssignment, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !isOwner(caller, legalCase) && !caller.Is(models.UserTypeAdmin, models.UserTypeSystem) {
		return nil, denied(caller, legalCase)
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if !statusIn(legalCase.Details.Status, proposable...) {
		return nil, apperrors.InvalidStatef("case %s is %s and cannot take a lawyer proposal", caseID, legalCase.Details.Status)
	}

	if _, err := o.resolver.Resolve(ctx, in.LawyerID, models.UserTypeLawyer); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Validationf("lawyerId", "lawyer %s not found", in.LawyerID)
		}
		return nil, err
	}
	pending, err := o.assignments.FindByCase(ctx, caseID, models.AssignmentPending)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load assignments of case %s", caseID)
	}
	for _, p := range pending {
		if p.LawyerID == in.LawyerID {
			return nil, apperrors.Conflictf("lawyer %s already has a pending proposal for case %s", in.LawyerID, caseID)
		}
	}

	now := time.Now()
	assignment := models.LawyerAssignment{
		ID:             primitive.NewObjectID(),
		CaseID:         caseID,
		LawyerID:       in.LawyerID,
		AssignedBy:     assignedBy(caller),
		AssignedByUser: caller.UserID,
		Status:         models.AssignmentPending,
		Message:        in.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := o.assignments.InsertOne(ctx, assignment); err != nil {
		return nil, errors.Wrapf(err, "failed to insert assignment for case %s", caseID)
	}
	zap.S().Infow("lawyer proposed",
		"caseId", caseID,
		"assignmentId", assignment.ID.Hex(),
		"lawyerId", in.LawyerID,
		"assignedBy", assignment.AssignedBy)

	if legalCase.Details.Status != models.CaseStatusLawyerRequested {
		_, err := o.commitStatus(ctx, caller, legalCase, models.CaseStatusLawyerRequested, models.CaseUpdate{}, "lawyer "+in.LawyerID+" proposed")
		if err != nil {
			return nil, err
		}
	}
	if caller.UserType != models.UserTypeSystem {
		if err := o.queue.Cancel(ctx, jobs.Job{Kind: jobs.KindAutoAssign, CaseID: caseID}); err != nil {
			zap.S().Warnw("failed to cancel auto assignment", "caseId", caseID, "error", err)
		}
	}

	o.notify(caseEvent(notify.EventAssignmentProposed, legalCase,
		map[string]interface{}{"message": in.Message}, lawyer(in.LawyerID)))
	return &assignment, nil
}

func assignedBy(caller identity.Caller) string {
	switch caller.UserType {
	case models.UserTypeClient:
		return models.AssignedByClient
	case models.UserTypeAdmin:
		return models.AssignedByAdmin
	}
	return models.AssignedBySystem
}

// RespondToAssignment records the lawyer's answer. Accepting makes them the current lawyer and
// withdraws every other pending proposal; rejecting the last pending proposal reverts the case.
func (o *Orchestrator) RespondToAssignment(ctx context.Context, caller identity.Caller, assignmentID string, in AssignmentResponseInput) (*models.LawyerAssignment, error) {
	assignment, err := o.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !(caller.UserType == models.UserTypeLawyer && caller.UserID == assignment.LawyerID) && !caller.Is(models.UserTypeAdmin) {
		return nil, apperrors.AccessDeniedf("user %s may not respond to assignment %s", caller.UserID, assignmentID)
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentPending {
		return nil, apperrors.InvalidStatef("assignment %s is already %s", assignmentID, assignment.Status)
	}
	legalCase, err := o.loadCase(ctx, assignment.CaseID)
	if err != nil {
		return nil, err
	}

	if in.Accept {
		err = o.accept(ctx, caller, legalCase, assignment, in.Response)
	} else {
		err = o.closeProposal(ctx, caller, legalCase, assignment, models.AssignmentRejected, in.Response)
	}
	if err != nil {
		return nil, err
	}
	return o.loadAssignment(ctx, assignmentID)
}

func (o *Orchestrator) accept(ctx context.Context, caller identity.Caller, c *models.Case, a *models.LawyerAssignment, response string) error {
	if !statusIn(c.Details.Status, proposable...) {
		return apperrors.InvalidStatef("case %s is %s and cannot accept a lawyer", c.ID.Hex(), c.Details.Status)
	}

	now := time.Now()
	if err := o.assignments.UpdateStatus(ctx, a.ID, models.AssignmentAccepted, response, now); err != nil {
		return errors.Wrapf(err, "failed to accept assignment %s", a.ID.Hex())
	}
	others, err := o.assignments.FindByCase(ctx, a.CaseID, models.AssignmentPending)
	if err != nil {
		return errors.Wrapf(err, "failed to load assignments of case %s", a.CaseID)
	}
	for _, other := range others {
		if other.ID == a.ID {
			continue
		}
		if err := o.assignments.UpdateStatus(ctx, other.ID, models.AssignmentWithdrawn, supersededResponse, now); err != nil {
			zap.S().Errorw("failed to withdraw superseded assignment", "assignmentId", other.ID.Hex(), "error", err)
		}
	}

	_, err = o.commitStatus(ctx, caller, c, models.CaseStatusLawyerAssigned,
		models.CaseUpdate{CurrentLawyer: models.StringPtr(a.LawyerID)}, "lawyer "+a.LawyerID+" accepted")
	if err != nil {
		return err
	}

	// the case and assignment writes above are separate commits
	if _, err := o.reconciler.Reconcile(ctx, a.CaseID); err != nil {
		zap.S().Warnw("reconcile after accept failed", "caseId", a.CaseID, "error", err)
	}
	return nil
}

// WithdrawAssignment retracts a pending proposal
func (o *Orchestrator) WithdrawAssignment(ctx context.Context, caller identity.Caller, assignmentID string) (*models.LawyerAssignment, error) {
	assignment, err := o.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	legalCase, err := o.loadCase(ctx, assignment.CaseID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrAdmin(caller, legalCase); err != nil {
		return nil, err
	}
	if assignment.Status != models.AssignmentPending {
		return nil, apperrors.InvalidStatef("assignment %s is %s, only pending assignments can be withdrawn", assignmentID, assignment.Status)
	}
	if err := o.closeProposal(ctx, caller, legalCase, assignment, models.AssignmentWithdrawn, "Withdrawn by "+caller.UserType); err != nil {
		return nil, err
	}
	return o.loadAssignment(ctx, assignmentID)
}

// closeProposal ends a pending assignment without accepting it. A lawyer_requested case with no
// proposal left goes back to verified, or pending when it never passed verification.
func (o *Orchestrator) closeProposal(ctx context.Context, caller identity.Caller, c *models.Case, a *models.LawyerAssignment, status, response string) error {
	if err := o.assignments.UpdateStatus(ctx, a.ID, status, response, time.Now()); err != nil {
		return errors.Wrapf(err, "failed to mark assignment %s %s", a.ID.Hex(), status)
	}
	zap.S().Infow("lawyer proposal closed", "assignmentId", a.ID.Hex(), "caseId", a.CaseID, "status", status)

	if c.Details.Status != models.CaseStatusLawyerRequested {
		return nil
	}
	remaining, err := o.assignments.FindByCase(ctx, a.CaseID, models.AssignmentPending)
	if err != nil {
		return errors.Wrapf(err, "failed to load assignments of case %s", a.CaseID)
	}
	if len(remaining) > 0 {
		return nil
	}
	back := models.CaseStatusPending
	if c.Details.VerificationStatus == models.VerificationVerified {
		back = models.CaseStatusVerified
	}
	_, err = o.commitStatus(ctx, caller, c, back, models.CaseUpdate{}, "no pending lawyer proposal left")
	return err
}

// ListAssignments returns every assignment of a case, newest first
func (o *Orchestrator) ListAssignments(ctx context.Context, caller identity.Caller, caseID string) ([]models.LawyerAssignment, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := o.requireViewer(ctx, caller, legalCase); err != nil {
		return nil, err
	}
	out, err := o.assignments.FindByCase(ctx, caseID, "")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load assignments of case %s", caseID)
	}
	return out, nil
}

// ListLawyerAssignments returns the caller's own assignments, limited to the given statuses
func (o *Orchestrator) ListLawyerAssignments(ctx context.Context, caller identity.Caller, statuses ...string) ([]models.LawyerAssignment, error) {
	if caller.UserType != models.UserTypeLawyer {
		return nil, apperrors.AccessDeniedf("only lawyers have assignments")
	}
	out, err := o.assignments.FindByLawyer(ctx, caller.UserID, statuses...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load assignments of lawyer %s", caller.UserID)
	}
	return out, nil
}
