package lifecycle

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/models"
)

// HandleJob runs a delayed step. It is the jobs.Handler of the orchestrator's queue; every step
// checks that its case still exists and is in the expected state, so redelivery is harmless.
func (o *Orchestrator) HandleJob(ctx context.Context, job jobs.Job) error {
	switch job.Kind {
	case jobs.KindAutoVerify:
		return o.autoVerify(ctx, job.CaseID)
	case jobs.KindAutoAssign:
		return o.autoAssign(ctx, job.CaseID)
	}
	return errors.Newf("unknown job kind %q", job.Kind)
}

func (o *Orchestrator) autoVerify(ctx context.Context, caseID string) error {
	legalCase, err := o.loadCase(ctx, caseID)
	if errors.Is(err, apperrors.ErrNotFound) {
		zap.S().Infow("case gone, skipping auto verification", "caseId", caseID)
		return nil
	}
	if err != nil {
		return err
	}
	if legalCase.Details.Status != models.CaseStatusPending {
		zap.S().Infow("case no longer pending, skipping auto verification", "caseId", caseID, "status", legalCase.Details.Status)
		return nil
	}

	record, err := o.verifier.Verify(ctx, caseID, identity.SystemID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.Status == models.VerificationVerified {
		o.schedule(ctx, jobs.KindAutoAssign, caseID, o.opts.AutoAssignDelay)
	}
	return nil
}

// autoAssign proposes the least loaded available lawyer of the case's district, or of any
// district when the case's has none
func (o *Orchestrator) autoAssign(ctx context.Context, caseID string) error {
	legalCase, err := o.loadCase(ctx, caseID)
	if errors.Is(err, apperrors.ErrNotFound) {
		zap.S().Infow("case gone, skipping auto assignment", "caseId", caseID)
		return nil
	}
	if err != nil {
		return err
	}
	d := legalCase.Details
	if d.VerificationStatus != models.VerificationVerified ||
		!statusIn(d.Status, models.CaseStatusPending, models.CaseStatusVerified) {
		zap.S().Infow("case not ready for auto assignment", "caseId", caseID,
			"status", d.Status, "verificationStatus", d.VerificationStatus)
		return nil
	}
	existing, err := o.assignments.FindByCase(ctx, caseID, "")
	if err != nil {
		return errors.Wrapf(err, "failed to load assignments of case %s", caseID)
	}
	if len(existing) > 0 {
		zap.S().Infow("case already has assignments, skipping auto assignment", "caseId", caseID)
		return nil
	}

	lawyerID, err := o.pickLawyer(ctx, d.District)
	if err != nil {
		return err
	}
	if lawyerID == "" {
		zap.S().Warnw("no available lawyer for auto assignment", "caseId", caseID, "district", d.District)
		return nil
	}
	_, err = o.CreateAssignment(ctx, identity.System, caseID, AssignmentInput{
		LawyerID: lawyerID,
		Message:  "Automatically matched to your practice district",
	})
	return err
}

func (o *Orchestrator) pickLawyer(ctx context.Context, district string) (string, error) {
	candidates, err := o.users.FindAvailableLawyers(ctx, district)
	if err != nil {
		return "", errors.Wrap(err, "failed to find available lawyers")
	}
	if len(candidates) == 0 && district != "" {
		if candidates, err = o.users.FindAvailableLawyers(ctx, ""); err != nil {
			return "", errors.Wrap(err, "failed to find available lawyers")
		}
	}

	best, bestLoad := "", int64(-1)
	for _, u := range candidates {
		load, err := o.assignments.CountByLawyer(ctx, u.ID, models.AssignmentPending, models.AssignmentAccepted)
		if err != nil {
			return "", errors.Wrapf(err, "failed to count assignments of lawyer %s", u.ID)
		}
		if bestLoad < 0 || load < bestLoad {
			best, bestLoad = u.ID, load
		}
	}
	return best, nil
}
