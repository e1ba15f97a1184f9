package lifecycle

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
	"github.com/linesmerrill/legal-case-api/validation"
)

// RequestFiling asks the current lawyer to file the case with the court
func (o *Orchestrator) RequestFiling(ctx context.Context, caller identity.Caller, caseID string) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, legalCase); err != nil {
		return nil, err
	}
	if legalCase.Details.Status != models.CaseStatusLawyerAssigned {
		return nil, apperrors.InvalidStatef("case %s is %s, a lawyer must be assigned before filing", caseID, legalCase.Details.Status)
	}

	if legalCase.Details.CurrentLawyer == "" {
		if _, err := o.reconciler.Reconcile(ctx, caseID); err != nil {
			return nil, err
		}
		if legalCase, err = o.loadCase(ctx, caseID); err != nil {
			return nil, err
		}
	}
	if legalCase.Details.CurrentLawyer == "" {
		return nil, apperrors.InvalidStatef("case %s has no current lawyer", caseID)
	}
	if _, err := o.resolver.Resolve(ctx, legalCase.Details.CurrentLawyer, models.UserTypeLawyer); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidStatef("current lawyer %s of case %s no longer exists", legalCase.Details.CurrentLawyer, caseID)
		}
		return nil, err
	}

	return o.transition(ctx, caller, legalCase, models.CaseStatusFilingRequested, models.CaseUpdate{}, "",
		models.CaseStatusLawyerAssigned)
}

// FileCourtCase confirms the filing and stamps the court details. From here on the case content
// is immutable.
func (o *Orchestrator) FileCourtCase(ctx context.Context, caller identity.Caller, caseID string, in FilingInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCurrentLawyer(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	update := models.CaseUpdate{CourtDetails: &models.CourtDetails{
		FilingReference: in.FilingReference,
		CourtName:       in.CourtName,
		FilingDate:      time.Now(),
		FiledBy:         caller.UserID,
	}}
	filed, err := o.transition(ctx, caller, legalCase, models.CaseStatusFiled, update, "filing reference "+in.FilingReference,
		models.CaseStatusFilingRequested)
	if err != nil {
		return nil, err
	}
	o.notify(caseEvent(notify.EventCaseFiled, filed,
		map[string]interface{}{"filingReference": in.FilingReference}, owner(filed)))
	return filed, nil
}

// RequestScheduling asks the court for a hearing. A case has at most one scheduling request.
func (o *Orchestrator) RequestScheduling(ctx context.Context, caller identity.Caller, caseID string, in SchedulingInput) (*models.SchedulingRequest, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCurrentLawyer(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	if legalCase.Details.Status != models.CaseStatusFiled {
		return nil, apperrors.InvalidStatef("case %s is %s, only filed cases can request a hearing", caseID, legalCase.Details.Status)
	}

	now := time.Now()
	req := models.SchedulingRequest{
		ID:             primitive.NewObjectID(),
		CaseID:         caseID,
		RequestedBy:    caller.UserID,
		PreferredDates: in.PreferredDates,
		Notes:          in.Notes,
		Status:         models.SchedulingRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = o.scheduling.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return nil, apperrors.Conflictf("case %s already has a scheduling request", caseID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to store scheduling request for case %s", caseID)
	}

	if _, err := o.commitStatus(ctx, caller, legalCase, models.CaseStatusSchedulingRequested, models.CaseUpdate{}, in.Notes); err != nil {
		return nil, err
	}
	return &req, nil
}

// ScheduleHearing sets the hearing slot of a case waiting for one
func (o *Orchestrator) ScheduleHearing(ctx context.Context, caller identity.Caller, caseID string, in HearingInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourt(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	hearing := in.hearing(caller)
	scheduled, err := o.transition(ctx, caller, legalCase, models.CaseStatusHearingScheduled,
		models.CaseUpdate{HearingDetails: &hearing}, "", models.CaseStatusSchedulingRequested)
	if err != nil {
		return nil, err
	}
	o.afterHearingSet(ctx, scheduled, hearing)
	return scheduled, nil
}

// RescheduleHearing sets a new hearing slot for an adjourned case
func (o *Orchestrator) RescheduleHearing(ctx context.Context, caller identity.Caller, caseID string, in HearingInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourt(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	hearing := in.hearing(caller)
	rescheduled, err := o.transition(ctx, caller, legalCase, models.CaseStatusRescheduled,
		models.CaseUpdate{HearingDetails: &hearing}, "", models.CaseStatusAdjourned)
	if err != nil {
		return nil, err
	}
	o.afterHearingSet(ctx, rescheduled, hearing)
	return rescheduled, nil
}

// afterHearingSet mirrors the slot onto the scheduling request and tells the parties
func (o *Orchestrator) afterHearingSet(ctx context.Context, c *models.Case, hearing models.HearingDetails) {
	if c.Details.Status == models.CaseStatusLawyerAssigned {
		// downgraded, no scheduling request
		return
	}
	if err := o.scheduling.MarkScheduled(ctx, c.ID.Hex(), hearing); err != nil {
		zap.S().Warnw("failed to mark scheduling request scheduled", "caseId", c.ID.Hex(), "error", err)
	}
	recipients := []notify.Recipient{owner(c)}
	if c.Details.CurrentLawyer != "" {
		recipients = append(recipients, lawyer(c.Details.CurrentLawyer))
	}
	o.notify(caseEvent(notify.EventHearingScheduled, c, map[string]interface{}{
		"date":      hearing.Date,
		"time":      hearing.Time,
		"courtroom": hearing.Courtroom,
	}, recipients...))
}

func (in HearingInput) hearing(caller identity.Caller) models.HearingDetails {
	return models.HearingDetails{
		Date:        in.Date,
		Time:        in.Time,
		Courtroom:   in.Courtroom,
		Judge:       in.Judge,
		ScheduledBy: caller.UserID,
	}
}

// RequestDocuments puts the case under review until the client supplies the listed documents
func (o *Orchestrator) RequestDocuments(ctx context.Context, caller identity.Caller, caseID string, in DocumentRequestInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCurrentLawyer(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	update := models.CaseUpdate{DocumentRequest: &models.DocumentRequest{
		Documents:   in.Documents,
		Message:     in.Message,
		RequestedBy: caller.UserID,
		RequestedAt: time.Now(),
	}}
	reviewed, err := o.transition(ctx, caller, legalCase, models.CaseStatusUnderReview, update, in.Message,
		models.CaseStatusLawyerAssigned)
	if err != nil {
		return nil, err
	}
	o.notify(caseEvent(notify.EventDocumentsRequested, reviewed, map[string]interface{}{
		"documents": in.Documents,
		"message":   in.Message,
	}, owner(reviewed)))
	return reviewed, nil
}

// SubmitDocuments attaches the requested documents and hands the case back to the lawyer
func (o *Orchestrator) SubmitDocuments(ctx context.Context, caller identity.Caller, caseID string, in SubmitDocumentsInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	update := models.CaseUpdate{AddDocuments: documents(in.Documents, time.Now())}
	return o.transition(ctx, caller, legalCase, models.CaseStatusLawyerAssigned, update, "documents submitted",
		models.CaseStatusUnderReview)
}

// AdjournHearing adjourns a scheduled hearing
func (o *Orchestrator) AdjournHearing(ctx context.Context, caller identity.Caller, caseID string, in AdjournInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourtOrLawyer(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	details := &models.AdjournmentDetails{
		Reason:      in.Reason,
		AdjournedBy: caller.UserID,
		AdjournedAt: time.Now(),
	}
	if in.NextDate != nil {
		details.NextDate = *in.NextDate
	}
	return o.transition(ctx, caller, legalCase, models.CaseStatusAdjourned, models.CaseUpdate{AdjournmentDetails: details}, in.Reason,
		models.CaseStatusHearingScheduled, models.CaseStatusRescheduled)
}

// CloseCase records the outcome and closes the case
func (o *Orchestrator) CloseCase(ctx context.Context, caller identity.Caller, caseID string, in CloseInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := requireCourtOrLawyer(caller, legalCase); err != nil {
		return nil, err
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	update := models.CaseUpdate{CompletionDetails: &models.CompletionDetails{
		Outcome:  in.Outcome,
		Notes:    in.Notes,
		ClosedBy: caller.UserID,
		ClosedAt: time.Now(),
	}}
	return o.transition(ctx, caller, legalCase, models.CaseStatusClosed, update, in.Outcome,
		models.CaseStatusHearingScheduled, models.CaseStatusAdjourned, models.CaseStatusRescheduled)
}

// UpdateStatus is an administrative override. Any status of the closed set may be written, but
// hearing_scheduled still needs a scheduling request.
func (o *Orchestrator) UpdateStatus(ctx context.Context, caller identity.Caller, caseID string, in StatusInput) (*models.Case, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !caller.Is(models.UserTypeAdmin, models.UserTypeSystem) {
		return nil, denied(caller, legalCase)
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	stored, err := o.commitStatus(ctx, caller, legalCase, in.Status, models.CaseUpdate{}, in.Notes)
	if err != nil {
		return nil, err
	}
	if models.RequiresLawyer(stored) && legalCase.Details.CurrentLawyer == "" {
		if _, err := o.reconciler.Reconcile(ctx, caseID); err != nil {
			zap.S().Warnw("reconcile after status override failed", "caseId", caseID, "error", err)
		}
	}
	return o.loadCase(ctx, caseID)
}
