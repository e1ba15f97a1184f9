package lifecycle

import (
	"context"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

// ReconcileOne repairs a single case on behalf of one of its participants
func (o *Orchestrator) ReconcileOne(ctx context.Context, caller identity.Caller, caseID string) (reconciler.RepairResult, error) {
	legalCase, err := o.loadCase(ctx, caseID)
	if err != nil {
		return reconciler.RepairResult{CaseID: caseID}, err
	}
	if err := o.requireViewer(ctx, caller, legalCase); err != nil {
		return reconciler.RepairResult{CaseID: caseID}, err
	}
	return o.reconciler.Reconcile(ctx, caseID)
}

// ReconcileAll sweeps lawyer-bound cases. Admins and the system may sweep any scope; other
// callers only ever sweep their own cases.
func (o *Orchestrator) ReconcileAll(ctx context.Context, caller identity.Caller, scope reconciler.Scope) (reconciler.SweepResult, error) {
	switch caller.UserType {
	case models.UserTypeAdmin, models.UserTypeSystem:
	case models.UserTypeClient, models.UserTypeLawyer:
		scope.UserID = caller.UserID
	default:
		return reconciler.SweepResult{}, apperrors.AccessDeniedf("user type %s may not reconcile cases", caller.UserType)
	}
	return o.reconciler.ReconcileAll(ctx, scope)
}
