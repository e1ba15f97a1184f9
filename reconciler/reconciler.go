// Package reconciler detects and repairs divergence between a case's currentLawyer and the
// lawyer assignment records of that case.
//
// The case and its assignments are committed separately, so they can drift apart after a
// partial failure or a race. Repairs here are the only way they converge again.
package reconciler

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// Repair actions
const (
	ActionNone            = "none"
	ActionFromAccepted    = "restored_from_accepted"
	ActionForcedAccept    = "forced_accept"
	ActionAcceptedPending = "accepted_pending_downgraded"
	ActionRealigned       = "realigned_to_latest_accepted"
	ActionTheftGuard      = "restored_human_assignment"
	ActionUnfixable       = "unfixable"
)

const (
	forcedAcceptResponse  = "Automatically accepted during reconciliation: case status is lawyer_assigned but no accepted assignment existed"
	pendingAcceptResponse = "Automatically accepted during reconciliation: case was hearing_scheduled with only a pending assignment"
)

// RepairResult describes what reconciling a single case did
type RepairResult struct {
	CaseID string `json:"caseId"`
	// Fixed is true when anything was written
	Fixed   bool     `json:"fixed"`
	Lawyer  string   `json:"lawyer,omitempty"`
	Actions []string `json:"actions"`
	// Consistent reports whether the case satisfies the lawyer invariant after the run
	Consistent bool `json:"consistent"`
}

// Scope limits a sweep. The zero value covers every case.
type Scope struct {
	// UserID limits the sweep to cases owned by or assigned to the user
	UserID string
}

// SweepResult holds the counters of a bulk run
type SweepResult struct {
	TotalChecked int `json:"totalChecked"`
	FixedCount   int `json:"fixedCount"`
	UnfixedCount int `json:"unfixedCount"`
	FailedCount  int `json:"failedCount"`
}

// Reconciler repairs cases against their assignment records
type Reconciler struct {
	CDB databases.CaseDatabase
	ADB databases.LawyerAssignmentDatabase
}

// New returns a reconciler over the given stores
func New(cdb databases.CaseDatabase, adb databases.LawyerAssignmentDatabase) *Reconciler {
	return &Reconciler{CDB: cdb, ADB: adb}
}

// Reconcile repairs a single case. An unrepairable case is reported, not returned as an error.
func (r *Reconciler) Reconcile(ctx context.Context, caseID string) (RepairResult, error) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return RepairResult{CaseID: caseID}, apperrors.NotFoundf("case %s not found", caseID)
	}
	legalCase, err := r.CDB.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return RepairResult{CaseID: caseID}, apperrors.NotFoundf("case %s not found", caseID)
	}
	if err != nil {
		return RepairResult{CaseID: caseID}, errors.Wrapf(err, "failed to load case %s", caseID)
	}
	return r.reconcileCase(ctx, *legalCase)
}

// ReconcileAll runs Reconcile over every case whose status requires a lawyer. Failures and
// panics on one case are counted and do not stop the sweep.
func (r *Reconciler) ReconcileAll(ctx context.Context, scope Scope) (SweepResult, error) {
	var result SweepResult
	cases, err := r.CDB.Find(ctx, models.CaseFilter{
		UserID:   scope.UserID,
		Statuses: models.LawyerBoundStatuses(),
	})
	if err != nil {
		return result, errors.Wrap(err, "failed to list cases for reconciliation")
	}

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.TotalChecked++
		res, err := r.reconcileIsolated(ctx, c)
		switch {
		case err != nil:
			result.FailedCount++
			zap.S().Errorw("failed to reconcile case", "caseId", c.ID.Hex(), "error", err)
		case res.Fixed:
			result.FixedCount++
		case !res.Consistent:
			result.UnfixedCount++
		}
	}

	zap.S().Infow("reconciliation sweep finished",
		"scope", scope.UserID,
		"totalChecked", result.TotalChecked,
		"fixed", result.FixedCount,
		"unfixed", result.UnfixedCount,
		"failed", result.FailedCount)
	return result, nil
}

func (r *Reconciler) reconcileIsolated(ctx context.Context, c models.Case) (res RepairResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Newf("panic while reconciling case %s: %v", c.ID.Hex(), p)
		}
	}()
	return r.reconcileCase(ctx, c)
}

func (r *Reconciler) reconcileCase(ctx context.Context, c models.Case) (RepairResult, error) {
	caseID := c.ID.Hex()
	assignments, err := r.ADB.FindByCase(ctx, caseID, "")
	if err != nil {
		return RepairResult{CaseID: caseID}, errors.Wrapf(err, "failed to load assignments of case %s", caseID)
	}

	p := planRepair(c.Details, assignments)
	result := RepairResult{
		CaseID:     caseID,
		Lawyer:     p.lawyer,
		Actions:    p.actions,
		Consistent: p.consistent,
	}
	if !p.changes(c.Details) {
		if !p.consistent {
			zap.S().Warnw("case is inconsistent and cannot be repaired",
				"caseId", caseID,
				"status", c.Details.Status,
				"assignments", len(assignments))
		}
		return result, nil
	}

	now := time.Now()
	if p.accept != nil {
		// the assignment write commits on its own; a failure below leaves it for the next run
		if err := r.ADB.UpdateStatus(ctx, p.accept.ID, models.AssignmentAccepted, p.acceptResponse, now); err != nil {
			return result, errors.Wrapf(err, "failed to accept assignment %s", p.accept.ID.Hex())
		}
	}

	update := models.CaseUpdate{
		CurrentLawyer: models.StringPtr(p.lawyer),
		History: &models.CaseHistoryEntry{
			Action:     "reconciled",
			FromStatus: c.Details.Status,
			ToStatus:   p.statusOr(c.Details.Status),
			UserID:     models.UserTypeSystem,
			UserType:   models.UserTypeSystem,
			Notes:      strings.Join(p.actions, ", "),
			Timestamp:  now,
		},
	}
	if p.status != "" {
		update.Status = models.StringPtr(p.status)
	}
	if err := r.CDB.UpdateOne(ctx, c.ID, update); err != nil {
		return result, errors.Wrapf(err, "failed to update case %s", caseID)
	}

	result.Fixed = true
	zap.S().Infow("case reconciled",
		"caseId", caseID,
		"previousLawyer", c.Details.CurrentLawyer,
		"lawyer", p.lawyer,
		"actions", p.actions)
	return result, nil
}
