package handlers

import (
	"net/http"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

// Reconciliation exported for testing purposes
type Reconciliation struct {
	Lifecycle *lifecycle.Orchestrator
}

// ReconcileCaseHandler repairs one case against its assignment records
func (rc Reconciliation) ReconcileCaseHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	res, err := rc.Lifecycle.ReconcileOne(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to reconcile case", err)
		return
	}
	respond(w, http.StatusOK, res)
}

// ReconcileAllHandler sweeps every case the caller may repair. Staff may narrow the sweep
// with ?userId=.
func (rc Reconciliation) ReconcileAllHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	// a sweep walks every case, so it gets longer than a single query
	ctx, cancel := api.WithSweepTimeout(r.Context())
	defer cancel()

	res, err := rc.Lifecycle.ReconcileAll(ctx, caller, reconciler.Scope{UserID: r.URL.Query().Get("userId")})
	if err != nil {
		fail(w, "failed to reconcile cases", err)
		return
	}
	respond(w, http.StatusOK, res)
}
