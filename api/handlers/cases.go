package handlers

import (
	"net/http"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/lifecycle"
)

// Case exported for testing purposes
type Case struct {
	Lifecycle *lifecycle.Orchestrator
}

// CreateCaseHandler files a new case for the calling client
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.CaseInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := c.Lifecycle.CreateCase(ctx, caller, in)
	if err != nil {
		fail(w, "failed to create case", err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// CasesHandler lists the cases visible to the caller, optionally filtered by ?status=
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.Lifecycle.ListCases(ctx, caller, r.URL.Query().Get("status"))
	if err != nil {
		fail(w, "failed to list cases", err)
		return
	}
	respond(w, http.StatusOK, cases)
}

// CaseByIDHandler returns a single case
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Lifecycle.GetCase(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to get case", err)
		return
	}
	respond(w, http.StatusOK, found)
}

// UpdateCaseHandler replaces the owner-editable content of a case
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.CaseInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Lifecycle.UpdateCase(ctx, caller, caseID(r), in)
	if err != nil {
		fail(w, "failed to update case", err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// DeleteCaseHandler removes a case that has not reached the court
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Lifecycle.DeleteCase(ctx, caller, caseID(r)); err != nil {
		fail(w, "failed to delete case", err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "case deleted"})
}

// VerifyCaseHandler runs verification now instead of waiting for the scheduled job
func (c Case) VerifyCaseHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	v, err := c.Lifecycle.VerifyCase(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to verify case", err)
		return
	}
	respond(w, http.StatusOK, v)
}

// VerificationsHandler returns the verification history of a case, newest first
func (c Case) VerificationsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	records, err := c.Lifecycle.GetVerifications(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to get verifications", err)
		return
	}
	respond(w, http.StatusOK, records)
}

// UpdateStatusHandler is the administrative status override
func (c Case) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.StatusInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Lifecycle.UpdateStatus(ctx, caller, caseID(r), in)
	if err != nil {
		fail(w, "failed to update case status", err)
		return
	}
	respond(w, http.StatusOK, updated)
}
