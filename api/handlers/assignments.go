package handlers

import (
	"net/http"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/lifecycle"
)

// Assignment exported for testing purposes
type Assignment struct {
	Lifecycle *lifecycle.Orchestrator
}

// CaseAssignmentsHandler lists every assignment of a case
func (a Assignment) CaseAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	assignments, err := a.Lifecycle.ListAssignments(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to list assignments", err)
		return
	}
	respond(w, http.StatusOK, assignments)
}

// CreateAssignmentHandler proposes a lawyer for a case
func (a Assignment) CreateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.AssignmentInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := a.Lifecycle.CreateAssignment(ctx, caller, caseID(r), in)
	if err != nil {
		fail(w, "failed to create assignment", err)
		return
	}
	respond(w, http.StatusCreated, created)
}

// RespondHandler lets the proposed lawyer accept or reject
func (a Assignment) RespondHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.AssignmentResponseInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := a.Lifecycle.RespondToAssignment(ctx, caller, assignmentID(r), in)
	if err != nil {
		fail(w, "failed to respond to assignment", err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// WithdrawHandler lets the case owner take back a pending proposal
func (a Assignment) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := a.Lifecycle.WithdrawAssignment(ctx, caller, assignmentID(r))
	if err != nil {
		fail(w, "failed to withdraw assignment", err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// LawyerAssignmentsHandler lists the calling lawyer's assignments. Repeat ?status= to filter.
func (a Assignment) LawyerAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	assignments, err := a.Lifecycle.ListLawyerAssignments(ctx, caller, r.URL.Query()["status"]...)
	if err != nil {
		fail(w, "failed to list assignments", err)
		return
	}
	respond(w, http.StatusOK, assignments)
}
