package handlers

import (
	"context"
	"net/http"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/models"
)

// Court exported for testing purposes
type Court struct {
	Lifecycle *lifecycle.Orchestrator
}

type caseOp[T any] func(ctx context.Context, caller identity.Caller, caseID string, in T) (*models.Case, error)

// serveCaseOp decodes a T from the body, runs op on the case in the path and writes the case back
func serveCaseOp[T any](w http.ResponseWriter, r *http.Request, message string, op caseOp[T]) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in T
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := op(ctx, caller, caseID(r), in)
	if err != nil {
		fail(w, message, err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// RequestFilingHandler is the client asking their lawyer to file with the court
func (c Court) RequestFilingHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	updated, err := c.Lifecycle.RequestFiling(ctx, caller, caseID(r))
	if err != nil {
		fail(w, "failed to request filing", err)
		return
	}
	respond(w, http.StatusOK, updated)
}

// FileCaseHandler records the court filing
func (c Court) FileCaseHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to file case", c.Lifecycle.FileCourtCase)
}

// RequestSchedulingHandler asks the court for a hearing date
func (c Court) RequestSchedulingHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	var in lifecycle.SchedulingInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	req, err := c.Lifecycle.RequestScheduling(ctx, caller, caseID(r), in)
	if err != nil {
		fail(w, "failed to request scheduling", err)
		return
	}
	respond(w, http.StatusCreated, req)
}

// ScheduleHearingHandler sets the hearing slot
func (c Court) ScheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to schedule hearing", c.Lifecycle.ScheduleHearing)
}

// RescheduleHearingHandler sets a new slot after an adjournment
func (c Court) RescheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to reschedule hearing", c.Lifecycle.RescheduleHearing)
}

// RequestDocumentsHandler puts the case under review until the client answers
func (c Court) RequestDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to request documents", c.Lifecycle.RequestDocuments)
}

// SubmitDocumentsHandler answers a document request
func (c Court) SubmitDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to submit documents", c.Lifecycle.SubmitDocuments)
}

func (c Court) AdjournHearingHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to adjourn hearing", c.Lifecycle.AdjournHearing)
}

func (c Court) CloseCaseHandler(w http.ResponseWriter, r *http.Request) {
	serveCaseOp(w, r, "failed to close case", c.Lifecycle.CloseCase)
}
