// Package docs Legal Case API.
//
// Documentation of the Legal Case API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/reconciler"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/cases cases createCase
// Submits a new case for the calling client. Verification runs a few seconds later.
// responses:
//   201: caseResponse
//   400: errorResponse

// swagger:parameters createCase updateCase
type caseParamsWrapper struct {
	// in:body
	Body lifecycle.CaseInput
}

// swagger:route GET /api/v1/cases/{case_id} cases caseByID
// Gets a single case. Lawyer-bound cases are reconciled before they are returned.
// responses:
//   200: caseResponse
//   403: errorResponse
//   404: errorResponse

// A single case
// swagger:response caseResponse
type caseResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route PUT /api/v1/assignments/{assignment_id}/respond assignments respondToAssignment
// Accepts or rejects a proposal. Accepting makes the lawyer the case's current lawyer.
// responses:
//   200: assignmentResponse
//   400: errorResponse
//   403: errorResponse

// swagger:parameters respondToAssignment
type respondParamsWrapper struct {
	// in:body
	Body lifecycle.AssignmentResponseInput
}

// A lawyer assignment
// swagger:response assignmentResponse
type assignmentResponseWrapper struct {
	// in:body
	Body models.LawyerAssignment
}

// swagger:route POST /api/v1/reconcile reconcile reconcileAll
// Repairs every lawyer-bound case the caller may see.
// responses:
//   200: sweepResponse
//   403: errorResponse

// Counters of a bulk reconciliation
// swagger:response sweepResponse
type sweepResponseWrapper struct {
	// in:body
	Body reconciler.SweepResult
}

// The kind and per-field messages of a failed operation
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}
