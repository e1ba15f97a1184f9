package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/identity"
)

var errNoCaller = errors.New("request has no authenticated caller")

// callerFrom writes a 401 when the auth middleware did not run
func callerFrom(w http.ResponseWriter, r *http.Request) (identity.Caller, bool) {
	caller, ok := identity.CallerFrom(r.Context())
	if !ok {
		config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, errNoCaller)
	}
	return caller, ok
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// fail maps an operation error onto its status code
func fail(w http.ResponseWriter, message string, err error) {
	config.ErrorStatus(message, apperrors.HTTPStatus(err), w, err)
}

func caseID(r *http.Request) string {
	return mux.Vars(r)["case_id"]
}

func assignmentID(r *http.Request) string {
	return mux.Vars(r)["assignment_id"]
}
