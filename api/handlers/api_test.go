package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/api"
	"github.com/linesmerrill/legal-case-api/api/handlers"
	"github.com/linesmerrill/legal-case-api/databases/memdb"
	"github.com/linesmerrill/legal-case-api/jobs"
	"github.com/linesmerrill/legal-case-api/lifecycle"
	"github.com/linesmerrill/legal-case-api/models"
	"github.com/linesmerrill/legal-case-api/notify"
)

const testSecret = "handler-test-secret"

type testServer struct {
	app *handlers.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memdb.New()
	for _, u := range []models.User{
		{ID: "client-1", Details: models.UserDetails{Name: "Nimal Perera", UserType: models.UserTypeClient}},
		{ID: "client-2", Details: models.UserDetails{Name: "Kamala Fernando", UserType: models.UserTypeClient}},
		{ID: "lawyer-a", Details: models.UserDetails{Name: "Anura Jayasinghe", UserType: models.UserTypeLawyer, District: "Colombo", Available: true}},
		{ID: "admin-1", Details: models.UserDetails{Name: "Admin", UserType: models.UserTypeAdmin}},
		{ID: "court-1", Details: models.UserDetails{Name: "Registrar", UserType: models.UserTypeCourt}},
	} {
		store.PutUser(u)
	}

	// never started: scheduled jobs wait an hour and are dropped on close
	queue := jobs.NewTimerQueue()
	stores := handlers.MemoryStores(store)
	app := &handlers.App{
		Stores: stores,
		Lifecycle: lifecycle.New(lifecycle.Deps{
			Cases:         stores.Cases,
			Assignments:   stores.Assignments,
			Verifications: stores.Verifications,
			Scheduling:    stores.Scheduling,
			Users:         stores.Users,
			Queue:         queue,
		}, lifecycle.Options{AutoVerifyDelay: time.Hour, AutoAssignDelay: time.Hour}),
		Auth:    api.NewAuthenticator(testSecret),
		Hub:     notify.NewHub(),
		Metrics: api.NewMetricsCollector(100),
		Queue:   queue,
	}
	app.Router = app.New()
	t.Cleanup(func() {
		_ = queue.Close()
		app.Metrics.Close()
	})
	return &testServer{app: app}
}

func (s *testServer) do(t *testing.T, userID, userType, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		token, err := api.IssueToken(testSecret, userID, userType, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func caseBody() lifecycle.CaseInput {
	return lifecycle.CaseInput{
		Title:       "Boundary dispute over ancestral land",
		Description: strings.Repeat("d", 50),
		CaseType:    "civil",
		District:    "Colombo",
		Plaintiff:   lifecycle.PartyInput{Name: "Nimal Perera"},
		Defendant:   lifecycle.PartyInput{Name: "Sunil Silva"},
	}
}

func (s *testServer) createCase(t *testing.T) models.Case {
	t.Helper()
	rr := s.do(t, "client-1", models.UserTypeClient, "POST", "/api/v1/cases", caseBody())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var c models.Case
	decodeBody(t, rr, &c)
	return c
}

func TestCreateCaseHandler(t *testing.T) {
	s := newTestServer(t)

	c := s.createCase(t)

	assert.Equal(t, models.CaseStatusPending, c.Details.Status)
	assert.Equal(t, "client-1", c.Details.UserID)
	assert.True(t, strings.HasPrefix(c.Details.CaseNumber, "CL"), c.Details.CaseNumber)
}

func TestCreateCaseHandler_ValidationError(t *testing.T) {
	s := newTestServer(t)
	in := caseBody()
	in.Title = "  "

	rr := s.do(t, "client-1", models.UserTypeClient, "POST", "/api/v1/cases", in)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp models.ErrorMessageResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "ValidationFailed", resp.Response.Kind)
	assert.Contains(t, resp.Response.Fields, "title")
}

func TestCreateCaseHandler_BadBody(t *testing.T) {
	s := newTestServer(t)
	token, err := api.IssueToken(testSecret, "client-1", models.UserTypeClient, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/v1/cases", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	s.app.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp models.ErrorMessageResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "failed to decode request body", resp.Response.Message)
}

func TestCaseHandlers_RequireToken(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "", "", "GET", "/api/v1/cases", nil)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCaseByIDHandler_Errors(t *testing.T) {
	s := newTestServer(t)
	c := s.createCase(t)

	tests := []struct {
		name     string
		userID   string
		userType string
		path     string
		status   int
		kind     string
	}{
		{"other client", "client-2", models.UserTypeClient, "/api/v1/cases/" + c.ID.Hex(), http.StatusForbidden, "AccessDenied"},
		{"unknown case", "client-1", models.UserTypeClient, "/api/v1/cases/" + primitive.NewObjectID().Hex(), http.StatusNotFound, "NotFound"},
		{"malformed id", "client-1", models.UserTypeClient, "/api/v1/cases/nope", http.StatusNotFound, "NotFound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, tt.userID, tt.userType, "GET", tt.path, nil)

			assert.Equal(t, tt.status, rr.Code)
			var resp models.ErrorMessageResponse
			decodeBody(t, rr, &resp)
			assert.Equal(t, tt.kind, resp.Response.Kind)
		})
	}
}

func TestCasesHandler_StatusFilter(t *testing.T) {
	s := newTestServer(t)
	s.createCase(t)
	s.createCase(t)

	rr := s.do(t, "client-1", models.UserTypeClient, "GET", "/api/v1/cases?status=pending", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var cases []models.Case
	decodeBody(t, rr, &cases)
	assert.Len(t, cases, 2)

	rr = s.do(t, "client-1", models.UserTypeClient, "GET", "/api/v1/cases?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlers_CaseThroughFiling(t *testing.T) {
	s := newTestServer(t)
	c := s.createCase(t)
	base := "/api/v1/cases/" + c.ID.Hex()

	rr := s.do(t, "admin-1", models.UserTypeAdmin, "POST", base+"/verify", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var v models.Verification
	decodeBody(t, rr, &v)
	assert.Equal(t, models.VerificationVerified, v.Status)

	rr = s.do(t, "client-1", models.UserTypeClient, "POST", base+"/assignments", lifecycle.AssignmentInput{LawyerID: "lawyer-a"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var a models.LawyerAssignment
	decodeBody(t, rr, &a)

	rr = s.do(t, "client-1", models.UserTypeClient, "POST", base+"/assignments", lifecycle.AssignmentInput{LawyerID: "lawyer-a"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, "lawyer-a", models.UserTypeLawyer, "GET", "/api/v1/assignments?status=pending", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []models.LawyerAssignment
	decodeBody(t, rr, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	rr = s.do(t, "lawyer-a", models.UserTypeLawyer, "PUT", "/api/v1/assignments/"+a.ID.Hex()+"/respond",
		lifecycle.AssignmentResponseInput{Accept: true, Response: "Happy to help"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, "client-1", models.UserTypeClient, "GET", base, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Case
	decodeBody(t, rr, &got)
	assert.Equal(t, models.CaseStatusLawyerAssigned, got.Details.Status)
	assert.Equal(t, "lawyer-a", got.Details.CurrentLawyer)

	rr = s.do(t, "client-1", models.UserTypeClient, "POST", base+"/request-filing", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, "lawyer-a", models.UserTypeLawyer, "POST", base+"/file", lifecycle.FilingInput{FilingReference: "DC/COL/2026/114"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &got)
	assert.Equal(t, models.CaseStatusFiled, got.Details.Status)
	require.NotNil(t, got.Details.CourtDetails)

	rr = s.do(t, "client-1", models.UserTypeClient, "PUT", base, caseBody())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp models.ErrorMessageResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "InvalidState", resp.Response.Kind)

	rr = s.do(t, "lawyer-a", models.UserTypeLawyer, "POST", base+"/scheduling", lifecycle.SchedulingInput{Notes: "mornings"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do(t, "court-1", models.UserTypeCourt, "POST", base+"/hearing", lifecycle.HearingInput{
		Date: time.Now().Add(72 * time.Hour), Time: "09:30", Courtroom: "3",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &got)
	assert.Equal(t, models.CaseStatusHearingScheduled, got.Details.Status)
}

func TestRespondHandler_WrongLawyer(t *testing.T) {
	s := newTestServer(t)
	c := s.createCase(t)
	rr := s.do(t, "client-1", models.UserTypeClient, "POST", "/api/v1/cases/"+c.ID.Hex()+"/assignments", lifecycle.AssignmentInput{LawyerID: "lawyer-a"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var a models.LawyerAssignment
	decodeBody(t, rr, &a)

	rr = s.do(t, "client-1", models.UserTypeClient, "PUT", "/api/v1/assignments/"+a.ID.Hex()+"/respond", lifecycle.AssignmentResponseInput{Accept: true})

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestReconcileHandlers(t *testing.T) {
	s := newTestServer(t)
	c := s.createCase(t)

	rr := s.do(t, "client-1", models.UserTypeClient, "POST", "/api/v1/cases/"+c.ID.Hex()+"/reconcile", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res map[string]interface{}
	decodeBody(t, rr, &res)
	assert.Equal(t, false, res["fixed"])

	rr = s.do(t, "admin-1", models.UserTypeAdmin, "POST", "/api/v1/reconcile", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, "court-1", models.UserTypeCourt, "POST", "/api/v1/reconcile", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMetricsHandlers_AdminOnly(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "client-1", models.UserTypeClient, "GET", "/api/v1/metrics", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, "admin-1", models.UserTypeAdmin, "GET", "/api/v1/metrics?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]interface{}
	decodeBody(t, rr, &body)
	assert.Contains(t, body, "summary")
	assert.Contains(t, body, "slowest")

	rr = s.do(t, "admin-1", models.UserTypeAdmin, "GET", "/api/v1/metrics/summary", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "", "", "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}
