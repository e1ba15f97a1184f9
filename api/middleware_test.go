package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
)

const testSecret = "test-secret"

func callerEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.CallerFrom(r.Context())
		require.True(t, ok)
		w.Write([]byte(caller.UserID + "/" + caller.UserType))
	})
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest("GET", "/api/v1/cases", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthenticator_Middleware(t *testing.T) {
	a := NewAuthenticator(testSecret)
	handler := a.Middleware(callerEcho(t))

	token, err := IssueToken(testSecret, "lawyer-1", models.UserTypeLawyer, time.Hour)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authRequest(token))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "lawyer-1/lawyer", rr.Body.String())
}

func TestAuthenticator_RejectsBadTokens(t *testing.T) {
	a := NewAuthenticator(testSecret)
	handler := a.Middleware(callerEcho(t))

	wrongSecret, err := IssueToken("other-secret", "client-1", models.UserTypeClient, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, "client-1", models.UserTypeClient, -time.Minute)
	require.NoError(t, err)
	system, err := IssueToken(testSecret, "system", models.UserTypeSystem, time.Hour)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserType: models.UserTypeAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", wrongSecret},
		{"expired", expired},
		{"system user type", system},
		{"unsigned", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, authRequest(tt.token))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
		})
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("too late"))
	})
	rr := httptest.NewRecorder()

	TimeoutMiddleware(20*time.Millisecond)(slow).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	close(release)

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.NotContains(t, rr.Body.String(), "too late")
}

func TestTimeoutMiddleware_FastHandler(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	rr := httptest.NewRecorder()

	TimeoutMiddleware(time.Second)(fast).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	mc := NewMetricsCollector(10)
	defer mc.Close()
	handler := MetricsMiddleware(mc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/cases/5f7c3a2b9d1e4a0012345678", nil))

	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	assert.Eventually(t, func() bool {
		routes := mc.SlowestRoutes(0)
		return len(routes) == 1 && routes[0].ErrorCount == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "/api/v1/cases/{id}", mc.SlowestRoutes(1)[0].Path)
	assert.Equal(t, int64(1), mc.Summary()["totalErrors"])
}

func TestNormalizeRoutePath(t *testing.T) {
	assert.Equal(t, "/api/v1/cases/{id}/assignments", normalizeRoutePath("/api/v1/cases/5f7c3a2b9d1e4a0012345678/assignments"))
	assert.Equal(t, "/api/v1/cases", normalizeRoutePath("/api/v1/cases"))
	assert.Equal(t, "/a/{id}/{id}", normalizeRoutePath("/a/5f7c3a2b9d1e4a0012345678/5f7c3a2b9d1e4a0012345679"))
}

func TestHealthCheck(t *testing.T) {
	rr := httptest.NewRecorder()
	New().ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}
