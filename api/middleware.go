package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/identity"
	"github.com/linesmerrill/legal-case-api/models"
)

// tokenCacheTTL bounds how long a verified token skips signature checks
const tokenCacheTTL = 5 * time.Minute

// Claims are the claims of an access token. The subject is the user id.
type Claims struct {
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and stores the caller in the request context
type Authenticator struct {
	secret []byte
	guard  auth.Authenticator
}

// NewAuthenticator sets up go-guardian with a cached bearer strategy backed by JWT verification
func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{secret: []byte(secret)}
	cache := store.NewFIFO(context.Background(), tokenCacheTTL)
	a.guard = auth.New()
	a.guard.EnableStrategy(bearer.CachedStrategyKey, bearer.New(a.verify, cache))
	return a
}

func (a *Authenticator) verify(_ context.Context, _ *http.Request, token string) (auth.Info, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	switch claims.UserType {
	case models.UserTypeClient, models.UserTypeLawyer, models.UserTypeAdmin, models.UserTypeCourt:
	default:
		return nil, errors.Newf("token has unknown user type %q", claims.UserType)
	}
	return auth.NewDefaultUser(claims.Subject, claims.Subject, []string{claims.UserType}, nil), nil
}

// Middleware rejects unauthenticated requests and passes the caller on to next
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info, err := a.guard.Authenticate(r)
		if err != nil || len(info.Groups()) == 0 {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		caller := identity.Caller{UserID: info.ID(), UserType: info.Groups()[0]}
		zap.S().Debugw("user authenticated", "userId", caller.UserID, "userType", caller.UserType)
		next.ServeHTTP(w, r.WithContext(identity.WithCaller(r.Context(), caller)))
	})
}

// IssueToken signs an access token for the user
func IssueToken(secret, userID, userType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
