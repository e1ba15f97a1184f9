// Package identity resolves the verified caller of an operation into a user record.
package identity

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

// SystemID is the user id recorded for actions taken by background jobs
const SystemID = "system"

// Caller is the authenticated principal of a request. It is trusted once it reaches the core.
type Caller struct {
	UserID   string
	UserType string
}

// System is the caller used by jobs and the reconcile sweep
var System = Caller{UserID: SystemID, UserType: models.UserTypeSystem}

// Is reports whether the caller has one of the given user types
func (c Caller) Is(userTypes ...string) bool {
	for _, t := range userTypes {
		if c.UserType == t {
			return true
		}
	}
	return false
}

type callerKey struct{}

// WithCaller returns a copy of ctx carrying the caller
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller stored in ctx, if any
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// Identity is a resolved user
type Identity struct {
	ID       string
	Type     string
	Name     string
	Email    string
	District string
}

// Resolver turns a user id of a known type into an Identity
type Resolver interface {
	Resolve(ctx context.Context, userID, userType string) (*Identity, error)
}

// roleResolver resolves users of a single type
type roleResolver interface {
	resolve(ctx context.Context, userID string) (*Identity, error)
}

// Registry dispatches to one resolver per user type
type Registry struct {
	roles map[string]roleResolver
}

// NewRegistry builds the resolver for every user type, backed by the user database
func NewRegistry(udb databases.UserDatabase) *Registry {
	return &Registry{
		roles: map[string]roleResolver{
			models.UserTypeClient: storedRole{udb: udb, userType: models.UserTypeClient},
			models.UserTypeLawyer: storedRole{udb: udb, userType: models.UserTypeLawyer},
			models.UserTypeAdmin:  storedRole{udb: udb, userType: models.UserTypeAdmin},
			models.UserTypeCourt:  storedRole{udb: udb, userType: models.UserTypeCourt},
			models.UserTypeSystem: systemRole{},
		},
	}
}

// Resolve looks the user up with the resolver registered for userType
func (r *Registry) Resolve(ctx context.Context, userID, userType string) (*Identity, error) {
	role, ok := r.roles[userType]
	if !ok {
		return nil, apperrors.Validationf("userType", "unknown user type %q", userType)
	}
	if userID == "" {
		return nil, apperrors.NotFoundf("no %s id given", userType)
	}
	return role.resolve(ctx, userID)
}

// storedRole resolves users kept in the user database. Lawyer availability is not checked here;
// it only matters for auto-assignment.
type storedRole struct {
	udb      databases.UserDatabase
	userType string
}

func (s storedRole) resolve(ctx context.Context, userID string) (*Identity, error) {
	user, err := s.udb.FindByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFoundf("%s %s not found", s.userType, userID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s %s", s.userType, userID)
	}
	if user.Details.UserType != s.userType {
		return nil, apperrors.NotFoundf("user %s is not a %s", userID, s.userType)
	}
	return &Identity{
		ID:       user.ID,
		Type:     user.Details.UserType,
		Name:     user.Details.Name,
		Email:    user.Details.Email,
		District: user.Details.District,
	}, nil
}

type systemRole struct{}

func (systemRole) resolve(_ context.Context, userID string) (*Identity, error) {
	return &Identity{ID: userID, Type: models.UserTypeSystem, Name: "System"}, nil
}
