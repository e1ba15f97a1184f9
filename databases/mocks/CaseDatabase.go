package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/models"
)

// CaseDatabase is a mock type for the CaseDatabase type
type CaseDatabase struct {
	mock.Mock
}

// InsertOne provides a mock function with given fields: ctx, c
func (_m *CaseDatabase) InsertOne(ctx context.Context, c models.Case) error {
	return _m.Called(ctx, c).Error(0)
}

// FindByID provides a mock function with given fields: ctx, id
func (_m *CaseDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	ret := _m.Called(ctx, id)
	r0, _ := ret.Get(0).(*models.Case)
	return r0, ret.Error(1)
}

// Find provides a mock function with given fields: ctx, filter
func (_m *CaseDatabase) Find(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	ret := _m.Called(ctx, filter)
	r0, _ := ret.Get(0).([]models.Case)
	return r0, ret.Error(1)
}

// FindHighestCaseNumber provides a mock function with given fields: ctx, prefix
func (_m *CaseDatabase) FindHighestCaseNumber(ctx context.Context, prefix string) (string, error) {
	ret := _m.Called(ctx, prefix)
	return ret.String(0), ret.Error(1)
}

// CaseNumberExists provides a mock function with given fields: ctx, number
func (_m *CaseDatabase) CaseNumberExists(ctx context.Context, number string) (bool, error) {
	ret := _m.Called(ctx, number)
	return ret.Bool(0), ret.Error(1)
}

// UpdateOne provides a mock function with given fields: ctx, id, update
func (_m *CaseDatabase) UpdateOne(ctx context.Context, id primitive.ObjectID, update models.CaseUpdate) error {
	return _m.Called(ctx, id, update).Error(0)
}

// DeleteOne provides a mock function with given fields: ctx, id
func (_m *CaseDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	return _m.Called(ctx, id).Error(0)
}

// EnsureIndexes provides a mock function with given fields: ctx
func (_m *CaseDatabase) EnsureIndexes(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}
