package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/models"
)

// LawyerAssignmentDatabase is a mock type for the LawyerAssignmentDatabase type
type LawyerAssignmentDatabase struct {
	mock.Mock
}

// InsertOne provides a mock function with given fields: ctx, a
func (_m *LawyerAssignmentDatabase) InsertOne(ctx context.Context, a models.LawyerAssignment) error {
	return _m.Called(ctx, a).Error(0)
}

// FindByID provides a mock function with given fields: ctx, id
func (_m *LawyerAssignmentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.LawyerAssignment, error) {
	ret := _m.Called(ctx, id)
	r0, _ := ret.Get(0).(*models.LawyerAssignment)
	return r0, ret.Error(1)
}

// FindByCase provides a mock function with given fields: ctx, caseID, status
func (_m *LawyerAssignmentDatabase) FindByCase(ctx context.Context, caseID string, status string) ([]models.LawyerAssignment, error) {
	ret := _m.Called(ctx, caseID, status)
	r0, _ := ret.Get(0).([]models.LawyerAssignment)
	return r0, ret.Error(1)
}

// FindLatestByCase provides a mock function with given fields: ctx, caseID, status
func (_m *LawyerAssignmentDatabase) FindLatestByCase(ctx context.Context, caseID string, status string) (*models.LawyerAssignment, error) {
	ret := _m.Called(ctx, caseID, status)
	r0, _ := ret.Get(0).(*models.LawyerAssignment)
	return r0, ret.Error(1)
}

// FindByLawyer provides a mock function with given fields: ctx, lawyerID, statuses
func (_m *LawyerAssignmentDatabase) FindByLawyer(ctx context.Context, lawyerID string, statuses ...string) ([]models.LawyerAssignment, error) {
	ret := _m.Called(ctx, lawyerID, statuses)
	r0, _ := ret.Get(0).([]models.LawyerAssignment)
	return r0, ret.Error(1)
}

// CountByLawyer provides a mock function with given fields: ctx, lawyerID, statuses
func (_m *LawyerAssignmentDatabase) CountByLawyer(ctx context.Context, lawyerID string, statuses ...string) (int64, error) {
	ret := _m.Called(ctx, lawyerID, statuses)
	r0, _ := ret.Get(0).(int64)
	return r0, ret.Error(1)
}

// UpdateStatus provides a mock function with given fields: ctx, id, status, lawyerResponse, responseDate
func (_m *LawyerAssignmentDatabase) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, lawyerResponse string, responseDate time.Time) error {
	return _m.Called(ctx, id, status, lawyerResponse, responseDate).Error(0)
}

// EnsureIndexes provides a mock function with given fields: ctx
func (_m *LawyerAssignmentDatabase) EnsureIndexes(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}
