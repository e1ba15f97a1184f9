package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// SchedulerLockDatabase is a mock type for the SchedulerLockDatabase type
type SchedulerLockDatabase struct {
	mock.Mock
}

// TryAcquireLock provides a mock function with given fields: ctx, jobName, owner, ttl
func (_m *SchedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error) {
	ret := _m.Called(ctx, jobName, owner, ttl)
	return ret.Bool(0), ret.Error(1)
}

// ReleaseLock provides a mock function with given fields: ctx, jobName, owner
func (_m *SchedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, owner string) error {
	return _m.Called(ctx, jobName, owner).Error(0)
}
