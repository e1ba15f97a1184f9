package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerlocks"

// SchedulerLockDatabase gives background jobs a lease so only one instance runs them at a time
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, owner string) error
}

type schedulerLockDatabase struct {
	db DatabaseHelper
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db: db,
	}
}

// TryAcquireLock takes the lease when it is free, expired or already ours. A live lease held by
// another owner makes the upsert collide on _id, which is reported as not acquired.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, jobName, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	filter := bson.M{
		"_id": jobName,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lt": now}},
			{"owner": owner},
		},
	}
	update := bson.M{"$set": bson.M{"owner": owner, "expiresAt": now.Add(ttl)}}
	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, jobName, owner string) error {
	// a lock that already expired and was taken over is not ours to release
	_, err := s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": jobName, "owner": owner})
	return err
}
