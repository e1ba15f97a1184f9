package databases

// go generate: mockery --name SchedulingRequestDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const schedulingRequestName = "schedulingrequests"

// SchedulingRequestDatabase contains the methods to use with the scheduling request database
type SchedulingRequestDatabase interface {
	// InsertOne fails with a duplicate key error when the case already has a request
	InsertOne(ctx context.Context, s models.SchedulingRequest) error
	FindByCase(ctx context.Context, caseID string) (*models.SchedulingRequest, error)
	MarkScheduled(ctx context.Context, caseID string, hearing models.HearingDetails) error
	EnsureIndexes(ctx context.Context) error
}

type schedulingRequestDatabase struct {
	db DatabaseHelper
}

// NewSchedulingRequestDatabase initializes a new instance of scheduling request database with the provided db connection
func NewSchedulingRequestDatabase(db DatabaseHelper) SchedulingRequestDatabase {
	return &schedulingRequestDatabase{
		db: db,
	}
}

func (s *schedulingRequestDatabase) InsertOne(ctx context.Context, req models.SchedulingRequest) error {
	_, err := s.db.Collection(schedulingRequestName).InsertOne(ctx, req)
	return err
}

func (s *schedulingRequestDatabase) FindByCase(ctx context.Context, caseID string) (*models.SchedulingRequest, error) {
	req := &models.SchedulingRequest{}
	err := s.db.Collection(schedulingRequestName).FindOne(ctx, bson.M{"caseId": caseID}).Decode(&req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *schedulingRequestDatabase) MarkScheduled(ctx context.Context, caseID string, hearing models.HearingDetails) error {
	res, err := s.db.Collection(schedulingRequestName).UpdateOne(ctx, bson.M{"caseId": caseID}, bson.M{
		"$set": bson.M{
			"status":      models.SchedulingScheduled,
			"hearingDate": hearing.Date,
			"hearingTime": hearing.Time,
			"courtroom":   hearing.Courtroom,
			"judge":       hearing.Judge,
			"updatedAt":   time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *schedulingRequestDatabase) EnsureIndexes(ctx context.Context) error {
	return s.db.Collection(schedulingRequestName).CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "caseId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_scheduling_case"),
	})
}
