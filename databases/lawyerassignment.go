package databases

// go generate: mockery --name LawyerAssignmentDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const lawyerAssignmentName = "lawyerassignments"

// LawyerAssignmentDatabase contains the methods to use with the lawyer assignment database
type LawyerAssignmentDatabase interface {
	InsertOne(ctx context.Context, a models.LawyerAssignment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.LawyerAssignment, error)
	// FindByCase returns the assignments of a case, newest first. An empty status matches any status.
	FindByCase(ctx context.Context, caseID string, status string) ([]models.LawyerAssignment, error)
	// FindLatestByCase returns the newest assignment of a case with the given status (any when empty)
	FindLatestByCase(ctx context.Context, caseID string, status string) (*models.LawyerAssignment, error)
	FindByLawyer(ctx context.Context, lawyerID string, statuses ...string) ([]models.LawyerAssignment, error)
	CountByLawyer(ctx context.Context, lawyerID string, statuses ...string) (int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status, lawyerResponse string, responseDate time.Time) error
	EnsureIndexes(ctx context.Context) error
}

type lawyerAssignmentDatabase struct {
	db DatabaseHelper
}

// NewLawyerAssignmentDatabase initializes a new instance of lawyer assignment database with the provided db connection
func NewLawyerAssignmentDatabase(db DatabaseHelper) LawyerAssignmentDatabase {
	return &lawyerAssignmentDatabase{
		db: db,
	}
}

func (l *lawyerAssignmentDatabase) InsertOne(ctx context.Context, a models.LawyerAssignment) error {
	_, err := l.db.Collection(lawyerAssignmentName).InsertOne(ctx, a)
	return err
}

func (l *lawyerAssignmentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.LawyerAssignment, error) {
	assignment := &models.LawyerAssignment{}
	err := l.db.Collection(lawyerAssignmentName).FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (l *lawyerAssignmentDatabase) FindByCase(ctx context.Context, caseID string, status string) ([]models.LawyerAssignment, error) {
	var assignments []models.LawyerAssignment
	curr, err := l.db.Collection(lawyerAssignmentName).Find(ctx, byCase(caseID, status), &options.FindOptions{
		Sort: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &assignments)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (l *lawyerAssignmentDatabase) FindLatestByCase(ctx context.Context, caseID string, status string) (*models.LawyerAssignment, error) {
	assignment := &models.LawyerAssignment{}
	err := l.db.Collection(lawyerAssignmentName).FindOne(ctx, byCase(caseID, status),
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&assignment)
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (l *lawyerAssignmentDatabase) FindByLawyer(ctx context.Context, lawyerID string, statuses ...string) ([]models.LawyerAssignment, error) {
	var assignments []models.LawyerAssignment
	curr, err := l.db.Collection(lawyerAssignmentName).Find(ctx, byLawyer(lawyerID, statuses), &options.FindOptions{
		Sort: bson.M{"createdAt": -1},
	})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &assignments)
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (l *lawyerAssignmentDatabase) CountByLawyer(ctx context.Context, lawyerID string, statuses ...string) (int64, error) {
	return l.db.Collection(lawyerAssignmentName).CountDocuments(ctx, byLawyer(lawyerID, statuses))
}

func (l *lawyerAssignmentDatabase) UpdateStatus(ctx context.Context, id primitive.ObjectID, status, lawyerResponse string, responseDate time.Time) error {
	res, err := l.db.Collection(lawyerAssignmentName).UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":         status,
			"lawyerResponse": lawyerResponse,
			"responseDate":   responseDate,
			"updatedAt":      responseDate,
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

func (l *lawyerAssignmentDatabase) EnsureIndexes(ctx context.Context) error {
	return l.db.Collection(lawyerAssignmentName).CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "caseId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
}

func byCase(caseID, status string) bson.M {
	filter := bson.M{"caseId": caseID}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func byLawyer(lawyerID string, statuses []string) bson.M {
	filter := bson.M{"lawyerId": lawyerID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}
