package databases

// go generate: mockery --name CaseDatabase

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	InsertOne(ctx context.Context, c models.Case) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	Find(ctx context.Context, filter models.CaseFilter) ([]models.Case, error)
	// FindHighestCaseNumber returns the greatest sequential case number (prefix followed by digits
	// only), or "" when there is none
	FindHighestCaseNumber(ctx context.Context, prefix string) (string, error)
	CaseNumberExists(ctx context.Context, number string) (bool, error)
	UpdateOne(ctx context.Context, id primitive.ObjectID, update models.CaseUpdate) error
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) InsertOne(ctx context.Context, legalCase models.Case) error {
	_, err := c.db.Collection(caseName).InsertOne(ctx, legalCase)
	return err
}

func (c *caseDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	legalCase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, bson.M{"_id": id}).Decode(&legalCase)
	if err != nil {
		return nil, err
	}
	return legalCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseName).Find(ctx, caseFilterToBson(filter), &options.FindOptions{
		Sort: bson.M{"case.createdAt": -1},
	})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) FindHighestCaseNumber(ctx context.Context, prefix string) (string, error) {
	legalCase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx,
		bson.M{"case.caseNumber": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"}},
		options.FindOne().SetSort(bson.M{"case.caseNumber": -1}),
	).Decode(&legalCase)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return legalCase.Details.CaseNumber, nil
}

func (c *caseDatabase) CaseNumberExists(ctx context.Context, number string) (bool, error) {
	count, err := c.db.Collection(caseName).CountDocuments(ctx, bson.M{"case.caseNumber": number})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (c *caseDatabase) UpdateOne(ctx context.Context, id primitive.ObjectID, update models.CaseUpdate) error {
	res, err := c.db.Collection(caseName).UpdateOne(ctx, bson.M{"_id": id}, caseUpdateToBson(update, time.Now()))
	if err != nil {
		return err
	}
	if res != nil && res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (c *caseDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	res, err := c.db.Collection(caseName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res != nil && res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// EnsureIndexes creates the unique case number index the case number generator relies on
func (c *caseDatabase) EnsureIndexes(ctx context.Context) error {
	coll := c.db.Collection(caseName)
	if err := coll.CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "case.caseNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_case_number"),
	}); err != nil {
		return err
	}
	return coll.CreateIndex(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "case.status", Value: 1}, {Key: "case.currentLawyer", Value: 1}},
	})
}

func caseFilterToBson(f models.CaseFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["$or"] = []bson.M{
			{"case.userID": f.UserID},
			{"case.currentLawyer": f.UserID},
		}
	}
	if f.OwnerID != "" {
		filter["case.userID"] = f.OwnerID
	}
	if f.LawyerID != "" {
		filter["case.currentLawyer"] = f.LawyerID
	}
	if len(f.Statuses) > 0 {
		filter["case.status"] = bson.M{"$in": f.Statuses}
	}
	return filter
}

func caseUpdateToBson(u models.CaseUpdate, now time.Time) bson.M {
	set := bson.M{"case.updatedAt": now}
	unset := bson.M{}
	push := bson.M{}

	if u.Status != nil {
		set["case.status"] = *u.Status
	}
	if u.VerificationStatus != nil {
		set["case.verificationStatus"] = *u.VerificationStatus
	}
	if u.CurrentLawyer != nil {
		if *u.CurrentLawyer == "" {
			unset["case.currentLawyer"] = ""
		} else {
			set["case.currentLawyer"] = *u.CurrentLawyer
		}
	}
	if u.Content != nil {
		set["case.title"] = u.Content.Title
		set["case.description"] = u.Content.Description
		set["case.caseType"] = u.Content.CaseType
		set["case.district"] = u.Content.District
		set["case.plaintiff"] = u.Content.Plaintiff
		set["case.defendant"] = u.Content.Defendant
		if u.Content.Documents != nil {
			set["case.documents"] = u.Content.Documents
		}
	}
	if u.CourtDetails != nil {
		set["case.courtDetails"] = u.CourtDetails
	}
	if u.DocumentRequest != nil {
		set["case.documentRequest"] = u.DocumentRequest
	}
	if u.HearingDetails != nil {
		set["case.hearingDetails"] = u.HearingDetails
	}
	if u.AdjournmentDetails != nil {
		set["case.adjournmentDetails"] = u.AdjournmentDetails
	}
	if u.CompletionDetails != nil {
		set["case.completionDetails"] = u.CompletionDetails
	}
	if len(u.AddDocuments) > 0 {
		push["case.documents"] = bson.M{"$each": u.AddDocuments}
	}
	if u.History != nil {
		push["case.history"] = u.History
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(push) > 0 {
		update["$push"] = push
	}
	return update
}
