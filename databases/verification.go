package databases

// go generate: mockery --name VerificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/legal-case-api/models"
)

const verificationName = "verifications"

// VerificationDatabase contains the methods to use with the verification database
type VerificationDatabase interface {
	InsertOne(ctx context.Context, v models.Verification) error
	FindByCase(ctx context.Context, caseID string) ([]models.Verification, error)
	FindLatestByCase(ctx context.Context, caseID string) (*models.Verification, error)
}

type verificationDatabase struct {
	db DatabaseHelper
}

// NewVerificationDatabase initializes a new instance of verification database with the provided db connection
func NewVerificationDatabase(db DatabaseHelper) VerificationDatabase {
	return &verificationDatabase{
		db: db,
	}
}

func (v *verificationDatabase) InsertOne(ctx context.Context, verification models.Verification) error {
	_, err := v.db.Collection(verificationName).InsertOne(ctx, verification)
	return err
}

func (v *verificationDatabase) FindByCase(ctx context.Context, caseID string) ([]models.Verification, error) {
	var verifications []models.Verification
	curr, err := v.db.Collection(verificationName).Find(ctx, bson.M{"caseId": caseID}, &options.FindOptions{
		Sort: bson.M{"verifiedAt": -1},
	})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &verifications)
	if err != nil {
		return nil, err
	}
	return verifications, nil
}

func (v *verificationDatabase) FindLatestByCase(ctx context.Context, caseID string) (*models.Verification, error) {
	verification := &models.Verification{}
	err := v.db.Collection(verificationName).FindOne(ctx, bson.M{"caseId": caseID},
		options.FindOne().SetSort(bson.M{"verifiedAt": -1}),
	).Decode(&verification)
	if err != nil {
		return nil, err
	}
	return verification, nil
}
