package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/legal-case-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindAvailableLawyers returns lawyers accepting new cases, limited to a district when one is given
	FindAvailableLawyers(ctx context.Context, district string) ([]models.User, error)
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByID(ctx context.Context, id string) (*models.User, error) {
	// user ids are stored as ObjectIDs when they parse as one
	var filter bson.M
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": bson.M{"$in": []interface{}{oid, id}}}
	} else {
		filter = bson.M{"_id": id}
	}
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, filter).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userDatabase) FindAvailableLawyers(ctx context.Context, district string) ([]models.User, error) {
	filter := bson.M{
		"user.userType":  models.UserTypeLawyer,
		"user.available": true,
	}
	if district != "" {
		filter["user.district"] = district
	}
	var users []models.User
	curr, err := u.db.Collection(userName).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}
