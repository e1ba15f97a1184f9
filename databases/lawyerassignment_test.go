package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

func TestLawyerAssignmentDatabase_FindLatestByCase(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srNone := &mocks.SingleResultHelper{}
	srFound := &mocks.SingleResultHelper{}

	srNone.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srFound.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.LawyerAssignment)
		(*arg).LawyerID = "lawyer-1"
		(*arg).Status = models.AssignmentAccepted
	})

	collectionHelper.On("FindOne", context.Background(), bson.M{"caseId": "c1", "status": models.AssignmentAccepted}, mock.Anything).Return(srFound)
	collectionHelper.On("FindOne", context.Background(), bson.M{"caseId": "c2"}, mock.Anything).Return(srNone)
	dbHelper.On("Collection", "lawyerassignments").Return(collectionHelper)

	assignmentDB := databases.NewLawyerAssignmentDatabase(dbHelper)

	a, err := assignmentDB.FindLatestByCase(context.Background(), "c1", models.AssignmentAccepted)
	assert.NoError(t, err)
	assert.Equal(t, "lawyer-1", a.LawyerID)

	a, err = assignmentDB.FindLatestByCase(context.Background(), "c2", "")
	assert.Nil(t, a)
	assert.Equal(t, mongo.ErrNoDocuments, err)
}

func TestLawyerAssignmentDatabase_CountByLawyer(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", context.Background(), bson.M{
		"lawyerId": "lawyer-1",
		"status":   bson.M{"$in": []string{models.AssignmentPending, models.AssignmentAccepted}},
	}).Return(int64(3), nil)
	dbHelper.On("Collection", "lawyerassignments").Return(collectionHelper)

	n, err := databases.NewLawyerAssignmentDatabase(dbHelper).
		CountByLawyer(context.Background(), "lawyer-1", models.AssignmentPending, models.AssignmentAccepted)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
