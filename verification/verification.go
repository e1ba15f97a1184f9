// Package verification checks a case for completeness and records the verdict.
//
// The policy is deliberately permissive: issues are reported for every gap, but a case is
// only rejected when it has no documents, no description and no plaintiff id number at once.
package verification

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/apperrors"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

const (
	minDocuments         = 1
	minDescriptionLength = 3
	minPlaintiffIDLength = 2
)

// Result is the verdict of a single evaluation
type Result struct {
	Status string
	Issues []models.VerificationIssue
}

// Evaluate decides the verdict for a case. It has no side effects and always returns the
// same result for the same content.
func Evaluate(c models.CaseDetails) Result {
	var issues []models.VerificationIssue

	description := strings.TrimSpace(c.Description)
	plaintiffID := strings.TrimSpace(c.Plaintiff.IDNumber)

	if len(c.Documents) < minDocuments {
		issues = append(issues, models.VerificationIssue{
			Field:   "documents",
			Message: "At least one supporting document is required",
		})
	}
	if utf8.RuneCountInString(description) < minDescriptionLength {
		issues = append(issues, models.VerificationIssue{
			Field:   "description",
			Message: "Case description is too short",
		})
	}
	if utf8.RuneCountInString(plaintiffID) < minPlaintiffIDLength {
		issues = append(issues, models.VerificationIssue{
			Field:   "plaintiff.idNumber",
			Message: "Plaintiff identity number is missing or invalid",
		})
	}

	status := models.VerificationVerified
	if len(c.Documents) == 0 && description == "" && plaintiffID == "" {
		status = models.VerificationRejected
	}
	return Result{Status: status, Issues: issues}
}

// Engine runs verifications against stored cases
type Engine struct {
	CDB databases.CaseDatabase
	VDB databases.VerificationDatabase
}

// NewEngine returns a verification engine over the given stores
func NewEngine(cdb databases.CaseDatabase, vdb databases.VerificationDatabase) *Engine {
	return &Engine{CDB: cdb, VDB: vdb}
}

// Verify evaluates the case, stores a new verification record and copies the verdict onto the
// case's verificationStatus. Every call appends a record; the case status is not touched.
func (e *Engine) Verify(ctx context.Context, caseID, verifiedBy string) (*models.Verification, error) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, apperrors.NotFoundf("case %s not found", caseID)
	}
	legalCase, err := e.CDB.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFoundf("case %s not found", caseID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load case %s", caseID)
	}

	result := Evaluate(legalCase.Details)
	now := time.Now()
	record := models.Verification{
		ID:         primitive.NewObjectID(),
		CaseID:     caseID,
		Status:     result.Status,
		Issues:     result.Issues,
		VerifiedBy: verifiedBy,
		VerifiedAt: now,
	}
	if err := e.VDB.InsertOne(ctx, record); err != nil {
		return nil, errors.Wrapf(err, "failed to store verification for case %s", caseID)
	}

	err = e.CDB.UpdateOne(ctx, id, models.CaseUpdate{
		VerificationStatus: models.StringPtr(result.Status),
		History: &models.CaseHistoryEntry{
			Action:    "verification",
			UserID:    verifiedBy,
			UserType:  verifierType(verifiedBy),
			Notes:     "verification " + result.Status,
			Timestamp: now,
		},
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFoundf("case %s not found", caseID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update verification status of case %s", caseID)
	}

	zap.S().Infow("case verified",
		"caseId", caseID,
		"status", result.Status,
		"issues", len(result.Issues),
		"verifiedBy", verifiedBy)
	return &record, nil
}

func verifierType(verifiedBy string) string {
	if verifiedBy == models.UserTypeSystem {
		return models.UserTypeSystem
	}
	return models.UserTypeAdmin
}
