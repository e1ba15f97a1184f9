package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Verification statuses, shared by Verification.Status and CaseDetails.VerificationStatus
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Verification holds the structure for the verifications collection in mongo.
// Each verification attempt creates a new record.
type Verification struct {
	ID         primitive.ObjectID  `json:"_id" bson:"_id"`
	CaseID     string              `json:"caseId" bson:"caseId"`
	Status     string              `json:"status" bson:"status"`
	Issues     []VerificationIssue `json:"issues" bson:"issues"`
	VerifiedBy string              `json:"verifiedBy" bson:"verifiedBy"`
	VerifiedAt time.Time           `json:"verifiedAt" bson:"verifiedAt"`
}

// VerificationIssue is a single completeness problem found on a case
type VerificationIssue struct {
	Field    string `json:"field" bson:"field"`
	Message  string `json:"message" bson:"message"`
	Resolved bool   `json:"resolved" bson:"resolved"`
}
