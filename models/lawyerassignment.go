package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment statuses
const (
	AssignmentPending   = "pending"
	AssignmentAccepted  = "accepted"
	AssignmentRejected  = "rejected"
	AssignmentWithdrawn = "withdrawn"
)

// Assignment provenance
const (
	AssignedBySystem = "system"
	AssignedByClient = "client"
	AssignedByAdmin  = "admin"
)

// LawyerAssignment holds the structure for the lawyerassignments collection in mongo.
// Records are never deleted; a reassignment creates a new record.
type LawyerAssignment struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID         string             `json:"caseId" bson:"caseId"`
	LawyerID       string             `json:"lawyerId" bson:"lawyerId"`
	AssignedBy     string             `json:"assignedBy" bson:"assignedBy"` // "system", "client", "admin"
	AssignedByUser string             `json:"assignedByUser,omitempty" bson:"assignedByUser,omitempty"`
	Status         string             `json:"status" bson:"status"`
	Message        string             `json:"message,omitempty" bson:"message,omitempty"`
	ResponseDate   *time.Time         `json:"responseDate,omitempty" bson:"responseDate,omitempty"`
	LawyerResponse string             `json:"lawyerResponse,omitempty" bson:"lawyerResponse,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// HumanOriginated reports whether the assignment was made by a client or an admin
func (a LawyerAssignment) HumanOriginated() bool {
	return a.AssignedBy == AssignedByClient || a.AssignedBy == AssignedByAdmin
}
