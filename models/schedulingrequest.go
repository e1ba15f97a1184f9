package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Scheduling request statuses
const (
	SchedulingRequested = "requested"
	SchedulingScheduled = "scheduled"
)

// SchedulingRequest holds the structure for the schedulingrequests collection in mongo.
// There is at most one per case, enforced by a unique index on caseId.
type SchedulingRequest struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	CaseID         string             `json:"caseId" bson:"caseId"`
	RequestedBy    string             `json:"requestedBy" bson:"requestedBy"`
	PreferredDates []time.Time        `json:"preferredDates,omitempty" bson:"preferredDates,omitempty"`
	Notes          string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Status         string             `json:"status" bson:"status"`
	HearingDate    *time.Time         `json:"hearingDate,omitempty" bson:"hearingDate,omitempty"`
	HearingTime    string             `json:"hearingTime,omitempty" bson:"hearingTime,omitempty"`
	Courtroom      string             `json:"courtroom,omitempty" bson:"courtroom,omitempty"`
	Judge          string             `json:"judge,omitempty" bson:"judge,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}
