package models

import "time"

// SchedulerLock holds the structure for the schedulerlocks collection in mongo
type SchedulerLock struct {
	JobName   string    `json:"_id" bson:"_id"`
	Owner     string    `json:"owner" bson:"owner"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}
