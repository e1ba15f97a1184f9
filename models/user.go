package models

// User types
const (
	UserTypeClient = "client"
	UserTypeLawyer = "lawyer"
	UserTypeAdmin  = "admin"
	UserTypeCourt  = "court"
	UserTypeSystem = "system"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Name            string   `json:"name" bson:"name"`
	Email           string   `json:"email" bson:"email"`
	UserType        string   `json:"userType" bson:"userType"`
	District        string   `json:"district,omitempty" bson:"district,omitempty"`
	Specializations []string `json:"specializations,omitempty" bson:"specializations,omitempty"`
	// Available is only meaningful for lawyers
	Available bool        `json:"available" bson:"available"`
	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt" bson:"updatedAt"`
}
