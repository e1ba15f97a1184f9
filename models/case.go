package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses
const (
	CaseStatusPending             = "pending"
	CaseStatusVerified            = "verified"
	CaseStatusLawyerRequested     = "lawyer_requested"
	CaseStatusLawyerAssigned      = "lawyer_assigned"
	CaseStatusFilingRequested     = "filing_requested"
	CaseStatusUnderReview         = "under_review"
	CaseStatusApproved            = "approved"
	CaseStatusRejected            = "rejected"
	CaseStatusFiled               = "filed"
	CaseStatusSchedulingRequested = "scheduling_requested"
	CaseStatusHearingScheduled    = "hearing_scheduled"
	CaseStatusRescheduled         = "rescheduled"
	CaseStatusAdjourned           = "adjourned"
	CaseStatusClosed              = "closed"
)

var caseStatuses = map[string]bool{
	CaseStatusPending: true, CaseStatusVerified: true, CaseStatusLawyerRequested: true,
	CaseStatusLawyerAssigned: true, CaseStatusFilingRequested: true, CaseStatusUnderReview: true,
	CaseStatusApproved: true, CaseStatusRejected: true, CaseStatusFiled: true,
	CaseStatusSchedulingRequested: true, CaseStatusHearingScheduled: true,
	CaseStatusRescheduled: true, CaseStatusAdjourned: true, CaseStatusClosed: true,
}

// lawyerBoundStatuses are the statuses in which the case must carry a current lawyer
var lawyerBoundStatuses = map[string]bool{
	CaseStatusLawyerAssigned:      true,
	CaseStatusFilingRequested:     true,
	CaseStatusFiled:               true,
	CaseStatusSchedulingRequested: true,
	CaseStatusHearingScheduled:    true,
}

// ValidCaseStatus reports whether s belongs to the closed set of case statuses
func ValidCaseStatus(s string) bool {
	return caseStatuses[s]
}

// RequiresLawyer reports whether a case in status s must have a current lawyer
func RequiresLawyer(s string) bool {
	return lawyerBoundStatuses[s]
}

// LawyerBoundStatuses returns the statuses that require a current lawyer
func LawyerBoundStatuses() []string {
	return []string{
		CaseStatusLawyerAssigned,
		CaseStatusFilingRequested,
		CaseStatusFiled,
		CaseStatusSchedulingRequested,
		CaseStatusHearingScheduled,
	}
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	CaseNumber  string `json:"caseNumber" bson:"caseNumber"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	CaseType    string `json:"caseType" bson:"caseType"`
	District    string `json:"district" bson:"district"`

	Plaintiff Party          `json:"plaintiff" bson:"plaintiff"`
	Defendant Party          `json:"defendant" bson:"defendant"`
	Documents []CaseDocument `json:"documents" bson:"documents"`

	// UserID is the client who submitted the case
	UserID string `json:"userID" bson:"userID"`

	Status             string `json:"status" bson:"status"`
	VerificationStatus string `json:"verificationStatus" bson:"verificationStatus"`
	CurrentLawyer      string `json:"currentLawyer,omitempty" bson:"currentLawyer,omitempty"`

	CourtDetails       *CourtDetails       `json:"courtDetails,omitempty" bson:"courtDetails,omitempty"`
	DocumentRequest    *DocumentRequest    `json:"documentRequest,omitempty" bson:"documentRequest,omitempty"`
	HearingDetails     *HearingDetails     `json:"hearingDetails,omitempty" bson:"hearingDetails,omitempty"`
	AdjournmentDetails *AdjournmentDetails `json:"adjournmentDetails,omitempty" bson:"adjournmentDetails,omitempty"`
	CompletionDetails  *CompletionDetails  `json:"completionDetails,omitempty" bson:"completionDetails,omitempty"`

	// Audit trail
	History []CaseHistoryEntry `json:"history" bson:"history"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Party is a plaintiff or defendant on a case
type Party struct {
	Name     string `json:"name" bson:"name"`
	IDNumber string `json:"idNumber" bson:"idNumber"`
	Address  string `json:"address,omitempty" bson:"address,omitempty"`
	Phone    string `json:"phone,omitempty" bson:"phone,omitempty"`
}

// CaseDocument is the metadata of a document attached to a case. The file itself lives in external storage.
type CaseDocument struct {
	Name       string    `json:"name" bson:"name"`
	URL        string    `json:"url" bson:"url"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}

// CourtDetails is stamped once when the case is filed and never changes afterwards
type CourtDetails struct {
	FilingReference string    `json:"filingReference" bson:"filingReference"`
	CourtName       string    `json:"courtName,omitempty" bson:"courtName,omitempty"`
	FilingDate      time.Time `json:"filingDate" bson:"filingDate"`
	FiledBy         string    `json:"filedBy" bson:"filedBy"`
}

// DocumentRequest records the documents a lawyer asked the client for
type DocumentRequest struct {
	Documents   []string  `json:"documents" bson:"documents"`
	Message     string    `json:"message" bson:"message"`
	RequestedBy string    `json:"requestedBy" bson:"requestedBy"`
	RequestedAt time.Time `json:"requestedAt" bson:"requestedAt"`
}

// HearingDetails holds the court assigned hearing slot
type HearingDetails struct {
	Date        time.Time `json:"date" bson:"date"`
	Time        string    `json:"time" bson:"time"`
	Courtroom   string    `json:"courtroom" bson:"courtroom"`
	Judge       string    `json:"judge,omitempty" bson:"judge,omitempty"`
	ScheduledBy string    `json:"scheduledBy" bson:"scheduledBy"`
}

// AdjournmentDetails holds why and until when a hearing was adjourned
type AdjournmentDetails struct {
	Reason      string    `json:"reason" bson:"reason"`
	NextDate    time.Time `json:"nextDate,omitempty" bson:"nextDate,omitempty"`
	AdjournedBy string    `json:"adjournedBy" bson:"adjournedBy"`
	AdjournedAt time.Time `json:"adjournedAt" bson:"adjournedAt"`
}

// CompletionDetails holds the outcome of a closed case
type CompletionDetails struct {
	Outcome  string    `json:"outcome" bson:"outcome"`
	Notes    string    `json:"notes,omitempty" bson:"notes,omitempty"`
	ClosedBy string    `json:"closedBy" bson:"closedBy"`
	ClosedAt time.Time `json:"closedAt" bson:"closedAt"`
}

// CaseHistoryEntry records a single event in the case lifecycle
type CaseHistoryEntry struct {
	Action     string    `json:"action" bson:"action"` // "created", "status_changed", "reconciled", ...
	FromStatus string    `json:"fromStatus,omitempty" bson:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty" bson:"toStatus,omitempty"`
	UserID     string    `json:"userID" bson:"userID"`
	UserType   string    `json:"userType" bson:"userType"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

// CaseContent is the part of a case its owner may edit before filing
type CaseContent struct {
	Title       string
	Description string
	CaseType    string
	District    string
	Plaintiff   Party
	Defendant   Party
	Documents   []CaseDocument
}

// CaseUpdate is a partial update of a case. Nil fields are left untouched.
// An empty CurrentLawyer clears the field.
type CaseUpdate struct {
	Status             *string
	VerificationStatus *string
	CurrentLawyer      *string
	Content            *CaseContent
	AddDocuments       []CaseDocument
	CourtDetails       *CourtDetails
	DocumentRequest    *DocumentRequest
	HearingDetails     *HearingDetails
	AdjournmentDetails *AdjournmentDetails
	CompletionDetails  *CompletionDetails
	History            *CaseHistoryEntry
}

// CaseFilter narrows a case search. Zero values match everything.
type CaseFilter struct {
	// UserID matches cases owned by or currently assigned to the user
	UserID   string
	OwnerID  string
	LawyerID string
	Statuses []string
}

// StringPtr is a small helper for building CaseUpdate values
func StringPtr(s string) *string {
	return &s
}
