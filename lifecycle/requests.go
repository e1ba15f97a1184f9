package lifecycle

import (
	"time"

	"github.com/linesmerrill/legal-case-api/models"
)

// PartyInput is a plaintiff or defendant as submitted
type PartyInput struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	IDNumber string `json:"idNumber" validate:"max=50"`
	Address  string `json:"address" validate:"max=500"`
	Phone    string `json:"phone" validate:"max=30"`
}

// DocumentInput is the metadata of an uploaded document
type DocumentInput struct {
	Name string `json:"name" validate:"notblank,max=200"`
	URL  string `json:"url" validate:"required,url"`
}

// CaseInput creates or replaces the owner-editable content of a case.
// Description and plaintiff id number may be empty; completeness is judged by verification.
type CaseInput struct {
	Title       string          `json:"title" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=10000"`
	CaseType    string          `json:"caseType" validate:"notblank,max=100"`
	District    string          `json:"district" validate:"notblank,max=100"`
	Plaintiff   PartyInput      `json:"plaintiff"`
	Defendant   PartyInput      `json:"defendant"`
	Documents   []DocumentInput `json:"documents" validate:"omitempty,max=50,dive"`
}

// AssignmentInput proposes a lawyer for a case
type AssignmentInput struct {
	LawyerID string `json:"lawyerId" validate:"notblank"`
	Message  string `json:"message" validate:"max=2000"`
}

// AssignmentResponseInput is a lawyer's answer to a proposal
type AssignmentResponseInput struct {
	Accept   bool   `json:"accept"`
	Response string `json:"response" validate:"max=2000"`
}

// FilingInput confirms that the case was filed with the court
type FilingInput struct {
	FilingReference string `json:"filingReference" validate:"notblank,max=100"`
	CourtName       string `json:"courtName" validate:"max=200"`
}

// SchedulingInput asks the court for a hearing
type SchedulingInput struct {
	PreferredDates []time.Time `json:"preferredDates" validate:"max=10"`
	Notes          string      `json:"notes" validate:"max=2000"`
}

// HearingInput is a hearing slot set by the court
type HearingInput struct {
	Date      time.Time `json:"date" validate:"required"`
	Time      string    `json:"time" validate:"notblank,max=20"`
	Courtroom string    `json:"courtroom" validate:"notblank,max=50"`
	Judge     string    `json:"judge" validate:"max=200"`
}

// DocumentRequestInput lists documents a lawyer needs from the client
type DocumentRequestInput struct {
	Documents []string `json:"documents" validate:"min=1,max=20,dive,notblank"`
	Message   string   `json:"message" validate:"max=2000"`
}

// SubmitDocumentsInput answers a document request
type SubmitDocumentsInput struct {
	Documents []DocumentInput `json:"documents" validate:"min=1,max=50,dive"`
}

// AdjournInput adjourns a hearing
type AdjournInput struct {
	Reason   string     `json:"reason" validate:"notblank,max=2000"`
	NextDate *time.Time `json:"nextDate"`
}

// CloseInput closes a case with its outcome
type CloseInput struct {
	Outcome string `json:"outcome" validate:"notblank,max=200"`
	Notes   string `json:"notes" validate:"max=5000"`
}

// StatusInput is an administrative status override
type StatusInput struct {
	Status string `json:"status" validate:"required,casestatus"`
	Notes  string `json:"notes" validate:"max=2000"`
}

func (p PartyInput) party() models.Party {
	return models.Party{Name: p.Name, IDNumber: p.IDNumber, Address: p.Address, Phone: p.Phone}
}

func documents(in []DocumentInput, at time.Time) []models.CaseDocument {
	out := make([]models.CaseDocument, 0, len(in))
	for _, d := range in {
		out = append(out, models.CaseDocument{Name: d.Name, URL: d.URL, UploadedAt: at})
	}
	return out
}

func (in CaseInput) content(at time.Time) models.CaseContent {
	return models.CaseContent{
		Title:       in.Title,
		Description: in.Description,
		CaseType:    in.CaseType,
		District:    in.District,
		Plaintiff:   in.Plaintiff.party(),
		Defendant:   in.Defendant.party(),
		Documents:   documents(in.Documents, at),
	}
}
