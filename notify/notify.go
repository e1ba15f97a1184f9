// Package notify delivers fire-and-forget case notifications by email and websocket.
package notify

import (
	"context"
)

// Event types
const (
	EventCaseFiled          = "case_filed"
	EventDocumentsRequested = "documents_requested"
	EventAssignmentProposed = "assignment_proposed"
	EventHearingScheduled   = "hearing_scheduled"
)

// Recipient is a user to notify
type Recipient struct {
	UserID   string
	UserType string
}

// Event is a notification about a case
type Event struct {
	Type       string                 `json:"type"`
	CaseID     string                 `json:"caseId"`
	CaseNumber string                 `json:"caseNumber"`
	CaseTitle  string                 `json:"caseTitle"`
	Recipients []Recipient            `json:"-"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Notifier delivers an event. Implementations log their own failures; a notification
// never affects the state change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Multi fans an event out to every notifier
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}

// Nop drops every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
