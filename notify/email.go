package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/identity"
	templates "github.com/linesmerrill/legal-case-api/templates/html"
)

const senderName = "Legal Case Desk"

// sendFunc delivers a message and reports the provider's status code
type sendFunc func(msg *mail.SGMailV3) (int, string, error)

// EmailNotifier sends case emails through SendGrid
type EmailNotifier struct {
	resolver identity.Resolver
	from     string
	send     sendFunc
}

// NewEmailNotifier returns a notifier that mails recipients resolved through resolver.
// An empty API key disables sending.
func NewEmailNotifier(apiKey, from string, resolver identity.Resolver) *EmailNotifier {
	n := &EmailNotifier{resolver: resolver, from: from}
	if apiKey != "" {
		client := sendgrid.NewSendClient(apiKey)
		n.send = func(msg *mail.SGMailV3) (int, string, error) {
			resp, err := client.Send(msg)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		}
	}
	return n
}

func (n *EmailNotifier) Notify(ctx context.Context, e Event) {
	if n.send == nil {
		zap.S().Debugw("email disabled, skipping notification", "event", e.Type, "caseId", e.CaseID)
		return
	}
	for _, r := range e.Recipients {
		who, err := n.resolver.Resolve(ctx, r.UserID, r.UserType)
		if err != nil {
			zap.S().Warnw("cannot resolve notification recipient", "userId", r.UserID, "error", err)
			continue
		}
		if who.Email == "" {
			zap.S().Warnw("recipient has no email, skipping notification", "userId", r.UserID)
			continue
		}
		email, ok := renderEmail(e, who.Name)
		if !ok {
			return
		}
		if err := n.deliver(who.Email, who.Name, email); err != nil {
			zap.S().Errorw("failed to send case email", "error", err, "event", e.Type, "caseId", e.CaseID, "to", who.Email)
		}
	}
}

func (n *EmailNotifier) deliver(toEmail, toName string, email templates.Email) error {
	from := mail.NewEmail(senderName, n.from)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, email.Subject, to, email.PlainText, email.HTML)
	status, body, err := n.send(message)
	if err != nil {
		return err
	}
	if status >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", status, "body", body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", status)
	}
	zap.S().Infow("email sent successfully", "to", toEmail, "subject", email.Subject)
	return nil
}

func renderEmail(e Event, name string) (templates.Email, bool) {
	d := templates.CaseEmailData{
		RecipientName: name,
		CaseNumber:    e.CaseNumber,
		CaseTitle:     e.CaseTitle,
		Message:       stringData(e, "message"),
		Reference:     stringData(e, "filingReference"),
		Courtroom:     stringData(e, "courtroom"),
	}
	switch e.Type {
	case EventCaseFiled:
		return templates.RenderCaseFiledEmail(d), true
	case EventDocumentsRequested:
		if docs, ok := e.Data["documents"].([]string); ok {
			d.Documents = docs
		}
		return templates.RenderDocumentsRequestedEmail(d), true
	case EventAssignmentProposed:
		return templates.RenderAssignmentProposedEmail(d), true
	case EventHearingScheduled:
		when := stringData(e, "time")
		if date, ok := e.Data["date"].(time.Time); ok {
			when = strings.TrimSpace(date.Format("2 Jan 2006") + " " + when)
		}
		d.When = when
		return templates.RenderHearingScheduledEmail(d), true
	}
	return templates.Email{}, false
}

func stringData(e Event, key string) string {
	s, _ := e.Data[key].(string)
	return s
}
