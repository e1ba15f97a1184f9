package templates

import (
	"fmt"
	"strings"
)

// CaseEmailData holds the values shown in case emails
type CaseEmailData struct {
	RecipientName string
	CaseNumber    string
	CaseTitle     string
	// Documents lists requested documents
	Documents []string
	Message   string
	// When is a preformatted hearing date and time
	When      string
	Courtroom string
	Reference string
}

// Email is a rendered message
type Email struct {
	Subject   string
	HTML      string
	PlainText string
}

func render(subject, body string) Email {
	return Email{Subject: subject, HTML: RenderGenericEmail(subject, body), PlainText: body}
}

// RenderCaseFiledEmail tells the client their case was filed with the court
func RenderCaseFiledEmail(d CaseEmailData) Email {
	subject := fmt.Sprintf("Case %s has been filed", d.CaseNumber)
	body := fmt.Sprintf("Hi %s,\n\nYour case \"%s\" (%s) has been filed with the court.\nFiling reference: %s\n\nYou can no longer edit the case details.",
		d.RecipientName, d.CaseTitle, d.CaseNumber, d.Reference)
	return render(subject, body)
}

// RenderDocumentsRequestedEmail asks the client for more documents
func RenderDocumentsRequestedEmail(d CaseEmailData) Email {
	subject := fmt.Sprintf("Documents requested for case %s", d.CaseNumber)
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour lawyer has requested additional documents for \"%s\" (%s):\n", d.RecipientName, d.CaseTitle, d.CaseNumber)
	for _, doc := range d.Documents {
		fmt.Fprintf(&b, "- %s\n", doc)
	}
	if d.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Message)
	}
	return render(subject, b.String())
}

// RenderAssignmentProposedEmail tells a lawyer a case was proposed to them
func RenderAssignmentProposedEmail(d CaseEmailData) Email {
	subject := fmt.Sprintf("New case proposal: %s", d.CaseNumber)
	body := fmt.Sprintf("Hi %s,\n\nThe case \"%s\" (%s) has been proposed to you. Please accept or decline it.",
		d.RecipientName, d.CaseTitle, d.CaseNumber)
	if d.Message != "" {
		body += "\n\n" + d.Message
	}
	return render(subject, body)
}

// RenderHearingScheduledEmail announces a hearing date
func RenderHearingScheduledEmail(d CaseEmailData) Email {
	subject := fmt.Sprintf("Hearing scheduled for case %s", d.CaseNumber)
	body := fmt.Sprintf("Hi %s,\n\nA hearing for \"%s\" (%s) is scheduled on %s in courtroom %s.",
		d.RecipientName, d.CaseTitle, d.CaseNumber, d.When, d.Courtroom)
	return render(subject, body)
}
