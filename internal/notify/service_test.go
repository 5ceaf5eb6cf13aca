package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brightdoor/realty-concierge/internal/appointments"
	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

type recordingEmailSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

type recordingSMSSender struct {
	to   string
	body string
	err  error
}

func (r *recordingSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if r.err != nil {
		return r.err
	}
	r.to = to
	r.body = body
	return nil
}

func qualifiedLead() *leads.Lead {
	return &leads.Lead{
		ID:            "L1",
		ListingID:     "S1",
		SessionID:     "SESS1",
		InterestLevel: leads.InterestMedium,
		Status:        leads.StatusQualified,
	}
}

func TestNotifyLeadQualifiedPrefersListingAgent(t *testing.T) {
	email := &recordingEmailSender{}
	svc := NewService(email, nil, []string{"desk@example.com"}, logging.Default())

	svc.NotifyLeadQualified(context.Background(), qualifiedLead(), &listings.Listing{
		ID:         "S1",
		Title:      "Sunny Craftsman",
		Address:    "12 Alder Ct",
		AgentEmail: "agent@example.com",
		AgentName:  "Jordan Lee",
	}, "I'd love to tour this")

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	msg := email.sent[0]
	if msg.To != "agent@example.com" {
		t.Errorf("expected listing agent recipient, got %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Sunny Craftsman") {
		t.Errorf("expected property in subject, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "I'd love to tour this") {
		t.Errorf("expected last message in body, got %q", msg.Body)
	}
}

func TestNotifyLeadQualifiedFallsBackToConfiguredRecipients(t *testing.T) {
	email := &recordingEmailSender{}
	svc := NewService(email, nil, []string{"desk@example.com", "broker@example.com"}, logging.Default())

	svc.NotifyLeadQualified(context.Background(), qualifiedLead(), nil, "contact me")

	if len(email.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(email.sent))
	}
	if email.sent[0].To != "desk@example.com" || email.sent[1].To != "broker@example.com" {
		t.Errorf("unexpected recipients %+v", email.sent)
	}
}

func TestNotifyLeadQualifiedSwallowsSendFailures(t *testing.T) {
	email := &recordingEmailSender{err: errors.New("smtp down")}
	svc := NewService(email, nil, []string{"desk@example.com"}, logging.Default())

	// Must not panic or propagate; the exchange already succeeded.
	svc.NotifyLeadQualified(context.Background(), qualifiedLead(), nil, "hi")
}

func TestNotifyLeadQualifiedNoRecipients(t *testing.T) {
	email := &recordingEmailSender{}
	svc := NewService(email, nil, nil, logging.Default())

	svc.NotifyLeadQualified(context.Background(), qualifiedLead(), nil, "hi")
	if len(email.sent) != 0 {
		t.Errorf("expected no emails without recipients, got %d", len(email.sent))
	}
}

func tourAppointment() *appointments.Appointment {
	return &appointments.Appointment{
		ID:           "A1",
		ListingID:    "S1",
		SessionID:    "SESS1",
		VisitorName:  "Sam Rivera",
		VisitorPhone: "+15557654321",
		VisitorEmail: "sam@example.com",
		TourAt:       time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC),
	}
}

func TestNotifyTourReminderPrefersSMS(t *testing.T) {
	email := &recordingEmailSender{}
	sms := &recordingSMSSender{}
	svc := NewService(email, sms, nil, logging.Default())

	if err := svc.NotifyTourReminder(context.Background(), tourAppointment(), &listings.Listing{
		Title:   "Sunny Craftsman",
		Address: "12 Alder Ct",
	}); err != nil {
		t.Fatalf("reminder: %v", err)
	}

	if sms.to != "+15557654321" {
		t.Errorf("expected sms to visitor phone, got %q", sms.to)
	}
	if !strings.Contains(sms.body, "Sam") || !strings.Contains(sms.body, "Sunny Craftsman") {
		t.Errorf("unexpected sms body %q", sms.body)
	}
	if len(email.sent) != 0 {
		t.Error("expected no email when sms succeeds")
	}
}

func TestNotifyTourReminderEmailFallback(t *testing.T) {
	email := &recordingEmailSender{}
	svc := NewService(email, nil, nil, logging.Default())

	appt := tourAppointment()
	appt.VisitorPhone = ""
	if err := svc.NotifyTourReminder(context.Background(), appt, nil); err != nil {
		t.Fatalf("reminder: %v", err)
	}

	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if email.sent[0].To != "sam@example.com" {
		t.Errorf("unexpected recipient %q", email.sent[0].To)
	}
}

func TestNotifyTourReminderPropagatesSendError(t *testing.T) {
	sms := &recordingSMSSender{err: errors.New("twilio down")}
	svc := NewService(nil, sms, nil, logging.Default())

	if err := svc.NotifyTourReminder(context.Background(), tourAppointment(), nil); err == nil {
		t.Error("expected error so the worker can retry next pass")
	}
}

func TestNotifyTourReminderNoContact(t *testing.T) {
	svc := NewService(&recordingEmailSender{}, &recordingSMSSender{}, nil, logging.Default())

	appt := tourAppointment()
	appt.VisitorPhone = ""
	appt.VisitorEmail = ""
	if err := svc.NotifyTourReminder(context.Background(), appt, nil); err != nil {
		t.Errorf("unreachable visitor should not error, got %v", err)
	}
}
