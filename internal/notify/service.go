package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightdoor/realty-concierge/internal/appointments"
	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// SMSSender sends SMS messages to visitors.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service sends agent and visitor notifications. All sends are best-effort;
// callers in the exchange path must not fail on notification errors.
type Service struct {
	email      EmailSender
	sms        SMSSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. recipients are the fallback
// agent inboxes used when a listing has no agent email of its own.
func NewService(email EmailSender, sms SMSSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:      email,
		sms:        sms,
		recipients: recipients,
		logger:     logger,
	}
}

// NotifyLeadQualified emails the listing agent when a session qualifies.
// Failures are logged, never returned: the exchange already succeeded.
func (s *Service) NotifyLeadQualified(ctx context.Context, lead *leads.Lead, listing *listings.Listing, lastMessage string) {
	if s.email == nil || lead == nil {
		return
	}

	recipients := s.recipients
	var agentName, propertyLabel string
	if listing != nil {
		agentName = listing.AgentName
		propertyLabel = listing.Title
		if listing.Address != "" {
			propertyLabel = fmt.Sprintf("%s (%s)", listing.Title, listing.Address)
		}
		if listing.AgentEmail != "" {
			recipients = []string{listing.AgentEmail}
		}
	}
	if propertyLabel == "" {
		propertyLabel = "listing " + lead.ListingID
	}
	if len(recipients) == 0 {
		s.logger.Debug("no agent recipients configured, skipping lead notification", "session_id", lead.SessionID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	subject := fmt.Sprintf("New qualified lead — %s", propertyLabel)
	body := fmt.Sprintf(`A site visitor just qualified as a lead.

Property: %s
Session: %s
Interest: %s
Last message: %q

Open the leads dashboard to follow up while they're still on the site.

— Realty Concierge`, propertyLabel, lead.SessionID, lead.InterestLevel, lastMessage)

	for _, recipient := range recipients {
		msg := EmailMessage{
			To:      recipient,
			ToName:  agentName,
			Subject: subject,
			Body:    body,
		}
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("lead notification failed", "error", err, "to", recipient, "session_id", lead.SessionID)
			continue
		}
		s.logger.Info("lead notification sent", "to", recipient, "session_id", lead.SessionID, "interest_level", lead.InterestLevel)
	}
}

// NotifyTourReminder reminds a visitor about an upcoming tour, by SMS when a
// phone number is on file, otherwise by email.
func (s *Service) NotifyTourReminder(ctx context.Context, appt *appointments.Appointment, listing *listings.Listing) error {
	if appt == nil {
		return nil
	}

	propertyLabel := "the property"
	if listing != nil {
		propertyLabel = listing.Title
		if listing.Address != "" {
			propertyLabel = fmt.Sprintf("%s at %s", listing.Title, listing.Address)
		}
	}
	when := appt.TourAt.Format("Monday, January 2 at 3:04 PM")

	if s.sms != nil && strings.TrimSpace(appt.VisitorPhone) != "" {
		body := fmt.Sprintf("Hi %s, a reminder about your tour of %s on %s. Reply here if you need to reschedule.",
			firstName(appt.VisitorName), propertyLabel, when)
		if err := s.sms.SendSMS(ctx, appt.VisitorPhone, body); err != nil {
			return fmt.Errorf("notify: reminder sms: %w", err)
		}
		return nil
	}

	if s.email != nil && strings.TrimSpace(appt.VisitorEmail) != "" {
		msg := EmailMessage{
			To:      appt.VisitorEmail,
			ToName:  appt.VisitorName,
			Subject: fmt.Sprintf("Tour reminder — %s", when),
			Body: fmt.Sprintf(`Hi %s,

This is a reminder about your upcoming tour of %s on %s.

If you need to reschedule, just reply to this email.

— Realty Concierge`, firstName(appt.VisitorName), propertyLabel, when),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			return fmt.Errorf("notify: reminder email: %w", err)
		}
		return nil
	}

	s.logger.Warn("appointment has no reachable contact", "appointment_id", appt.ID)
	return nil
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
