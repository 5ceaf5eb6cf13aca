package appointments

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingListingID = errors.New("appointments: listing_id is required")
	ErrMissingSessionID = errors.New("appointments: session_id is required")
	ErrMissingName      = errors.New("appointments: visitor name is required")
	ErrMissingContact   = errors.New("appointments: phone or email is required")
	ErrInvalidTourTime  = errors.New("appointments: tour_at must be in the future")
)

// Appointment is a scheduled property tour.
type Appointment struct {
	ID             string     `json:"id"`
	ListingID      string     `json:"listing_id"`
	SessionID      string     `json:"session_id"`
	VisitorName    string     `json:"visitor_name"`
	VisitorPhone   string     `json:"visitor_phone,omitempty"`
	VisitorEmail   string     `json:"visitor_email,omitempty"`
	TourAt         time.Time  `json:"tour_at"`
	Notes          string     `json:"notes,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateAppointmentRequest carries the fields for booking a tour.
type CreateAppointmentRequest struct {
	ListingID    string    `json:"listingId"`
	SessionID    string    `json:"sessionId"`
	VisitorName  string    `json:"name"`
	VisitorPhone string    `json:"phone"`
	VisitorEmail string    `json:"email"`
	TourAt       time.Time `json:"tourAt"`
	Notes        string    `json:"notes"`
}

// Validate validates the create request
func (r *CreateAppointmentRequest) Validate() error {
	if strings.TrimSpace(r.ListingID) == "" {
		return ErrMissingListingID
	}
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrMissingSessionID
	}
	if strings.TrimSpace(r.VisitorName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.VisitorPhone) == "" && strings.TrimSpace(r.VisitorEmail) == "" {
		return ErrMissingContact
	}
	if r.TourAt.IsZero() || r.TourAt.Before(time.Now()) {
		return ErrInvalidTourTime
	}
	return nil
}
