package leads

import (
	"strings"
	"time"
)

// InterestLevel buckets the numeric lead score.
type InterestLevel string

const (
	InterestLow    InterestLevel = "low"
	InterestMedium InterestLevel = "medium"
	InterestHigh   InterestLevel = "high"
)

// Status marks whether a session has shown a qualifying signal.
type Status string

const (
	StatusUnqualified Status = "unqualified"
	StatusQualified   Status = "qualified"
)

// Lead is the per-session interest record. At most one row exists per
// session; qualifying exchanges overwrite the mutable fields.
type Lead struct {
	ID            string        `json:"id"`
	ListingID     string        `json:"listing_id"`
	SessionID     string        `json:"session_id"`
	InterestLevel InterestLevel `json:"interest_level"`
	Status        Status        `json:"status"`
	Notes         string        `json:"notes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// UpsertLeadRequest carries the fields written on each qualification.
type UpsertLeadRequest struct {
	ListingID     string        `json:"listing_id"`
	SessionID     string        `json:"session_id"`
	InterestLevel InterestLevel `json:"interest_level"`
	Status        Status        `json:"status"`
	Notes         string        `json:"notes"`
}

// Validate validates the upsert request
func (r *UpsertLeadRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return ErrMissingSessionID
	}
	if strings.TrimSpace(r.ListingID) == "" {
		return ErrMissingListingID
	}
	if r.InterestLevel == "" {
		r.InterestLevel = InterestLow
	}
	if r.Status == "" {
		r.Status = StatusUnqualified
	}
	return nil
}

// InterestForScore maps a 0-100 lead score onto the interest enum.
func InterestForScore(score int) InterestLevel {
	switch {
	case score >= 50:
		return InterestHigh
	case score >= 25:
		return InterestMedium
	default:
		return InterestLow
	}
}
