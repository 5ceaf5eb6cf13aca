package leads

import "errors"

var (
	// ErrMissingSessionID is returned when the session identifier is absent
	ErrMissingSessionID = errors.New("session id is required")

	// ErrMissingListingID is returned when the listing identifier is absent
	ErrMissingListingID = errors.New("listing id is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
