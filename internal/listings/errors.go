package listings

import "errors"

// ErrListingNotFound is returned when a listing is not in the catalog.
var ErrListingNotFound = errors.New("listing not found")
