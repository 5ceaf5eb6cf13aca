package listings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// Handler handles HTTP requests for the listing catalog
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new listings handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// GetListing handles GET /listings/{listingID} requests
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "listingID")
	if id == "" {
		http.Error(w, "missing listing id", http.StatusBadRequest)
		return
	}

	l, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			http.Error(w, "listing not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load listing", "error", err, "listing_id", id)
		http.Error(w, "failed to load listing", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(l)
}
