package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// Creator books appointments; satisfied by *Store.
type Creator interface {
	Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error)
}

// Handler exposes tour booking over HTTP.
type Handler struct {
	store  Creator
	logger *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(store Creator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Create handles POST /appointments requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, err := h.store.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("appointment create failed", "error", err, "listing_id", req.ListingID)
		writeError(w, http.StatusInternalServerError, "failed to book tour")
		return
	}

	h.logger.Info("tour booked", "appointment_id", appt.ID, "listing_id", appt.ListingID, "tour_at", appt.TourAt)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appt)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingListingID) ||
		errors.Is(err, ErrMissingSessionID) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrInvalidTourTime)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
