package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// TranscriptReader reads a session transcript for the widget.
type TranscriptReader interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// Handler exposes the exchange operation and transcripts over HTTP.
type Handler struct {
	service    *ExchangeService
	transcript TranscriptReader
	logger     *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service *ExchangeService, transcript TranscriptReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:    service,
		transcript: transcript,
		logger:     logger,
	}
}

// MessageResponse is the success payload of the exchange operation.
type MessageResponse struct {
	Reply     string `json:"reply"`
	LeadScore int    `json:"leadScore"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Message handles POST /conversations/message requests
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		ListingID string `json:"listingId"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" || req.ListingID == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "message, listingId and sessionId are required")
		return
	}

	result, err := h.service.Exchange(r.Context(), ExchangeRequest{
		Message:   req.Message,
		ListingID: req.ListingID,
		SessionID: req.SessionID,
	})
	if err != nil {
		h.logger.Error("exchange failed", "error", err, "session_id", req.SessionID, "listing_id", req.ListingID)
		switch {
		case errors.Is(err, ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "message, listingId and sessionId are required")
		case errors.Is(err, ErrUpstreamGeneration):
			writeError(w, http.StatusBadGateway, "assistant is unavailable, please try again")
		default:
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MessageResponse{
		Reply:     result.Reply,
		LeadScore: result.LeadScore,
	})
}

// TranscriptResponse is the transcript listing payload.
type TranscriptResponse struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}

// GetTranscript handles GET /conversations/{sessionID}/turns requests
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	turns, err := h.transcript.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("transcript load failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if turns == nil {
		turns = []Turn{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TranscriptResponse{
		SessionID: sessionID,
		Turns:     turns,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
