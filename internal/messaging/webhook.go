package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightdoor/realty-concierge/internal/conversation"
	"github.com/brightdoor/realty-concierge/internal/observability/metrics"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

var twilioTracer = otel.Tracer("realty.internal.messaging.twilio")

// Exchanger runs one conversational exchange for an inbound message.
type Exchanger interface {
	Exchange(ctx context.Context, req conversation.ExchangeRequest) (*conversation.ExchangeResult, error)
}

// Handler handles messaging webhook and outbound-send requests.
type Handler struct {
	authToken       string
	exchanger       Exchanger
	sender          Sender
	listingByNumber map[string]string
	metrics         *metrics.MessagingMetrics
	logger          *logging.Logger
}

// NewHandler creates a messaging handler. listingByNumber maps the inbound
// Twilio number (E.164) to the listing that number advertises.
func NewHandler(authToken string, exchanger Exchanger, sender Sender, listingByNumber map[string]string, m *metrics.MessagingMetrics, logger *logging.Logger) *Handler {
	if exchanger == nil {
		panic("messaging: exchanger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	normalized := make(map[string]string, len(listingByNumber))
	for number, listingID := range listingByNumber {
		if key := NormalizeE164(number); key != "" {
			normalized[key] = listingID
		}
	}
	return &Handler{
		authToken:       authToken,
		exchanger:       exchanger,
		sender:          sender,
		listingByNumber: normalized,
		metrics:         m,
		logger:          logger,
	}
}

// SessionIDForPhone derives the stable SMS session key for a visitor number.
func SessionIDForPhone(from string) string {
	return "sms:" + sanitizePhone(from)
}

// TwilioWebhook handles POST /messaging/twilio/webhook requests. The
// assistant's reply rides back to the visitor in the TwiML response.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature")
			h.metrics.ObserveInbound("unauthorized")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		h.metrics.ObserveInbound("bad_request")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	from := NormalizeE164(webhook.From)
	to := NormalizeE164(webhook.To)
	body := strings.TrimSpace(webhook.Body)
	span.SetAttributes(
		attribute.String("realty.twilio.message_sid", webhook.MessageSid),
		attribute.String("realty.twilio.from", from),
		attribute.String("realty.twilio.to", to),
	)

	if from == "" || body == "" {
		h.logger.Error("invalid twilio payload", "message_sid", webhook.MessageSid)
		h.metrics.ObserveInbound("bad_request")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	listingID, ok := h.listingByNumber[to]
	if !ok {
		h.logger.Error("no listing mapped to twilio number", "to", to)
		h.metrics.ObserveInbound("unknown_number")
		http.Error(w, "Unknown destination number", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("realty.listing_id", listingID))

	result, err := h.exchanger.Exchange(ctx, conversation.ExchangeRequest{
		Message:   body,
		ListingID: listingID,
		SessionID: SessionIDForPhone(from),
	})
	if err != nil {
		h.logger.Error("sms exchange failed", "error", err, "listing_id", listingID, "message_sid", webhook.MessageSid)
		h.metrics.ObserveInbound("exchange_error")
		// Twilio retries on 5xx; answer with a polite fallback instead.
		writeTwiML(w, "Sorry, I couldn't process that just now. Please try again in a moment.")
		return
	}

	h.logger.Info("twilio webhook handled",
		"listing_id", listingID,
		"message_sid", webhook.MessageSid,
		"lead_score", result.LeadScore,
	)
	h.metrics.ObserveInbound("ok")
	writeTwiML(w, result.Reply)
}

// AdminSendRequest is the payload for the agent-initiated outbound send.
type AdminSendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// AdminSend handles POST /admin/messages:send requests.
func (h *Handler) AdminSend(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "outbound messaging is not configured")
		return
	}

	var req AdminSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	to := NormalizeE164(req.To)
	if to == "" || strings.TrimSpace(req.Body) == "" {
		writeJSONError(w, http.StatusBadRequest, "to and body are required")
		return
	}

	if err := h.sender.SendSMS(r.Context(), to, req.Body); err != nil {
		h.logger.Error("admin sms send failed", "error", err, "to", to)
		h.metrics.ObserveOutbound("error")
		writeJSONError(w, http.StatusBadGateway, "failed to send message")
		return
	}

	h.metrics.ObserveOutbound("ok")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}

func writeTwiML(w http.ResponseWriter, message string) {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(message))

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response><Message>` + escaped.String() + `</Message></Response>`))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
