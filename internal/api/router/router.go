package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightdoor/realty-concierge/internal/appointments"
	"github.com/brightdoor/realty-concierge/internal/conversation"
	httpmiddleware "github.com/brightdoor/realty-concierge/internal/http/middleware"
	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/internal/messaging"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	ListingsHandler     *listings.Handler
	LeadsHandler        *leads.Handler
	AppointmentsHandler *appointments.Handler
	MessagingHandler    *messaging.Handler
	MetricsHandler      http.Handler
	AdminAuthSecret     string
	CORSAllowedOrigins  []string

	// Requests/sec and burst per visitor IP on the message endpoint.
	// Zero disables rate limiting.
	MessageRateLimit float64
	MessageRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (chat widget, webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.ConversationHandler != nil {
			messageRoute := public.With()
			if cfg.MessageRateLimit > 0 {
				messageRoute = public.With(httpmiddleware.RateLimit(cfg.MessageRateLimit, cfg.MessageRateBurst))
			}
			messageRoute.Post("/conversations/message", cfg.ConversationHandler.Message)
			public.Get("/conversations/{sessionID}/turns", cfg.ConversationHandler.GetTranscript)
		}
		if cfg.ListingsHandler != nil {
			public.Get("/listings/{listingID}", cfg.ListingsHandler.GetListing)
		}
		if cfg.AppointmentsHandler != nil {
			public.Post("/appointments", cfg.AppointmentsHandler.Create)
		}
		if cfg.MessagingHandler != nil {
			public.Route("/messaging", func(r chi.Router) {
				r.Post("/twilio/webhook", cfg.MessagingHandler.TwilioWebhook)
			})
		}
	})

	// Admin routes (agent dashboard, protected by HMAC JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			if cfg.LeadsHandler != nil {
				admin.Get("/leads", cfg.LeadsHandler.ListLeads)
				admin.Get("/leads/{sessionID}", cfg.LeadsHandler.GetLead)
			}
			if cfg.MessagingHandler != nil {
				admin.Post("/messages:send", cfg.MessagingHandler.AdminSend)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
