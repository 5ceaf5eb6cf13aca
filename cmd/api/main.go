package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brightdoor/realty-concierge/cmd/mainconfig"
	"github.com/brightdoor/realty-concierge/internal/api/router"
	"github.com/brightdoor/realty-concierge/internal/appointments"
	appconfig "github.com/brightdoor/realty-concierge/internal/config"
	"github.com/brightdoor/realty-concierge/internal/conversation"
	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/internal/messaging"
	"github.com/brightdoor/realty-concierge/internal/notify"
	"github.com/brightdoor/realty-concierge/internal/observability/metrics"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting realty-concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create db pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Listing catalog, optionally fronted by redis.
	var catalog listings.Repository = listings.NewPostgresRepository(pool)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		catalog = listings.NewCachedRepository(catalog, redis.NewClient(opts), cfg.ListingCacheTTL, logger)
		logger.Info("listing cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ListingCacheTTL)
	}

	turnStore := conversation.NewStore(pool)
	leadRepo := leads.NewPostgresRepository(pool)
	apptStore := appointments.NewStore(pool)

	llm := conversation.NewOpenAIClient(conversation.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.LLMTimeout,
	}, logger)

	emailSender := buildEmailSender(ctx, cfg, logger)

	var twilioSender *messaging.TwilioSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		twilioSender = messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	var smsSender notify.SMSSender
	var outbound messaging.Sender
	if twilioSender != nil {
		smsSender = twilioSender
		outbound = twilioSender
	}

	var agentRecipients []string
	if cfg.AgentNotifyEmail != "" {
		agentRecipients = append(agentRecipients, cfg.AgentNotifyEmail)
	}
	notifier := notify.NewService(emailSender, smsSender, agentRecipients, logger)

	registry := prometheus.NewRegistry()
	convMetrics := metrics.NewConversationMetrics(registry)
	msgMetrics := metrics.NewMessagingMetrics(registry)

	exchange := conversation.NewExchangeService(catalog, turnStore, leadRepo, llm, logger,
		conversation.WithHistoryLimit(cfg.HistoryLimit),
		conversation.WithGeneration(cfg.LLMMaxTokens, cfg.LLMTemperature),
		conversation.WithNotifier(notifier),
		conversation.WithMetrics(convMetrics),
	)

	listingMap := parseListingMap(cfg.TwilioListingMapJSON, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(exchange, turnStore, logger),
		ListingsHandler:     listings.NewHandler(catalog, logger),
		LeadsHandler:        leads.NewHandler(leadRepo, logger),
		AppointmentsHandler: appointments.NewHandler(apptStore, logger),
		MessagingHandler:    messaging.NewHandler(cfg.TwilioWebhookSecret, exchange, outbound, listingMap, msgMetrics, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		MessageRateLimit:    2,
		MessageRateBurst:    10,
	}

	worker := appointments.NewReminderWorker(apptStore, catalog, notifier, cfg.ReminderInterval, cfg.ReminderWindow, logger)
	go worker.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("email provider: sendgrid", "from", cfg.SendGridFromEmail)
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to stub")
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, falling back to stub email", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			logger.Info("email provider: ses", "from", cfg.SESFromEmail)
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

func parseListingMap(raw string, logger *logging.Logger) map[string]string {
	if raw == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logger.Error("invalid TWILIO_LISTING_MAP_JSON, sms routing disabled", "error", err)
		return nil
	}
	return m
}
