package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/internal/observability/metrics"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

const (
	defaultHistoryLimit = 5
	maxNotesLen         = 280
)

// ListingCatalog reads property facts.
type ListingCatalog interface {
	GetByID(ctx context.Context, id string) (*listings.Listing, error)
}

// TurnStore persists and reads conversation turns.
type TurnStore interface {
	AppendTurn(ctx context.Context, turn Turn) (*Turn, error)
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// LeadWriter upserts the per-session lead record.
type LeadWriter interface {
	Upsert(ctx context.Context, req *leads.UpsertLeadRequest) (*leads.Lead, error)
}

// QualifiedNotifier is told, best-effort, when a session qualifies.
type QualifiedNotifier interface {
	NotifyLeadQualified(ctx context.Context, lead *leads.Lead, listing *listings.Listing, lastMessage string)
}

// ExchangeRequest is the inbound operation payload.
type ExchangeRequest struct {
	Message   string `json:"message"`
	ListingID string `json:"listing_id"`
	SessionID string `json:"session_id"`
}

// ExchangeResult is what the caller gets back on success.
type ExchangeResult struct {
	Reply     string `json:"reply"`
	LeadScore int    `json:"lead_score"`
	Qualified bool   `json:"qualified"`
}

// ExchangeService runs the lead-qualification exchange: context assembly,
// completion, scoring, persistence, lead upsert.
type ExchangeService struct {
	catalog      ListingCatalog
	turns        TurnStore
	leads        LeadWriter
	llm          LLMClient
	notifier     QualifiedNotifier
	metrics      *metrics.ConversationMetrics
	logger       *logging.Logger
	historyLimit int
	maxTokens    int32
	temperature  float32
}

// ExchangeOption adjusts service construction.
type ExchangeOption func(*ExchangeService)

// WithHistoryLimit bounds how many prior turns enter the prompt.
func WithHistoryLimit(n int) ExchangeOption {
	return func(s *ExchangeService) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithGeneration sets the completion parameters.
func WithGeneration(maxTokens int, temperature float64) ExchangeOption {
	return func(s *ExchangeService) {
		if maxTokens > 0 {
			s.maxTokens = int32(maxTokens)
		}
		if temperature > 0 {
			s.temperature = float32(temperature)
		}
	}
}

// WithNotifier wires the best-effort qualification notifier.
func WithNotifier(n QualifiedNotifier) ExchangeOption {
	return func(s *ExchangeService) { s.notifier = n }
}

// WithMetrics wires prometheus instrumentation.
func WithMetrics(m *metrics.ConversationMetrics) ExchangeOption {
	return func(s *ExchangeService) { s.metrics = m }
}

// NewExchangeService wires the pipeline.
func NewExchangeService(catalog ListingCatalog, turns TurnStore, leadRepo LeadWriter, llm LLMClient, logger *logging.Logger, opts ...ExchangeOption) *ExchangeService {
	if catalog == nil {
		panic("conversation: listing catalog required")
	}
	if turns == nil {
		panic("conversation: turn store required")
	}
	if leadRepo == nil {
		panic("conversation: lead writer required")
	}
	if llm == nil {
		panic("conversation: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &ExchangeService{
		catalog:      catalog,
		turns:        turns,
		leads:        leadRepo,
		llm:          llm,
		logger:       logger,
		historyLimit: defaultHistoryLimit,
		maxTokens:    500,
		temperature:  0.7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exchange runs one full message exchange. A missing listing degrades the
// prompt; provider or turn-write failures abort with nothing persisted.
func (s *ExchangeService) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	start := time.Now()

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" || req.ListingID == "" || req.SessionID == "" {
		return nil, fmt.Errorf("%w: message, listing_id and session_id are required", ErrInvalidRequest)
	}

	listing, factBlock := s.buildFactBlock(ctx, req.ListingID)
	history := s.recentHistory(ctx, req.SessionID)

	reply, err := s.generate(ctx, factBlock, history, req.Message)
	if err != nil {
		s.metrics.ObserveExchange("upstream_error")
		return nil, err
	}
	s.metrics.ObserveLLMLatency(time.Since(start).Seconds())

	score := ScoreMessage(req.Message)
	qualified := IsQualified(req.Message, reply)

	if _, err := s.turns.AppendTurn(ctx, Turn{
		ListingID:      req.ListingID,
		SessionID:      req.SessionID,
		UserMessage:    req.Message,
		AssistantReply: reply,
		LeadScore:      score,
	}); err != nil {
		s.metrics.ObserveExchange("persistence_error")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if qualified {
		s.upsertLead(ctx, req, listing, score)
	}

	s.metrics.ObserveExchange("ok")
	return &ExchangeResult{
		Reply:     reply,
		LeadScore: score,
		Qualified: qualified,
	}, nil
}

// buildFactBlock resolves the listing. Any catalog failure, not-found
// included, degrades to an empty fact block instead of failing the exchange.
func (s *ExchangeService) buildFactBlock(ctx context.Context, listingID string) (*listings.Listing, string) {
	listing, err := s.catalog.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, listings.ErrListingNotFound) {
			s.logger.Debug("listing not found, continuing with empty facts", "listing_id", listingID)
		} else {
			s.logger.Warn("listing lookup failed, continuing with empty facts", "listing_id", listingID, "error", err)
		}
		return nil, ""
	}
	return listing, listings.FactBlock(listing)
}

// recentHistory loads the bounded prior-turn window. A history read failure
// degrades to an empty window.
func (s *ExchangeService) recentHistory(ctx context.Context, sessionID string) []Turn {
	history, err := s.turns.RecentTurns(ctx, sessionID, s.historyLimit)
	if err != nil {
		s.logger.Warn("history fetch failed, continuing without prior turns", "session_id", sessionID, "error", err)
		return nil
	}
	return history
}

func (s *ExchangeService) generate(ctx context.Context, factBlock string, history []Turn, message string) (string, error) {
	resp, err := s.llm.Complete(ctx, LLMRequest{
		System:      BuildSystemPrompt(factBlock, history),
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: message}},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamGeneration, err)
	}

	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstreamGeneration)
	}
	return reply, nil
}

// upsertLead records the qualification. Failure is logged and swallowed:
// the conversation happened even if flagging it as a lead did not.
func (s *ExchangeService) upsertLead(ctx context.Context, req ExchangeRequest, listing *listings.Listing, score int) {
	lead, err := s.leads.Upsert(ctx, &leads.UpsertLeadRequest{
		ListingID:     req.ListingID,
		SessionID:     req.SessionID,
		InterestLevel: leads.InterestForScore(score),
		Status:        leads.StatusQualified,
		Notes:         truncate(req.Message, maxNotesLen),
	})
	if err != nil {
		s.logger.Error("lead upsert failed", "error", err, "session_id", req.SessionID, "listing_id", req.ListingID)
		return
	}

	s.metrics.ObserveQualified()
	s.logger.Info("lead qualified",
		"session_id", req.SessionID,
		"listing_id", req.ListingID,
		"interest_level", lead.InterestLevel,
		"score", score,
	)

	if s.notifier != nil {
		// Fire and forget; the notifier logs its own failures.
		go s.notifier.NotifyLeadQualified(context.WithoutCancel(ctx), lead, listing, req.Message)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
