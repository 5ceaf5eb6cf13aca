package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

type stubLLMClient struct {
	mu       sync.Mutex
	requests []LLMRequest
	response LLMResponse
	err      error
}

func (s *stubLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return s.response, nil
}

type fakeTurnStore struct {
	mu        sync.Mutex
	turns     []Turn
	appendErr error
	recentErr error
	lastLimit int
}

func (f *fakeTurnStore) AppendTurn(ctx context.Context, turn Turn) (*Turn, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	turn.CreatedAt = time.Now().UTC()
	f.turns = append(f.turns, turn)
	return &turn, nil
}

func (f *fakeTurnStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	var out []Turn
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeLeadWriter struct {
	mu      sync.Mutex
	repo    *leads.InMemoryRepository
	err     error
	upserts int
}

func newFakeLeadWriter() *fakeLeadWriter {
	return &fakeLeadWriter{repo: leads.NewInMemoryRepository()}
}

func (f *fakeLeadWriter) Upsert(ctx context.Context, req *leads.UpsertLeadRequest) (*leads.Lead, error) {
	f.mu.Lock()
	f.upserts++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.repo.Upsert(ctx, req)
}

func newTestService(t *testing.T, catalog ListingCatalog, turns *fakeTurnStore, leadWriter *fakeLeadWriter, llm LLMClient, opts ...ExchangeOption) *ExchangeService {
	t.Helper()
	return NewExchangeService(catalog, turns, leadWriter, llm, logging.Default(), opts...)
}

func seededCatalog() *listings.InMemoryRepository {
	catalog := listings.NewInMemoryRepository()
	catalog.Put(&listings.Listing{
		ID:      "S1",
		Title:   "Sunny Craftsman",
		Address: "12 Alder Ct",
		Beds:    3, Baths: 2, Sqft: 1850,
	})
	return catalog
}

func TestExchangeEndToEnd(t *testing.T) {
	turns := &fakeTurnStore{}
	leadWriter := newFakeLeadWriter()
	llm := &stubLLMClient{response: LLMResponse{Text: "Happy to set up a tour!"}}
	svc := newTestService(t, seededCatalog(), turns, leadWriter, llm)

	result, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "I'd love to tour this and maybe buy it",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if result.LeadScore != 45 {
		t.Errorf("expected lead score 45, got %d", result.LeadScore)
	}
	if !result.Qualified {
		t.Error("expected qualified exchange")
	}
	if result.Reply != "Happy to set up a tour!" {
		t.Errorf("unexpected reply %q", result.Reply)
	}

	if len(turns.turns) != 1 {
		t.Fatalf("expected one persisted turn, got %d", len(turns.turns))
	}
	persisted := turns.turns[0]
	if persisted.SessionID != "SESS1" || persisted.LeadScore != 45 {
		t.Errorf("unexpected turn %+v", persisted)
	}

	lead, err := leadWriter.repo.GetBySession(context.Background(), "SESS1")
	if err != nil {
		t.Fatalf("expected lead for session: %v", err)
	}
	if lead.Status != leads.StatusQualified {
		t.Errorf("expected qualified lead, got %s", lead.Status)
	}
	if lead.InterestLevel != leads.InterestMedium {
		t.Errorf("expected medium interest for score 45, got %s", lead.InterestLevel)
	}
	if lead.ListingID != "S1" {
		t.Errorf("unexpected lead listing %s", lead.ListingID)
	}
}

func TestExchangeMissingListingDegrades(t *testing.T) {
	turns := &fakeTurnStore{}
	llm := &stubLLMClient{response: LLMResponse{Text: "Tell me what you're looking for!"}}
	svc := newTestService(t, listings.NewInMemoryRepository(), turns, newFakeLeadWriter(), llm)

	result, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "hi there",
		ListingID: "no-such-listing",
		SessionID: "SESS1",
	})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
	if result.Reply == "" {
		t.Error("expected a reply despite missing listing")
	}

	// No property facts block should reach the provider.
	if len(llm.requests) != 1 {
		t.Fatalf("expected one provider call, got %d", len(llm.requests))
	}
	for _, block := range llm.requests[0].System {
		if strings.Contains(block, "PROPERTY DETAILS:") {
			t.Errorf("unexpected fact block in prompt: %q", block)
		}
	}
}

func TestExchangeUpstreamFailureAbortsWithoutPersisting(t *testing.T) {
	turns := &fakeTurnStore{}
	leadWriter := newFakeLeadWriter()
	llm := &stubLLMClient{err: errors.New("provider 500")}
	svc := newTestService(t, seededCatalog(), turns, leadWriter, llm)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "I want to buy this",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if !errors.Is(err, ErrUpstreamGeneration) {
		t.Fatalf("expected ErrUpstreamGeneration, got %v", err)
	}
	if len(turns.turns) != 0 {
		t.Error("no turn may be persisted when generation fails")
	}
	if leadWriter.upserts != 0 {
		t.Error("no lead may be upserted when generation fails")
	}
}

func TestExchangeEmptyCompletionIsUpstreamError(t *testing.T) {
	turns := &fakeTurnStore{}
	llm := &stubLLMClient{response: LLMResponse{Text: "   "}}
	svc := newTestService(t, seededCatalog(), turns, newFakeLeadWriter(), llm)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "hello",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if !errors.Is(err, ErrUpstreamGeneration) {
		t.Fatalf("expected ErrUpstreamGeneration, got %v", err)
	}
}

func TestExchangeTurnWriteFailureFailsExchange(t *testing.T) {
	turns := &fakeTurnStore{appendErr: errors.New("db down")}
	llm := &stubLLMClient{response: LLMResponse{Text: "Sure, let's book a tour."}}
	svc := newTestService(t, seededCatalog(), turns, newFakeLeadWriter(), llm)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "book a tour please",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence even though a reply was generated, got %v", err)
	}
}

func TestExchangeLeadUpsertFailureIsNonFatal(t *testing.T) {
	turns := &fakeTurnStore{}
	leadWriter := newFakeLeadWriter()
	leadWriter.err = errors.New("lead table locked")
	llm := &stubLLMClient{response: LLMResponse{Text: "I can connect you with the agent."}}
	svc := newTestService(t, seededCatalog(), turns, leadWriter, llm)

	result, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "I'm interested, contact me",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if err != nil {
		t.Fatalf("lead upsert failure must not fail the exchange: %v", err)
	}
	if !result.Qualified {
		t.Error("expected qualified result")
	}
	if len(turns.turns) != 1 {
		t.Error("turn must still be persisted")
	}
	if leadWriter.upserts != 1 {
		t.Errorf("expected one attempted upsert, got %d", leadWriter.upserts)
	}
}

func TestExchangeUnqualifiedSkipsLead(t *testing.T) {
	turns := &fakeTurnStore{}
	leadWriter := newFakeLeadWriter()
	llm := &stubLLMClient{response: LLMResponse{Text: "It has three bedrooms."}}
	svc := newTestService(t, seededCatalog(), turns, leadWriter, llm)

	result, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "how many bedrooms",
		ListingID: "S1",
		SessionID: "SESS1",
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if result.Qualified {
		t.Error("expected unqualified exchange")
	}
	if leadWriter.upserts != 0 {
		t.Errorf("expected no lead upserts, got %d", leadWriter.upserts)
	}
}

func TestExchangeHistoryBound(t *testing.T) {
	turns := &fakeTurnStore{}
	llm := &stubLLMClient{response: LLMResponse{Text: "reply"}}
	svc := newTestService(t, seededCatalog(), turns, newFakeLeadWriter(), llm)

	// Seed more turns than the window.
	for i := 0; i < 8; i++ {
		_, _ = turns.AppendTurn(context.Background(), Turn{
			ListingID: "S1", SessionID: "SESS1",
			UserMessage: "older question", AssistantReply: "older answer",
		})
	}

	if _, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "latest question",
		ListingID: "S1",
		SessionID: "SESS1",
	}); err != nil {
		t.Fatalf("exchange: %v", err)
	}

	if turns.lastLimit != 5 {
		t.Errorf("expected history fetch bounded to 5, got %d", turns.lastLimit)
	}
}

func TestExchangeHistoryFailureDegrades(t *testing.T) {
	turns := &fakeTurnStore{recentErr: errors.New("redis hiccup")}
	llm := &stubLLMClient{response: LLMResponse{Text: "reply"}}
	svc := newTestService(t, seededCatalog(), turns, newFakeLeadWriter(), llm)

	if _, err := svc.Exchange(context.Background(), ExchangeRequest{
		Message:   "hello",
		ListingID: "S1",
		SessionID: "SESS1",
	}); err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}
}

func TestExchangeValidatesInput(t *testing.T) {
	svc := newTestService(t, seededCatalog(), &fakeTurnStore{}, newFakeLeadWriter(), &stubLLMClient{response: LLMResponse{Text: "x"}})

	cases := []ExchangeRequest{
		{Message: "", ListingID: "S1", SessionID: "SESS1"},
		{Message: "   ", ListingID: "S1", SessionID: "SESS1"},
		{Message: "hi", ListingID: "", SessionID: "SESS1"},
		{Message: "hi", ListingID: "S1", SessionID: ""},
	}
	for _, req := range cases {
		if _, err := svc.Exchange(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest for %+v, got %v", req, err)
		}
	}
}
