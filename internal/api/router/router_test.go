package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brightdoor/realty-concierge/internal/conversation"
	"github.com/brightdoor/realty-concierge/internal/leads"
	"github.com/brightdoor/realty-concierge/internal/listings"
	"github.com/brightdoor/realty-concierge/internal/messaging"
	"github.com/brightdoor/realty-concierge/pkg/logging"
)

type memoryTurnStore struct {
	turns []conversation.Turn
}

func (m *memoryTurnStore) AppendTurn(ctx context.Context, turn conversation.Turn) (*conversation.Turn, error) {
	turn.CreatedAt = time.Now().UTC()
	m.turns = append(m.turns, turn)
	return &turn, nil
}

func (m *memoryTurnStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]conversation.Turn, error) {
	return nil, nil
}

func (m *memoryTurnStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]conversation.Turn, error) {
	return m.turns, nil
}

type cannedLLM struct{}

func (cannedLLM) Complete(ctx context.Context, req conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{Text: "Happy to help!"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()

	catalog := listings.NewInMemoryRepository()
	catalog.Put(&listings.Listing{ID: "S1", Title: "Sunny Craftsman", Address: "12 Alder Ct"})

	leadRepo := leads.NewInMemoryRepository()
	turns := &memoryTurnStore{}
	svc := conversation.NewExchangeService(catalog, turns, leadRepo, cannedLLM{}, logger)

	cfg := &Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(svc, turns, logger),
		ListingsHandler:     listings.NewHandler(catalog, logger),
		LeadsHandler:        leads.NewHandler(leadRepo, logger),
		MessagingHandler:    messaging.NewHandler("", svc, nil, map[string]string{"+15550001111": "S1"}, nil, logger),
		AdminAuthSecret:     "secret",
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterMessageEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"message":   "can I tour it",
		"listingId": "S1",
		"sessionId": "SESS1",
	})
	req := httptest.NewRequest(http.MethodPost, "/conversations/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp conversation.MessageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply == "" || resp.LeadScore != 20 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRouterListingEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/listings/S1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	claims := jwt.RegisteredClaims{
		Subject:   "listing-agent",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
