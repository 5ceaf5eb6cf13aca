package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Turn is one persisted exchange unit. Immutable once written.
type Turn struct {
	ID             string    `json:"id"`
	ListingID      string    `json:"listing_id"`
	SessionID      string    `json:"session_id"`
	UserMessage    string    `json:"user_message"`
	AssistantReply string    `json:"assistant_reply"`
	LeadScore      int       `json:"lead_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists conversation turns in Postgres.
type Store struct {
	pool   PgxPool
	tracer trace.Tracer
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("conversation: pgx pool required")
	}
	return &Store{
		pool:   pool,
		tracer: otel.Tracer("realty.internal.conversation.store"),
	}
}

// AppendTurn inserts one immutable turn row.
func (s *Store) AppendTurn(ctx context.Context, turn Turn) (*Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append_turn")
	defer span.End()

	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}

	query := `
		INSERT INTO conversation_turns (id, listing_id, session_id, user_message, assistant_reply, lead_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := s.pool.QueryRow(ctx, query,
		turn.ID,
		turn.ListingID,
		turn.SessionID,
		turn.UserMessage,
		turn.AssistantReply,
		turn.LeadScore,
	).Scan(&turn.CreatedAt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: insert turn: %w", err)
	}
	return &turn, nil
}

// RecentTurns returns up to limit most-recent turns for a session, oldest
// first. The seq column breaks ties when timestamps collide.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.recent_turns")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, listing_id, session_id, user_message, assistant_reply, lead_score, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`
	turns, err := s.queryTurns(ctx, query, sessionID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Reverse the newest-first page into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListBySession returns the transcript for a session in chronological
// order, bounded by limit.
func (s *Store) ListBySession(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.list_turns")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, listing_id, session_id, user_message, assistant_reply, lead_score, created_at
		FROM conversation_turns
		WHERE session_id = $1
		ORDER BY created_at ASC, seq ASC
		LIMIT $2
	`
	turns, err := s.queryTurns(ctx, query, sessionID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return turns, nil
}

func (s *Store) queryTurns(ctx context.Context, query, sessionID string, limit int) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(
			&t.ID,
			&t.ListingID,
			&t.SessionID,
			&t.UserMessage,
			&t.AssistantReply,
			&t.LeadScore,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("conversation: scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: turn rows: %w", err)
	}
	return turns, nil
}
