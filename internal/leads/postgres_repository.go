package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Upsert inserts or replaces the lead keyed by session. Concurrent
// qualifying exchanges race last-write-wins at the database.
func (r *PostgresRepository) Upsert(ctx context.Context, req *UpsertLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO leads (id, listing_id, session_id, interest_level, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			listing_id = EXCLUDED.listing_id,
			interest_level = EXCLUDED.interest_level,
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	var (
		id                   string
		createdAt, updatedAt time.Time
	)
	if err := r.pool.QueryRow(ctx, query,
		uuid.New(),
		req.ListingID,
		req.SessionID,
		string(req.InterestLevel),
		string(req.Status),
		req.Notes,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("leads: upsert failed: %w", err)
	}

	return &Lead{
		ID:            id,
		ListingID:     req.ListingID,
		SessionID:     req.SessionID,
		InterestLevel: req.InterestLevel,
		Status:        req.Status,
		Notes:         req.Notes,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

// GetBySession fetches the lead for one session.
func (r *PostgresRepository) GetBySession(ctx context.Context, sessionID string) (*Lead, error) {
	query := `
		SELECT id, listing_id, session_id, interest_level, status, notes, created_at, updated_at
		FROM leads
		WHERE session_id = $1
	`
	row := r.pool.QueryRow(ctx, query, sessionID)
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.ListingID,
		&lead.SessionID,
		&lead.InterestLevel,
		&lead.Status,
		&lead.Notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return &lead, nil
}

// List returns leads ordered by most recent update.
func (r *PostgresRepository) List(ctx context.Context, filter ListLeadsFilter) ([]*Lead, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT id, listing_id, session_id, interest_level, status, notes, created_at, updated_at
		FROM leads
		WHERE ($1 = '' OR status = $1)
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.ListingID,
			&lead.SessionID,
			&lead.InterestLevel,
			&lead.Status,
			&lead.Notes,
			&lead.CreatedAt,
			&lead.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, &lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: rows failed: %w", err)
	}
	return out, nil
}
