package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads listings from the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("listings: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// GetByID fetches one listing.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := `
		SELECT id, title, address, price_cents, beds, baths, sqft,
		       description, features, neighborhood, market,
		       agent_email, agent_name, created_at
		FROM listings
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var (
		l                    Listing
		neighborhood, market []byte
		createdAt            time.Time
	)
	if err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Address,
		&l.PriceCents,
		&l.Beds,
		&l.Baths,
		&l.Sqft,
		&l.Description,
		&l.Features,
		&neighborhood,
		&market,
		&l.AgentEmail,
		&l.AgentName,
		&createdAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listings: select failed: %w", err)
	}
	l.CreatedAt = createdAt

	if len(neighborhood) > 0 {
		if err := json.Unmarshal(neighborhood, &l.Neighborhood); err != nil {
			return nil, fmt.Errorf("listings: decode neighborhood: %w", err)
		}
	}
	if len(market) > 0 {
		if err := json.Unmarshal(market, &l.Market); err != nil {
			return nil, fmt.Errorf("listings: decode market: %w", err)
		}
	}
	return &l, nil
}
