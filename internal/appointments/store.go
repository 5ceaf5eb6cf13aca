package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists tour appointments.
type Store struct {
	pool PgxPool
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Store{pool: pool}
}

// Create books a tour appointment.
func (s *Store) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO appointments (id, listing_id, session_id, visitor_name, visitor_phone, visitor_email, tour_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	id := uuid.New().String()
	var createdAt time.Time
	if err := s.pool.QueryRow(ctx, query,
		id,
		req.ListingID,
		req.SessionID,
		req.VisitorName,
		req.VisitorPhone,
		req.VisitorEmail,
		req.TourAt.UTC(),
		req.Notes,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:           id,
		ListingID:    req.ListingID,
		SessionID:    req.SessionID,
		VisitorName:  req.VisitorName,
		VisitorPhone: req.VisitorPhone,
		VisitorEmail: req.VisitorEmail,
		TourAt:       req.TourAt.UTC(),
		Notes:        req.Notes,
		CreatedAt:    createdAt,
	}, nil
}

// DueForReminder lists appointments whose tour starts within the window and
// that have not been reminded yet.
func (s *Store) DueForReminder(ctx context.Context, window time.Duration, limit int) ([]*Appointment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, listing_id, session_id, visitor_name, visitor_phone, visitor_email, tour_at, notes, reminder_sent_at, created_at
		FROM appointments
		WHERE reminder_sent_at IS NULL
		  AND tour_at > now()
		  AND tour_at <= now() + $1
		ORDER BY tour_at ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, window, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: due query failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var appt Appointment
		if err := rows.Scan(
			&appt.ID,
			&appt.ListingID,
			&appt.SessionID,
			&appt.VisitorName,
			&appt.VisitorPhone,
			&appt.VisitorEmail,
			&appt.TourAt,
			&appt.Notes,
			&appt.ReminderSentAt,
			&appt.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, &appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}

// MarkReminderSent stamps the appointment so it is only reminded once.
func (s *Store) MarkReminderSent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET reminder_sent_at = now()
		WHERE id = $1 AND reminder_sent_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("appointments: mark reminder failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointments: reminder already sent or appointment missing: %s", id)
	}
	return nil
}
