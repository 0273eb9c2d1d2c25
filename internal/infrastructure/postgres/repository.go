package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the domain repositories on pgx.
//
// Deadlock policy: every transaction that touches capacity locks rows in this
// order for the same event_id:
//  1. events row (FOR UPDATE)
//  2. reservations row (FOR UPDATE) if needed
//
// The reserved-seat count is always the SUM aggregate executed inside the
// transaction, after the event row lock is held.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Typed views over the shared pool; one per domain repository interface.

type EventRepo struct{ *Repository }

type ReservationRepo struct{ *Repository }

type UserRepo struct{ *Repository }

func (r *Repository) Events() *EventRepo             { return &EventRepo{r} }
func (r *Repository) Reservations() *ReservationRepo { return &ReservationRepo{r} }
func (r *Repository) Users() *UserRepo               { return &UserRepo{r} }

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const eventColumns = `id, organizer_id, title, description, category, status,
	start_time, end_time, location, city, capacity, unit_price, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Category, &e.Status,
		&e.StartTime, &e.EndTime, &e.Location, &e.City, &e.Capacity, &e.UnitPrice,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound("event not found")
		}
		return nil, err
	}
	return &e, nil
}

func getEventForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Event, error) {
	return scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
}

const reservationColumns = `id, user_id, event_id, seat_count, amount, status, code, comment, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	err := row.Scan(
		&r.ID, &r.UserID, &r.EventID, &r.SeatCount, &r.Amount, &r.Status, &r.Code,
		&r.Comment, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound("reservation not found")
		}
		return nil, err
	}
	return &r, nil
}

func getReservationForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Reservation, error) {
	return scanReservation(tx.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
}

// activeSeats is the authoritative reserved-seat count. excludeID skips the
// reservation under edit so its own seats do not count against itself.
func activeSeats(ctx context.Context, q queryRower, eventID string, excludeID *string) (int, error) {
	var total int
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(seat_count), 0)
		FROM reservations
		WHERE event_id = $1
		  AND status <> 'canceled'
		  AND ($2::uuid IS NULL OR id <> $2::uuid)
	`, eventID, excludeID).Scan(&total)
	return total, err
}

func insertOutbox(ctx context.Context, tx pgx.Tx, traceID, routingKey string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (message_id, trace_id, routing_key, payload, occurred_at, status)
		 VALUES ($1, $2, $3, $4, NOW(), 'pending')`,
		uuid.New(), traceID, routingKey, body,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
