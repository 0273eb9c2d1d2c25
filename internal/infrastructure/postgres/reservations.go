package postgres

import (
	"context"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
)

// Create admits a new reservation. The event row lock serializes concurrent
// creates for the same event, so the SUM below cannot oversell.
func (r *ReservationRepo) Create(ctx context.Context, traceID, userID, eventID string, seats int, now time.Time) (*domain.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := getEventForUpdate(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	var userExists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists)
	if err != nil {
		return nil, err
	}
	if !userExists {
		return nil, domain.ErrNotFound("user not found")
	}

	reserved, err := activeSeats(ctx, tx, eventID, nil)
	if err != nil {
		return nil, err
	}

	res, err := domain.NewReservation(userID, ev, seats, domain.AvailableSeats(ev.Capacity, reserved), now)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reservations (id, user_id, event_id, seat_count, amount, status, code, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, res.ID, res.UserID, res.EventID, res.SeatCount, res.Amount, res.Status, res.Code, res.Comment,
		res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	return scanReservation(r.pool.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *ReservationRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
}

func (r *ReservationRepo) list(ctx context.Context, sql string, arg any) ([]*domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// eventIDOf resolves the event before any lock is taken, so the event row can
// be locked first (see the deadlock policy in repository.go).
func (r *ReservationRepo) eventIDOf(ctx context.Context, tx queryRower, id string) (string, error) {
	var eventID string
	err := tx.QueryRow(ctx, `SELECT event_id FROM reservations WHERE id = $1`, id).Scan(&eventID)
	if err != nil {
		return "", domain.ErrNotFound("reservation not found")
	}
	return eventID, nil
}

// UpdateStatus transitions the reservation; a confirmation re-checks
// availability excluding the reservation's own seats. A failed check aborts
// the tx, so the stored status never changes on failure.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, traceID, id string, status domain.ReservationStatus, now time.Time) (*domain.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventID, err := r.eventIDOf(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	ev, err := getEventForUpdate(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := getReservationForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	reserved, err := activeSeats(ctx, tx, eventID, &id)
	if err != nil {
		return nil, err
	}

	if err := res.ChangeStatus(status, domain.AvailableSeats(ev.Capacity, reserved), now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`,
		res.ID, res.Status, res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if status == domain.ReservationConfirmed {
		var email, firstName, lastName string
		err := tx.QueryRow(ctx,
			`SELECT email, first_name, last_name FROM users WHERE id = $1`, res.UserID,
		).Scan(&email, &firstName, &lastName)
		if err != nil {
			return nil, err
		}
		err = insertOutbox(ctx, tx, traceID, "email.reservation_confirmation", map[string]any{
			"email":       email,
			"user_name":   firstName + " " + lastName,
			"code":        res.Code,
			"event_id":    ev.ID,
			"event_title": ev.Title,
			"occurred_at": now.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ReservationRepo) UpdateSeats(ctx context.Context, id string, seats int, now time.Time) (*domain.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventID, err := r.eventIDOf(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	ev, err := getEventForUpdate(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := getReservationForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	reserved, err := activeSeats(ctx, tx, eventID, &id)
	if err != nil {
		return nil, err
	}

	// ChangeSeats validates the increase against seats actually free, so the
	// reservation's own seats count as taken here.
	available := domain.AvailableSeats(ev.Capacity, reserved+res.SeatCount)
	if err := res.ChangeSeats(seats, available, ev.UnitPrice, ev.StartTime, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE reservations SET seat_count = $2, amount = $3, updated_at = $4 WHERE id = $1`,
		res.ID, res.SeatCount, res.Amount, res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *ReservationRepo) Cancel(ctx context.Context, traceID, id string, now time.Time) (*domain.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventID, err := r.eventIDOf(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	ev, err := getEventForUpdate(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := getReservationForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := res.Cancel(ev.StartTime, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE reservations SET status = $2, comment = $3, updated_at = $4 WHERE id = $1`,
		res.ID, res.Status, res.Comment, res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// ExpireStale cancels pending reservations older than olderThan in one
// statement. Already-canceled or confirmed rows are never touched, which
// makes repeated sweeps idempotent.
func (r *ReservationRepo) ExpireStale(ctx context.Context, olderThan, now time.Time) (int, error) {
	note := "Reservation expired at " + now.UTC().Format(time.RFC3339)
	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations
		SET status = 'canceled',
		    comment = CASE WHEN comment IS NULL OR comment = '' THEN $2
		              ELSE comment || ' | ' || $2 END,
		    updated_at = $3
		WHERE status = 'pending' AND created_at < $1
	`, olderThan, note, now.UTC())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
