package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
)

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, organizer_id, title, description, category, status,
			start_time, end_time, location, city, capacity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, e.ID, e.OrganizerID, e.Title, e.Description, e.Category, e.Status,
		e.StartTime, e.EndTime, e.Location, e.City, e.Capacity, e.UnitPrice,
		e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $2, description = $3, category = $4, status = $5,
		    start_time = $6, end_time = $7, location = $8, city = $9,
		    capacity = $10, unit_price = $11, updated_at = $12
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Category, e.Status,
		e.StartTime, e.EndTime, e.Location, e.City,
		e.Capacity, e.UnitPrice, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := getEventForUpdate(ctx, tx, id); err != nil {
		return err
	}

	var hasReservations bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reservations WHERE event_id = $1)`, id,
	).Scan(&hasReservations)
	if err != nil {
		return err
	}
	if hasReservations {
		return domain.ErrHasReservations("event has reservations and cannot be deleted")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ChangeStatus applies the transition. Canceling a published event enqueues
// one cancellation email per reservation holder in the same tx.
func (r *EventRepo) ChangeStatus(ctx context.Context, traceID, id string, status domain.EventStatus, reason string, now time.Time) (*domain.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := getEventForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	prev := ev.Status

	if err := ev.ChangeStatus(status, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET status = $2, updated_at = $3 WHERE id = $1`,
		ev.ID, ev.Status, ev.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if status == domain.EventCanceled && prev == domain.EventPublished {
		rows, err := tx.Query(ctx, `
			SELECT DISTINCT u.email, u.first_name, u.last_name
			FROM reservations res
			JOIN users u ON u.id = res.user_id
			WHERE res.event_id = $1 AND res.status <> 'canceled'
		`, ev.ID)
		if err != nil {
			return nil, err
		}

		type holder struct{ email, firstName, lastName string }
		var holders []holder
		for rows.Next() {
			var h holder
			if err := rows.Scan(&h.email, &h.firstName, &h.lastName); err == nil {
				holders = append(holders, h)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, h := range holders {
			err := insertOutbox(ctx, tx, traceID, "email.event_canceled", map[string]any{
				"email":       h.email,
				"user_name":   h.firstName + " " + h.lastName,
				"event_id":    ev.ID,
				"event_title": ev.Title,
				"reason":      reason,
				"occurred_at": now.UTC().Format(time.RFC3339Nano),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *EventRepo) UpdateCapacity(ctx context.Context, id string, capacity int, now time.Time) (*domain.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := getEventForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	active, err := activeSeats(ctx, tx, id, nil)
	if err != nil {
		return nil, err
	}

	if err := ev.UpdateCapacity(capacity, active, now); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET capacity = $2, updated_at = $3 WHERE id = $1`,
		ev.ID, ev.Capacity, ev.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

// ListPublished applies the same predicates as domain.EventFilter.Matches.
func (r *EventRepo) ListPublished(ctx context.Context, f domain.EventFilter, now time.Time) ([]*domain.Event, error) {
	sql := `SELECT ` + eventColumns + ` FROM events WHERE status = 'published' AND start_time > $1`
	args := []any{now}

	if f.Category != nil {
		args = append(args, *f.Category)
		sql += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if f.City != "" {
		args = append(args, f.City)
		sql += fmt.Sprintf(` AND LOWER(city) = LOWER($%d)`, len(args))
	}
	if f.Keyword != "" {
		args = append(args, "%"+f.Keyword+"%")
		sql += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		sql += fmt.Sprintf(` AND unit_price >= $%d`, len(args))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		sql += fmt.Sprintf(` AND unit_price <= $%d`, len(args))
	}
	sql += ` ORDER BY start_time ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE organizer_id = $1
		ORDER BY start_time ASC
	`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepo) ActiveSeats(ctx context.Context, eventID string) (int, error) {
	return activeSeats(ctx, r.pool, eventID, nil)
}

func (r *EventRepo) Stats(ctx context.Context, eventID string) (*domain.EventStats, error) {
	ev, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s := &domain.EventStats{EventID: eventID}
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'confirmed'),
		       COUNT(*) FILTER (WHERE status = 'canceled'),
		       COALESCE(SUM(seat_count) FILTER (WHERE status <> 'canceled'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status <> 'canceled'), 0)
		FROM reservations
		WHERE event_id = $1
	`, eventID).Scan(&s.TotalReservations, &s.Pending, &s.Confirmed, &s.Canceled, &s.SeatsReserved, &s.Revenue)
	if err != nil {
		return nil, err
	}

	if ev.Capacity > 0 {
		rate := float64(s.SeatsReserved) / float64(ev.Capacity) * 100
		s.FillRate = math.Round(rate*100) / 100
	}
	return s, nil
}
