package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxSeatsPerReservation = 10

type Reservation struct {
	ID        string
	UserID    string
	EventID   string
	SeatCount int
	Amount    float64
	Status    ReservationStatus
	Code      string
	Comment   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCode returns a reservation code like EVT-3F2A9C1B.
// Generated once at creation; never regenerated afterwards.
func NewCode() string {
	return "EVT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validateSeatCount(seats int) error {
	if seats < 1 {
		return ErrValidation("seat_count must be >= 1")
	}
	if seats > MaxSeatsPerReservation {
		return ErrValidationMeta("seat_count exceeds the per-reservation maximum", map[string]string{
			"max": fmt.Sprintf("%d", MaxSeatsPerReservation),
		})
	}
	return nil
}

// NewReservation admits a reservation against an event. The caller supplies
// availableSeats computed under the event lock; both persistence paths use
// the same formula (capacity minus seats of non-canceled reservations).
func NewReservation(userID string, ev *Event, seats, availableSeats int, now time.Time) (*Reservation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrValidation("user_id is required")
	}
	if err := ev.Bookable(now); err != nil {
		return nil, err
	}
	if err := validateSeatCount(seats); err != nil {
		return nil, err
	}
	if seats > availableSeats {
		return nil, ErrCapacityExceeded(availableSeats, seats)
	}

	return &Reservation{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   ev.ID,
		SeatCount: seats,
		Amount:    ev.UnitPrice * float64(seats),
		Status:    ReservationPending,
		Code:      NewCode(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// ChangeStatus transitions the reservation. Confirmation re-checks capacity:
// availableSeats must exclude this reservation's own seats.
func (r *Reservation) ChangeStatus(status ReservationStatus, availableSeats int, now time.Time) error {
	if !status.Valid() {
		return ErrValidation("unknown reservation status")
	}
	if r.Status == ReservationCanceled {
		return ErrInvalidState("canceled reservation cannot be modified")
	}
	if status == ReservationConfirmed && r.SeatCount > availableSeats {
		return ErrCapacityExceeded(availableSeats, r.SeatCount)
	}
	r.Status = status
	r.UpdatedAt = now.UTC()
	return nil
}

// Cancel marks the reservation canceled and appends an audit note.
func (r *Reservation) Cancel(eventStart, now time.Time) error {
	if r.Status == ReservationCanceled {
		return ErrInvalidState("reservation already canceled")
	}
	if !eventStart.After(now) {
		return ErrInvalidState("cannot cancel a reservation for an event that already started")
	}
	r.Status = ReservationCanceled
	r.appendComment("Canceled at " + now.UTC().Format(time.RFC3339))
	r.UpdatedAt = now.UTC()
	return nil
}

// ChangeSeats adjusts the seat count. Only the increase is checked against
// availability (seats already held stay held). Amount is recomputed. A
// confirmed reservation is locked once its event has started.
func (r *Reservation) ChangeSeats(seats, availableSeats int, unitPrice float64, eventStart, now time.Time) error {
	if r.Status == ReservationCanceled {
		return ErrInvalidState("canceled reservation cannot be modified")
	}
	if r.Status == ReservationConfirmed && !eventStart.After(now) {
		return ErrInvalidState("cannot change seats on a confirmed reservation after the event started")
	}
	if err := validateSeatCount(seats); err != nil {
		return err
	}
	if delta := seats - r.SeatCount; delta > availableSeats {
		return ErrCapacityExceeded(availableSeats, delta)
	}
	r.SeatCount = seats
	r.Amount = unitPrice * float64(seats)
	r.UpdatedAt = now.UTC()
	return nil
}

// Expire cancels a stale pending reservation. Returns false when the
// reservation is not pending, which makes the sweep idempotent.
func (r *Reservation) Expire(now time.Time) bool {
	if r.Status != ReservationPending {
		return false
	}
	r.Status = ReservationCanceled
	r.appendComment("Reservation expired at " + now.UTC().Format(time.RFC3339))
	r.UpdatedAt = now.UTC()
	return true
}

func (r *Reservation) appendComment(note string) {
	if strings.TrimSpace(r.Comment) == "" {
		r.Comment = note
		return
	}
	r.Comment = r.Comment + " | " + note
}
