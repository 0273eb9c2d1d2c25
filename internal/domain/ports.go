package domain

import (
	"context"
	"time"
)

// Repositories own their transactions: every mutation that touches capacity
// runs inside a single transaction that locks the event row first.

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, e *Event) error
	// Delete fails with has_reservations when any reservation references the
	// event, regardless of reservation status.
	Delete(ctx context.Context, id string) error
	// ChangeStatus applies the transition and, when a published event is
	// canceled, enqueues one cancellation notification per active reservation
	// holder in the same transaction.
	ChangeStatus(ctx context.Context, traceID, id string, status EventStatus, reason string, now time.Time) (*Event, error)
	UpdateCapacity(ctx context.Context, id string, capacity int, now time.Time) (*Event, error)
	ListPublished(ctx context.Context, f EventFilter, now time.Time) ([]*Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	ActiveSeats(ctx context.Context, eventID string) (int, error)
	Stats(ctx context.Context, eventID string) (*EventStats, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, traceID, userID, eventID string, seats int, now time.Time) (*Reservation, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]*Reservation, error)
	ListByEvent(ctx context.Context, eventID string) ([]*Reservation, error)
	UpdateStatus(ctx context.Context, traceID, id string, status ReservationStatus, now time.Time) (*Reservation, error)
	UpdateSeats(ctx context.Context, id string, seats int, now time.Time) (*Reservation, error)
	Cancel(ctx context.Context, traceID, id string, now time.Time) (*Reservation, error)
	// ExpireStale cancels pending reservations created before olderThan.
	// Idempotent; returns the number of reservations expired.
	ExpireStale(ctx context.Context, olderThan, now time.Time) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
}

type Cache interface {
	GetEventAvailability(ctx context.Context, eventID string) (int, error)
	SetEventAvailability(ctx context.Context, eventID string, seats int, ttl time.Duration) error
	InvalidateEventAvailability(ctx context.Context, eventID string) error
	AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}
