package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/rs/zerolog"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// memStore backs the repository fakes. The fakes reproduce the transactional
// semantics of the Postgres layer: capacity is always recomputed from the
// stored reservations, never carried in a counter.
type memStore struct {
	events       map[string]*domain.Event
	reservations map[string]*domain.Reservation
	users        map[string]*domain.User

	confirmationNotices int
	cancellationNotices int
}

func newMemStore() *memStore {
	return &memStore{
		events:       map[string]*domain.Event{},
		reservations: map[string]*domain.Reservation{},
		users:        map[string]*domain.User{},
	}
}

// activeSeats mirrors the SQL aggregate: seats of non-canceled reservations,
// optionally excluding one reservation.
func (s *memStore) activeSeats(eventID, excludeID string) int {
	total := 0
	for _, r := range s.reservations {
		if r.EventID != eventID || r.ID == excludeID {
			continue
		}
		if r.Status.Active() {
			total += r.SeatCount
		}
	}
	return total
}

type memEvents struct{ *memStore }

func (m memEvents) Create(_ context.Context, e *domain.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m memEvents) GetByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	cp := *e
	return &cp, nil
}

func (m memEvents) Update(_ context.Context, e *domain.Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return domain.ErrNotFound("event not found")
	}
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m memEvents) Delete(_ context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound("event not found")
	}
	for _, r := range m.reservations {
		if r.EventID == id {
			return domain.ErrHasReservations("event has reservations")
		}
	}
	delete(m.events, id)
	return nil
}

func (m memEvents) ChangeStatus(_ context.Context, _, id string, status domain.EventStatus, _ string, now time.Time) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	prev := e.Status
	if err := e.ChangeStatus(status, now); err != nil {
		return nil, err
	}
	if status == domain.EventCanceled && prev == domain.EventPublished {
		holders := map[string]bool{}
		for _, r := range m.reservations {
			if r.EventID == id && r.Status.Active() {
				holders[r.UserID] = true
			}
		}
		m.cancellationNotices += len(holders)
	}
	cp := *e
	return &cp, nil
}

func (m memEvents) UpdateCapacity(_ context.Context, id string, capacity int, now time.Time) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	if err := e.UpdateCapacity(capacity, m.activeSeats(id, ""), now); err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

func (m memEvents) ListPublished(_ context.Context, f domain.EventFilter, now time.Time) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range m.events {
		if e.Status == domain.EventPublished && e.IsUpcoming(now) && f.Matches(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memEvents) ListByOrganizer(_ context.Context, organizerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range m.events {
		if e.OrganizerID == organizerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memEvents) ActiveSeats(_ context.Context, eventID string) (int, error) {
	return m.activeSeats(eventID, ""), nil
}

func (m memEvents) Stats(_ context.Context, eventID string) (*domain.EventStats, error) {
	e, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	st := &domain.EventStats{EventID: eventID}
	for _, r := range m.reservations {
		if r.EventID != eventID {
			continue
		}
		st.TotalReservations++
		switch r.Status {
		case domain.ReservationPending:
			st.Pending++
		case domain.ReservationConfirmed:
			st.Confirmed++
		case domain.ReservationCanceled:
			st.Canceled++
		}
		if r.Status.Active() {
			st.SeatsReserved += r.SeatCount
			st.Revenue += r.Amount
		}
	}
	if e.Capacity > 0 {
		rate := float64(st.SeatsReserved) / float64(e.Capacity) * 100
		st.FillRate = math.Round(rate*100) / 100
	}
	return st, nil
}

type memReservations struct{ *memStore }

func (m memReservations) Create(_ context.Context, _, userID, eventID string, seats int, now time.Time) (*domain.Reservation, error) {
	ev, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	available := domain.AvailableSeats(ev.Capacity, m.activeSeats(eventID, ""))
	res, err := domain.NewReservation(userID, ev, seats, available, now)
	if err != nil {
		return nil, err
	}
	m.reservations[res.ID] = res
	cp := *res
	return &cp, nil
}

func (m memReservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound("reservation not found")
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) ListByUser(_ context.Context, userID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memReservations) ListByEvent(_ context.Context, eventID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memReservations) UpdateStatus(_ context.Context, _, id string, status domain.ReservationStatus, now time.Time) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound("reservation not found")
	}
	ev := m.events[r.EventID]
	available := domain.AvailableSeats(ev.Capacity, m.activeSeats(r.EventID, r.ID))
	if err := r.ChangeStatus(status, available, now); err != nil {
		return nil, err
	}
	if status == domain.ReservationConfirmed {
		m.confirmationNotices++
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) UpdateSeats(_ context.Context, id string, seats int, now time.Time) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound("reservation not found")
	}
	ev := m.events[r.EventID]
	available := domain.AvailableSeats(ev.Capacity, m.activeSeats(r.EventID, ""))
	if err := r.ChangeSeats(seats, available, ev.UnitPrice, ev.StartTime, now); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) Cancel(_ context.Context, _, id string, now time.Time) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound("reservation not found")
	}
	ev := m.events[r.EventID]
	if err := r.Cancel(ev.StartTime, now); err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (m memReservations) ExpireStale(_ context.Context, olderThan, now time.Time) (int, error) {
	n := 0
	for _, r := range m.reservations {
		if r.Status == domain.ReservationPending && r.CreatedAt.Before(olderThan) && r.Expire(now) {
			n++
		}
	}
	return n, nil
}

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrConflict("email already registered")
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound("user not found")
}

func (m memUsers) Update(_ context.Context, u *domain.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrNotFound("user not found")
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

type fakeCache struct {
	avail       map[string]int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{avail: map[string]int{}}
}

func (c *fakeCache) GetEventAvailability(_ context.Context, eventID string) (int, error) {
	n, ok := c.avail[eventID]
	if !ok {
		return 0, domain.ErrCacheMiss
	}
	return n, nil
}

func (c *fakeCache) SetEventAvailability(_ context.Context, eventID string, seats int, _ time.Duration) error {
	c.avail[eventID] = seats
	return nil
}

func (c *fakeCache) InvalidateEventAvailability(_ context.Context, eventID string) error {
	delete(c.avail, eventID)
	c.invalidated = append(c.invalidated, eventID)
	return nil
}

func (c *fakeCache) AllowRequest(_ context.Context, _ string, _ int, _ time.Duration) (bool, error) {
	return true, nil
}

// fakeHasher keeps password tests fast; the real bcrypt hasher has its own
// tests in internal/security.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (fakeHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}

type fakeSigner struct{}

func (fakeSigner) SignAccessToken(userID, role string, _ time.Duration) (string, error) {
	return "token:" + userID + ":" + role, nil
}

func nopAudit() *audit.Logger { return audit.New(zerolog.Nop()) }
