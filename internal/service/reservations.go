package service

import (
	"context"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/metrics"
	appCtx "github.com/eventmanager/booking-service/internal/pkg/context"
)

type ReservationService struct {
	reservations domain.ReservationRepository
	events       domain.EventRepository
	cache        domain.Cache
	audit        *audit.Logger
	clock        Clock
}

func NewReservationService(
	reservations domain.ReservationRepository,
	events domain.EventRepository,
	cache domain.Cache,
	aud *audit.Logger,
	clock Clock,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		events:       events,
		cache:        cache,
		audit:        aud,
		clock:        clock,
	}
}

// ownedBy loads the reservation and enforces the holder-or-admin rule.
// Organizers reach reservations through ListByEvent on their own events.
func (s *ReservationService) ownedBy(ctx context.Context, actor Actor, id string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden("not the holder of this reservation")
	}
	return res, nil
}

func (s *ReservationService) Create(ctx context.Context, actor Actor, eventID string, seats int) (*domain.Reservation, error) {
	res, err := s.reservations.Create(ctx, appCtx.GetRequestID(ctx), actor.ID, eventID, seats, s.clock.Now())
	if err != nil {
		if domain.CodeOf(err) == domain.CodeCapacityExceeded {
			metrics.RecordCapacityRejection()
		}
		return nil, err
	}
	metrics.RecordReservationCreated()
	s.audit.ReservationCreated(ctx, res.ID, res.EventID, actor.ID, res.Code, res.SeatCount)
	s.invalidateAvailability(ctx, res.EventID)
	return res, nil
}

func (s *ReservationService) Get(ctx context.Context, actor Actor, id string) (*domain.Reservation, error) {
	return s.ownedBy(ctx, actor, id)
}

func (s *ReservationService) ListMine(ctx context.Context, actor Actor) ([]*domain.Reservation, error) {
	return s.reservations.ListByUser(ctx, actor.ID)
}

func (s *ReservationService) ListByEvent(ctx context.Context, actor Actor, eventID string) ([]*domain.Reservation, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden("not the organizer of this event")
	}
	return s.reservations.ListByEvent(ctx, eventID)
}

func (s *ReservationService) Confirm(ctx context.Context, actor Actor, id string) (*domain.Reservation, error) {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return nil, err
	}
	res, err := s.reservations.UpdateStatus(ctx, appCtx.GetRequestID(ctx), id, domain.ReservationConfirmed, s.clock.Now())
	if err != nil {
		if domain.CodeOf(err) == domain.CodeCapacityExceeded {
			metrics.RecordCapacityRejection()
		}
		return nil, err
	}
	metrics.RecordReservationConfirmed()
	s.audit.ReservationStatusChanged(ctx, res.ID, res.EventID, string(res.Status))
	return res, nil
}

func (s *ReservationService) Cancel(ctx context.Context, actor Actor, id string) (*domain.Reservation, error) {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return nil, err
	}
	res, err := s.reservations.Cancel(ctx, appCtx.GetRequestID(ctx), id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordReservationCanceled()
	s.audit.ReservationCanceled(ctx, res.ID, res.EventID, actor.ID)
	s.invalidateAvailability(ctx, res.EventID)
	return res, nil
}

func (s *ReservationService) UpdateSeats(ctx context.Context, actor Actor, id string, seats int) (*domain.Reservation, error) {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return nil, err
	}
	res, err := s.reservations.UpdateSeats(ctx, id, seats, s.clock.Now())
	if err != nil {
		if domain.CodeOf(err) == domain.CodeCapacityExceeded {
			metrics.RecordCapacityRejection()
		}
		return nil, err
	}
	s.invalidateAvailability(ctx, res.EventID)
	return res, nil
}

func (s *ReservationService) invalidateAvailability(ctx context.Context, eventID string) {
	// best effort; a stale cached value only delays the public read view
	_ = s.cache.InvalidateEventAvailability(ctx, eventID)
}
