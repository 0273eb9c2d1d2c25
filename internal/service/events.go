package service

import (
	"context"
	"errors"
	"time"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/logger"
	"github.com/eventmanager/booking-service/internal/metrics"
	appCtx "github.com/eventmanager/booking-service/internal/pkg/context"
)

type EventService struct {
	events domain.EventRepository
	cache  domain.Cache
	audit  *audit.Logger
	clock  Clock

	availabilityTTL time.Duration
}

func NewEventService(events domain.EventRepository, cache domain.Cache, aud *audit.Logger, clock Clock, availabilityTTL time.Duration) *EventService {
	return &EventService{
		events:          events,
		cache:           cache,
		audit:           aud,
		clock:           clock,
		availabilityTTL: availabilityTTL,
	}
}

// ownedBy loads the event and enforces the owner-or-admin rule shared by
// every organizer operation.
func (s *EventService) ownedBy(ctx context.Context, actor Actor, eventID string) (*domain.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != actor.ID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden("not the organizer of this event")
	}
	return ev, nil
}

func (s *EventService) Create(ctx context.Context, actor Actor, in domain.NewEventInput) (*domain.Event, error) {
	if !actor.CanManageEvents() {
		return nil, domain.ErrForbidden("only organizers can create events")
	}
	in.OrganizerID = actor.ID

	ev, err := domain.NewEvent(in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}

func (s *EventService) ListPublished(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	if f.Category != nil && !f.Category.Valid() {
		return nil, domain.ErrValidation("unknown category")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, domain.ErrValidation("min_price must be <= max_price")
	}
	return s.events.ListPublished(ctx, f, s.clock.Now())
}

func (s *EventService) ListByOrganizer(ctx context.Context, actor Actor) ([]*domain.Event, error) {
	if !actor.CanManageEvents() {
		return nil, domain.ErrForbidden("only organizers have an event list")
	}
	return s.events.ListByOrganizer(ctx, actor.ID)
}

func (s *EventService) Update(ctx context.Context, actor Actor, id string, u domain.EventUpdate) (*domain.Event, error) {
	ev, err := s.ownedBy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := ev.ApplyUpdate(u, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *EventService) Publish(ctx context.Context, actor Actor, id string) (*domain.Event, error) {
	ev, err := s.ownedBy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	// Validate the transition here; the repository applies it under the row lock.
	if err := ev.Publish(now); err != nil {
		return nil, err
	}

	ev, err = s.events.ChangeStatus(ctx, appCtx.GetRequestID(ctx), id, domain.EventPublished, "", now)
	if err != nil {
		return nil, err
	}
	metrics.RecordEventPublished()
	s.audit.EventStatusChanged(ctx, id, actor.ID, string(domain.EventPublished))
	return ev, nil
}

func (s *EventService) Cancel(ctx context.Context, actor Actor, id, reason string) (*domain.Event, error) {
	ev, err := s.ownedBy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch ev.Status {
	case domain.EventCanceled:
		return nil, domain.ErrInvalidState("event already canceled")
	case domain.EventFinished:
		return nil, domain.ErrEventFinished("finished event cannot be canceled")
	}

	ev, err = s.events.ChangeStatus(ctx, appCtx.GetRequestID(ctx), id, domain.EventCanceled, reason, s.clock.Now())
	if err != nil {
		return nil, err
	}
	metrics.RecordEventCanceled()
	s.audit.EventStatusChanged(ctx, id, actor.ID, string(domain.EventCanceled))
	s.invalidateAvailability(ctx, id)
	return ev, nil
}

func (s *EventService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.EventDeleted(ctx, id, actor.ID)
	s.invalidateAvailability(ctx, id)
	return nil
}

func (s *EventService) UpdateCapacity(ctx context.Context, actor Actor, id string, capacity int) (*domain.Event, error) {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return nil, err
	}
	ev, err := s.events.UpdateCapacity(ctx, id, capacity, s.clock.Now())
	if err != nil {
		return nil, err
	}
	s.audit.CapacityChanged(ctx, id, actor.ID, capacity)
	s.invalidateAvailability(ctx, id)
	return ev, nil
}

func (s *EventService) Stats(ctx context.Context, actor Actor, id string) (*domain.EventStats, error) {
	if _, err := s.ownedBy(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.events.Stats(ctx, id)
}

// Availability serves reads through the cache. The cached value is advisory;
// admission always re-checks under the event row lock.
func (s *EventService) Availability(ctx context.Context, id string) (int, error) {
	if seats, err := s.cache.GetEventAvailability(ctx, id); err == nil {
		return seats, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.WithCtx(ctx).Warn().Err(err).Str("event_id", id).Msg("availability cache read failed")
	}

	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	reserved, err := s.events.ActiveSeats(ctx, id)
	if err != nil {
		return 0, err
	}
	seats := domain.AvailableSeats(ev.Capacity, reserved)

	if err := s.cache.SetEventAvailability(ctx, id, seats, s.availabilityTTL); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("event_id", id).Msg("availability cache write failed")
	}
	return seats, nil
}

func (s *EventService) invalidateAvailability(ctx context.Context, id string) {
	if err := s.cache.InvalidateEventAvailability(ctx, id); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("event_id", id).Msg("availability cache invalidation failed")
	}
}
