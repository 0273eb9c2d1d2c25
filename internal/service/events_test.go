package service

import (
	"context"
	"testing"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memStore
	cache *fakeCache
	clock *fakeClock

	events       *EventService
	reservations *ReservationService
	users        *UserService
}

func newFixture() *fixture {
	store := newMemStore()
	cache := newFakeCache()
	clock := &fakeClock{now: time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)}
	aud := nopAudit()

	return &fixture{
		store: store,
		cache: cache,
		clock: clock,
		events: NewEventService(
			memEvents{store}, cache, aud, clock, time.Minute),
		reservations: NewReservationService(
			memReservations{store}, memEvents{store}, cache, aud, clock),
		users: NewUserService(
			memUsers{store}, fakeHasher{}, fakeSigner{}, aud, clock, 15*time.Minute),
	}
}

func (f *fixture) eventInput() domain.NewEventInput {
	return domain.NewEventInput{
		Title:     "Summer Jazz Night",
		Category:  domain.CategoryConcert,
		StartTime: f.clock.now.Add(48 * time.Hour),
		EndTime:   f.clock.now.Add(52 * time.Hour),
		Location:  "Grand Hall",
		City:      "Lyon",
		Capacity:  50,
		UnitPrice: 20,
	}
}

func (f *fixture) seedPublished(t *testing.T, organizerID string, capacity int, price float64) *domain.Event {
	t.Helper()
	in := f.eventInput()
	in.OrganizerID = organizerID
	in.Capacity = capacity
	in.UnitPrice = price
	ev, err := domain.NewEvent(in, f.clock.now)
	require.NoError(t, err)
	require.NoError(t, ev.Publish(f.clock.now))
	f.store.events[ev.ID] = ev
	return ev
}

var (
	organizer = Actor{ID: "org-1", Role: domain.RoleOrganizer}
	admin     = Actor{ID: "adm-1", Role: domain.RoleAdmin}
	client    = Actor{ID: "usr-1", Role: domain.RoleClient}
)

func TestEventService_Create(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("client_forbidden", func(t *testing.T) {
		_, err := f.events.Create(ctx, client, f.eventInput())
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("organizer_creates_draft", func(t *testing.T) {
		in := f.eventInput()
		in.OrganizerID = "someone-else" // caller cannot assign ownership
		ev, err := f.events.Create(ctx, organizer, in)
		require.NoError(t, err)
		assert.Equal(t, organizer.ID, ev.OrganizerID)
		assert.Equal(t, domain.EventDraft, ev.Status)
	})
}

func TestEventService_Publish(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ev, err := f.events.Create(ctx, organizer, f.eventInput())
	require.NoError(t, err)

	t.Run("non_owner_forbidden", func(t *testing.T) {
		other := Actor{ID: "org-2", Role: domain.RoleOrganizer}
		_, err := f.events.Publish(ctx, other, ev.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("owner_publishes", func(t *testing.T) {
		got, err := f.events.Publish(ctx, organizer, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EventPublished, got.Status)
	})

	t.Run("second_publish_invalid", func(t *testing.T) {
		_, err := f.events.Publish(ctx, organizer, ev.ID)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	t.Run("admin_may_publish_any_event", func(t *testing.T) {
		other, err := f.events.Create(ctx, organizer, f.eventInput())
		require.NoError(t, err)
		_, err = f.events.Publish(ctx, admin, other.ID)
		assert.NoError(t, err)
	})
}

func TestEventService_ListPublished_Filters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	jazz := f.seedPublished(t, organizer.ID, 50, 20) // concert, Lyon
	meetup := f.seedPublished(t, organizer.ID, 50, 80)
	meetup.Category = domain.CategoryConference
	meetup.City = "Paris"
	meetup.Title = "Go Developers Meetup"

	_, err := f.events.Create(ctx, organizer, f.eventInput()) // stays draft
	require.NoError(t, err)

	ids := func(events []*domain.Event) []string {
		var out []string
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	t.Run("unfiltered_lists_published_only", func(t *testing.T) {
		list, err := f.events.ListPublished(ctx, domain.EventFilter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{jazz.ID, meetup.ID}, ids(list))
	})

	t.Run("by_category", func(t *testing.T) {
		c := domain.CategoryConcert
		list, err := f.events.ListPublished(ctx, domain.EventFilter{Category: &c})
		require.NoError(t, err)
		assert.Equal(t, []string{jazz.ID}, ids(list))
	})

	t.Run("by_city_case_insensitive", func(t *testing.T) {
		list, err := f.events.ListPublished(ctx, domain.EventFilter{City: "paris"})
		require.NoError(t, err)
		assert.Equal(t, []string{meetup.ID}, ids(list))
	})

	t.Run("by_keyword", func(t *testing.T) {
		list, err := f.events.ListPublished(ctx, domain.EventFilter{Keyword: "meetup"})
		require.NoError(t, err)
		assert.Equal(t, []string{meetup.ID}, ids(list))
	})

	t.Run("by_price_bound", func(t *testing.T) {
		max := 30.0
		list, err := f.events.ListPublished(ctx, domain.EventFilter{MaxPrice: &max})
		require.NoError(t, err)
		assert.Equal(t, []string{jazz.ID}, ids(list))
	})

	t.Run("unknown_category_rejected", func(t *testing.T) {
		c := domain.EventCategory("opera")
		_, err := f.events.ListPublished(ctx, domain.EventFilter{Category: &c})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("inverted_price_bounds_rejected", func(t *testing.T) {
		lo, hi := 10.0, 5.0
		_, err := f.events.ListPublished(ctx, domain.EventFilter{MinPrice: &lo, MaxPrice: &hi})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})
}

func TestEventService_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.seedPublished(t, organizer.ID, 50, 20)

	_, err := f.reservations.Create(ctx, client, ev.ID, 3)
	require.NoError(t, err)
	other := Actor{ID: "usr-2", Role: domain.RoleClient}
	_, err = f.reservations.Create(ctx, other, ev.ID, 2)
	require.NoError(t, err)

	got, err := f.events.Cancel(ctx, organizer, ev.ID, "venue flooded")
	require.NoError(t, err)
	assert.Equal(t, domain.EventCanceled, got.Status)
	assert.Equal(t, 2, f.store.cancellationNotices)

	_, err = f.events.Cancel(ctx, organizer, ev.ID, "again")
	assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
}

func TestEventService_UpdateCapacity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.seedPublished(t, organizer.ID, 20, 10)

	_, err := f.reservations.Create(ctx, client, ev.ID, 8)
	require.NoError(t, err)

	_, err = f.events.UpdateCapacity(ctx, organizer, ev.ID, 5)
	assert.Equal(t, domain.CodeCapacityBelowDemand, domain.CodeOf(err))

	got, err := f.events.UpdateCapacity(ctx, organizer, ev.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Capacity)
	assert.Contains(t, f.cache.invalidated, ev.ID)
}

func TestEventService_Availability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.seedPublished(t, organizer.ID, 50, 10)

	t.Run("miss_computes_and_caches", func(t *testing.T) {
		seats, err := f.events.Availability(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, seats)
		assert.Equal(t, 50, f.cache.avail[ev.ID])
	})

	t.Run("reservation_invalidates", func(t *testing.T) {
		_, err := f.reservations.Create(ctx, client, ev.ID, 4)
		require.NoError(t, err)

		seats, err := f.events.Availability(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 46, seats)
	})

	t.Run("unknown_event", func(t *testing.T) {
		_, err := f.events.Availability(ctx, "missing")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}

func TestEventService_Stats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.seedPublished(t, organizer.ID, 50, 10)

	res, err := f.reservations.Create(ctx, client, ev.ID, 7)
	require.NoError(t, err)
	_, err = f.reservations.Confirm(ctx, client, res.ID)
	require.NoError(t, err)
	_, err = f.reservations.Create(ctx, client, ev.ID, 3)
	require.NoError(t, err)

	t.Run("owner_only", func(t *testing.T) {
		_, err := f.events.Stats(ctx, client, ev.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("summary", func(t *testing.T) {
		st, err := f.events.Stats(ctx, organizer, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, st.TotalReservations)
		assert.Equal(t, 1, st.Confirmed)
		assert.Equal(t, 1, st.Pending)
		assert.Equal(t, 10, st.SeatsReserved)
		assert.Equal(t, 100.0, st.Revenue)
		assert.Equal(t, 20.0, st.FillRate)
	})
}

func TestEventService_Delete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ev := f.seedPublished(t, organizer.ID, 10, 0)

	_, err := f.reservations.Create(ctx, client, ev.ID, 1)
	require.NoError(t, err)

	err = f.events.Delete(ctx, organizer, ev.ID)
	assert.Equal(t, domain.CodeHasReservations, domain.CodeOf(err))

	empty := f.seedPublished(t, organizer.ID, 10, 0)
	require.NoError(t, f.events.Delete(ctx, organizer, empty.ID))
	_, err = f.events.Get(ctx, empty.ID)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}
