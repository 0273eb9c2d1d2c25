package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/security"
	"github.com/eventmanager/booking-service/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories; the transactional paths have their own tests in
// internal/service and internal/infrastructure/postgres.

type memStore struct {
	events       map[string]*domain.Event
	reservations map[string]*domain.Reservation
	users        map[string]*domain.User
}

func newMemStore() *memStore {
	return &memStore{
		events:       map[string]*domain.Event{},
		reservations: map[string]*domain.Reservation{},
		users:        map[string]*domain.User{},
	}
}

func (s *memStore) activeSeats(eventID, excludeID string) int {
	total := 0
	for _, r := range s.reservations {
		if r.EventID == eventID && r.ID != excludeID && r.Status.Active() {
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
	return e, nil
}

func (m memEvents) Update(_ context.Context, e *domain.Event) error {
	m.events[e.ID] = e
	return nil
}

func (m memEvents) Delete(_ context.Context, id string) error {
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
	if err := e.ChangeStatus(status, now); err != nil {
		return nil, err
	}
	return e, nil
}

func (m memEvents) UpdateCapacity(_ context.Context, id string, capacity int, now time.Time) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	if err := e.UpdateCapacity(capacity, m.activeSeats(id, ""), now); err != nil {
		return nil, err
	}
	return e, nil
}

func (m memEvents) ListPublished(_ context.Context, f domain.EventFilter, now time.Time) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range m.events {
		if e.Status == domain.EventPublished && e.IsUpcoming(now) && f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEvents) ListByOrganizer(_ context.Context, organizerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range m.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m memEvents) ActiveSeats(_ context.Context, eventID string) (int, error) {
	return m.activeSeats(eventID, ""), nil
}

func (m memEvents) Stats(_ context.Context, eventID string) (*domain.EventStats, error) {
	return &domain.EventStats{EventID: eventID}, nil
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
	return res, nil
}

func (m memReservations) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound("reservation not found")
	}
	return r, nil
}

func (m memReservations) ListByUser(_ context.Context, userID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m memReservations) ListByEvent(_ context.Context, eventID string) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, r := range m.reservations {
		if r.EventID == eventID {
			out = append(out, r)
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
	return r, nil
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
	return r, nil
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
	return r, nil
}

func (m memReservations) ExpireStale(_ context.Context, olderThan, now time.Time) (int, error) {
	n := 0
	for _, r := range m.reservations {
		if r.CreatedAt.Before(olderThan) && r.Expire(now) {
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
	m.users[u.ID] = u
	return nil
}

func (m memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user not found")
	}
	return u, nil
}

func (m memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound("user not found")
}

func (m memUsers) Update(_ context.Context, u *domain.User) error {
	m.users[u.ID] = u
	return nil
}

func (m memUsers) List(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

type noopCache struct{}

func (noopCache) GetEventAvailability(context.Context, string) (int, error) {
	return 0, domain.ErrCacheMiss
}

func (noopCache) SetEventAvailability(context.Context, string, int, time.Duration) error { return nil }

func (noopCache) InvalidateEventAvailability(context.Context, string) error { return nil }

func (noopCache) AllowRequest(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

const testIssuer = "booking-service-test"

type testServer struct {
	store  *memStore
	router http.Handler
	signer *security.JWTSigner
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := newMemStore()
	clock := service.NewClock()
	aud := audit.New(zerolog.Nop())
	cache := noopCache{}
	signer := security.NewJWTSigner("test-secret", testIssuer)

	users := service.NewUserService(memUsers{store}, security.NewBcryptHasher(4), signer, aud, clock, time.Hour)
	events := service.NewEventService(memEvents{store}, cache, aud, clock, time.Minute)
	reservations := service.NewReservationService(memReservations{store}, memEvents{store}, cache, aud, clock)

	router := NewRouter(RouterDeps{
		Handler:   NewHandler(users, events, reservations),
		Verifier:  signer,
		Cache:     cache,
		JWTIssuer: testIssuer,
	})

	return &testServer{store: store, router: router, signer: signer}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) seedUser(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	u, err := domain.NewUser("Test", "User", email, "unused", "", time.Now())
	require.NoError(t, err)
	u.Role = role
	s.store.users[u.ID] = u

	token, err := s.signer.SignAccessToken(u.ID, string(role), time.Hour)
	require.NoError(t, err)
	return u, token
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Data
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var env struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Data
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"first_name": "Marie",
		"last_name":  "Dupont",
		"email":      "marie@example.com",
		"password":   "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	data := decodeData(t, rr)
	assert.Equal(t, "client", data["role"])
	assert.NotContains(t, rr.Body.String(), "password")

	rr = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "marie@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	token, _ := decodeData(t, rr)["access_token"].(string)
	require.NotEmpty(t, token)

	rr = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "marie@example.com", decodeData(t, rr)["email"])
}

func TestAuthFlow_Failures(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing_token", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage_token", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		other := security.NewJWTSigner("test-secret", "someone-else")
		u, _ := s.seedUser(t, "iss@example.com", domain.RoleClient)
		token, err := other.SignAccessToken(u.ID, "client", time.Hour)
		require.NoError(t, err)

		rr := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bad_login", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"email":    "nobody@example.com",
			"password": "whatever1",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		e := decodeError(t, rr)
		assert.Equal(t, "unauthorized", e["code"])
		assert.NotEmpty(t, e["request_id"])
	})

	t.Run("short_password_register", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"first_name": "A", "last_name": "B",
			"email": "x@example.com", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr)["code"])
	})
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, orgToken := s.seedUser(t, "org@example.com", domain.RoleOrganizer)
	_, clientToken := s.seedUser(t, "client@example.com", domain.RoleClient)

	body := map[string]any{
		"title":      "Summer Jazz Night",
		"category":   "concert",
		"start_time": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"end_time":   time.Now().Add(52 * time.Hour).Format(time.RFC3339),
		"city":       "Lyon",
		"capacity":   50,
		"unit_price": 20,
	}

	t.Run("client_cannot_create", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/events", clientToken, body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	var eventID string
	t.Run("organizer_creates_and_publishes", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/events", orgToken, body)
		require.Equal(t, http.StatusCreated, rr.Code)
		data := decodeData(t, rr)
		eventID, _ = data["id"].(string)
		require.NotEmpty(t, eventID)
		assert.Equal(t, "draft", data["status"])

		rr = s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/publish", orgToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "published", decodeData(t, rr)["status"])
	})

	t.Run("public_list_and_availability", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/events", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = s.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/availability", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(50), decodeData(t, rr)["available_seats"])
	})

	t.Run("list_filters", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/events?category=concert&city=lyon&q=jazz&max_price=30", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		list := decodeList(t, rr)
		require.Len(t, list, 1)
		assert.Equal(t, eventID, list[0]["id"])

		rr = s.do(t, http.MethodGet, "/api/v1/events?category=theatre", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeList(t, rr))

		rr = s.do(t, http.MethodGet, "/api/v1/events?min_price=100", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeList(t, rr))
	})

	t.Run("list_filter_validation", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/events?max_price=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr)["code"])

		rr = s.do(t, http.MethodGet, "/api/v1/events?category=opera", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid_uuid", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/events/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/events/00000000-0000-0000-0000-000000000001", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decodeError(t, rr)["code"])
	})
}

func TestReservationEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, orgToken := s.seedUser(t, "org@example.com", domain.RoleOrganizer)
	_, clientToken := s.seedUser(t, "client@example.com", domain.RoleClient)

	rr := s.do(t, http.MethodPost, "/api/v1/events", orgToken, map[string]any{
		"title":      "Capacity Bound Show",
		"start_time": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"end_time":   time.Now().Add(52 * time.Hour).Format(time.RFC3339),
		"capacity":   6,
		"unit_price": 15,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	eventID, _ := decodeData(t, rr)["id"].(string)
	rr = s.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/publish", orgToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/reservations", clientToken, map[string]any{
		"event_id":   eventID,
		"seat_count": 4,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	data := decodeData(t, rr)
	resID, _ := data["id"].(string)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, float64(60), data["amount"])

	t.Run("overbook_conflict_with_meta", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/reservations", clientToken, map[string]any{
			"event_id":   eventID,
			"seat_count": 3,
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
		e := decodeError(t, rr)
		assert.Equal(t, "capacity_exceeded", e["code"])
		meta, _ := e["meta"].(map[string]any)
		assert.Equal(t, "2", meta["available"])
		assert.Equal(t, "3", meta["requested"])
	})

	t.Run("confirm_then_cancel", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/reservations/"+resID+"/confirm", clientToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "confirmed", decodeData(t, rr)["status"])

		rr = s.do(t, http.MethodPost, "/api/v1/reservations/"+resID+"/cancel", clientToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "canceled", decodeData(t, rr)["status"])

		rr = s.do(t, http.MethodPost, "/api/v1/reservations/"+resID+"/cancel", clientToken, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "invalid_state", decodeError(t, rr)["code"])
	})

	t.Run("foreign_reservation_forbidden", func(t *testing.T) {
		_, otherToken := s.seedUser(t, "other@example.com", domain.RoleClient)
		rr := s.do(t, http.MethodPost, "/api/v1/reservations", otherToken, map[string]any{
			"event_id":   eventID,
			"seat_count": 1,
		})
		require.Equal(t, http.StatusCreated, rr.Code)
		otherRes, _ := decodeData(t, rr)["id"].(string)

		rr = s.do(t, http.MethodGet, "/api/v1/reservations/"+otherRes, clientToken, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("my_reservations", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/me/reservations", clientToken, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.seedUser(t, "admin@example.com", domain.RoleAdmin)
	target, clientToken := s.seedUser(t, "member@example.com", domain.RoleClient)

	t.Run("non_admin_forbidden", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/users", clientToken, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("promote_to_organizer", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/api/v1/users/"+target.ID+"/role", adminToken, map[string]any{
			"role": "organizer",
		})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "organizer", decodeData(t, rr)["role"])
	})

	t.Run("deactivate", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/api/v1/users/"+target.ID+"/active", adminToken, map[string]any{
			"active": false,
		})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, false, decodeData(t, rr)["active"])
	})
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decodeData(t, rr)["status"])
}
