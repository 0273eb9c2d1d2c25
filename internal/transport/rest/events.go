package rest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

func eventIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "eventID")
	if _, err := uuid.Parse(id); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid eventID", map[string]string{
			"event_id": "must be a valid uuid",
		})
		return "", false
	}
	return id, true
}

// eventFilterFromQuery reads the discovery filters off the query string:
// ?category=&city=&q=&min_price=&max_price=
func eventFilterFromQuery(r *http.Request) (domain.EventFilter, error) {
	q := r.URL.Query()
	f := domain.EventFilter{
		City:    strings.TrimSpace(q.Get("city")),
		Keyword: strings.TrimSpace(q.Get("q")),
	}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c := domain.EventCategory(strings.ToLower(v))
		f.Category = &c
	}
	parsePrice := func(name string) (*float64, error) {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return nil, nil
		}
		price, err := strconv.ParseFloat(v, 64)
		if err != nil || price < 0 {
			return nil, domain.ErrValidation(name + " must be a non-negative number")
		}
		return &price, nil
	}

	var err error
	if f.MinPrice, err = parsePrice("min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice("max_price"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilterFromQuery(r)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	events, err := h.events.ListPublished(r.Context(), filter)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTOs(events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.events.Get(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(ev))
}

func (h *Handler) EventAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	seats, err := h.events.Availability(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]any{
		"event_id":        id,
		"available_seats": seats,
	})
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,min=5,max=100"`
	Description string    `json:"description" validate:"max=1000"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Location    string    `json:"location" validate:"max=200"`
	City        string    `json:"city" validate:"max=100"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
	UnitPrice   float64   `json:"unit_price" validate:"min=0"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	ev, err := h.events.Create(r.Context(), actor, domain.NewEventInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    domain.EventCategory(req.Category),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		City:        req.City,
		Capacity:    req.Capacity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toEventDTO(ev))
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
	City        *string    `json:"city"`
	UnitPrice   *float64   `json:"unit_price"`
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}

	var category *domain.EventCategory
	if req.Category != nil {
		c := domain.EventCategory(*req.Category)
		category = &c
	}

	ev, err := h.events.Update(r.Context(), actor, id, domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		City:        req.City,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(ev))
}

func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	ev, err := h.events.Publish(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(ev))
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// body is optional; an empty reason is fine
	_ = render.DecodeJSON(r.Body, &req)

	ev, err := h.events.Cancel(r.Context(), actor, id, strings.TrimSpace(req.Reason))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(ev))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	if err := h.events.Delete(r.Context(), actor, id); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"msg": "deleted"})
}

type updateCapacityRequest struct {
	Capacity int `json:"capacity" validate:"required,min=1"`
}

func (h *Handler) UpdateEventCapacity(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}

	var req updateCapacityRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	ev, err := h.events.UpdateCapacity(r.Context(), actor, id, req.Capacity)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTO(ev))
}

func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	events, err := h.events.ListByOrganizer(r.Context(), actor)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventDTOs(events))
}

func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	stats, err := h.events.Stats(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, stats)
}

func (h *Handler) EventReservations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	list, err := h.reservations.ListByEvent(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTOs(list))
}
