package rest

import (
	"net/http"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

func reservationIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "reservationID")
	if _, err := uuid.Parse(id); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid reservationID", map[string]string{
			"reservation_id": "must be a valid uuid",
		})
		return "", false
	}
	return id, true
}

type createReservationRequest struct {
	EventID   string `json:"event_id" validate:"required,uuid"`
	SeatCount int    `json:"seat_count" validate:"required,min=1,max=10"`
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	res, err := h.reservations.Create(r.Context(), actor, req.EventID, req.SeatCount)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handler) MyReservations(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	list, err := h.reservations.ListMine(r.Context(), actor)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTOs(list))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.reservations.Get(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.reservations.Confirm(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.reservations.Cancel(r.Context(), actor, id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTO(res))
}

type updateSeatsRequest struct {
	SeatCount int `json:"seat_count" validate:"required,min=1,max=10"`
}

func (h *Handler) UpdateReservationSeats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := reservationIDParam(w, r)
	if !ok {
		return
	}

	var req updateSeatsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	res, err := h.reservations.UpdateSeats(r.Context(), actor, id, req.SeatCount)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toReservationDTO(res))
}
