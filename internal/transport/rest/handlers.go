package rest

import (
	"net/http"

	"github.com/eventmanager/booking-service/internal/service"
)

type Handler struct {
	users        *service.UserService
	events       *service.EventService
	reservations *service.ReservationService
}

func NewHandler(users *service.UserService, events *service.EventService, reservations *service.ReservationService) *Handler {
	return &Handler{users: users, events: events, reservations: reservations}
}

// requireAuth fetches the actor placed in context by AuthMiddleware.
func requireAuth(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		unauthorized(w, r)
		return service.Actor{}, false
	}
	return auth.Actor(), true
}
