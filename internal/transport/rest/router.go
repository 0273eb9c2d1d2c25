package rest

import (
	"net/http"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/metrics"
	"github.com/eventmanager/booking-service/internal/security"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

type RouterDeps struct {
	Handler  *Handler
	Verifier security.AccessTokenVerifier

	// Cache backs the per-IP rate limit; when nil the router falls back
	// to httprate's in-process limiter.
	Cache     domain.Cache
	JWTIssuer string

	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(HTTPLogger)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	if d.RLEnabled {
		if d.Cache != nil {
			r.Use(RateLimitMiddleware(d.Cache, d.RLLimit, d.RLWindow))
		} else {
			r.Use(httprate.Limit(
				d.RLLimit,
				d.RLWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.Data(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Post("/auth/register", d.Handler.Register)
		r.With(httprate.LimitByIP(10, time.Minute)).Post("/auth/login", d.Handler.Login)

		r.Get("/events", d.Handler.ListEvents)
		r.Get("/events/{eventID}", d.Handler.GetEvent)
		r.Get("/events/{eventID}/availability", d.Handler.EventAvailability)

		// authenticated
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Verifier, AuthOptions{ExpectedIssuer: d.JWTIssuer}))

			r.Get("/me", d.Handler.Me)
			r.Patch("/me", d.Handler.UpdateMe)
			r.Post("/me/password", d.Handler.ChangePassword)
			r.Get("/me/reservations", d.Handler.MyReservations)

			r.Post("/reservations", d.Handler.CreateReservation)
			r.Get("/reservations/{reservationID}", d.Handler.GetReservation)
			r.Post("/reservations/{reservationID}/confirm", d.Handler.ConfirmReservation)
			r.Post("/reservations/{reservationID}/cancel", d.Handler.CancelReservation)
			r.Patch("/reservations/{reservationID}", d.Handler.UpdateReservationSeats)

			// organizer (ownership enforced by the services)
			r.Post("/events", d.Handler.CreateEvent)
			r.Patch("/events/{eventID}", d.Handler.UpdateEvent)
			r.Post("/events/{eventID}/publish", d.Handler.PublishEvent)
			r.Post("/events/{eventID}/cancel", d.Handler.CancelEvent)
			r.Delete("/events/{eventID}", d.Handler.DeleteEvent)
			r.Patch("/events/{eventID}/capacity", d.Handler.UpdateEventCapacity)
			r.Get("/organizer/events", d.Handler.MyEvents)
			r.Get("/events/{eventID}/stats", d.Handler.EventStats)
			r.Get("/events/{eventID}/reservations", d.Handler.EventReservations)

			// admin
			r.Get("/users", d.Handler.ListUsers)
			r.Patch("/users/{userID}/active", d.Handler.SetUserActive)
			r.Patch("/users/{userID}/role", d.Handler.SetUserRole)
		})
	})

	return r
}
