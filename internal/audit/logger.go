package audit

import (
	"context"

	appCtx "github.com/eventmanager/booking-service/internal/pkg/context"
	"github.com/rs/zerolog"
)

// Logger provides structured audit logging for business events
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

func (l *Logger) ReservationCreated(ctx context.Context, reservationID, eventID, userID, code string, seats int) {
	l.log.Info().
		Str("action", "reservation_created").
		Str("reservation_id", reservationID).
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("code", code).
		Int("seats", seats).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Reservation created")
}

func (l *Logger) ReservationStatusChanged(ctx context.Context, reservationID, eventID string, status string) {
	l.log.Info().
		Str("action", "reservation_status_changed").
		Str("reservation_id", reservationID).
		Str("event_id", eventID).
		Str("status", status).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Reservation status changed")
}

func (l *Logger) ReservationCanceled(ctx context.Context, reservationID, eventID, actorID string) {
	l.log.Info().
		Str("action", "reservation_canceled").
		Str("reservation_id", reservationID).
		Str("event_id", eventID).
		Str("actor_user_id", actorID).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Reservation canceled")
}

func (l *Logger) EventStatusChanged(ctx context.Context, eventID, actorID string, status string) {
	l.log.Info().
		Str("action", "event_status_changed").
		Str("event_id", eventID).
		Str("actor_user_id", actorID).
		Str("status", status).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Event status changed")
}

func (l *Logger) EventDeleted(ctx context.Context, eventID, actorID string) {
	l.log.Warn().
		Str("action", "event_deleted").
		Str("event_id", eventID).
		Str("actor_user_id", actorID).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Event deleted")
}

func (l *Logger) CapacityChanged(ctx context.Context, eventID, actorID string, capacity int) {
	l.log.Info().
		Str("action", "capacity_changed").
		Str("event_id", eventID).
		Str("actor_user_id", actorID).
		Int("capacity", capacity).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("Event capacity changed")
}

func (l *Logger) UserRoleChanged(ctx context.Context, userID, actorID, role string) {
	l.log.Warn().
		Str("action", "user_role_changed").
		Str("user_id", userID).
		Str("actor_user_id", actorID).
		Str("role", role).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("User role changed")
}

func (l *Logger) UserActiveChanged(ctx context.Context, userID, actorID string, active bool) {
	l.log.Warn().
		Str("action", "user_active_changed").
		Str("user_id", userID).
		Str("actor_user_id", actorID).
		Bool("active", active).
		Str("trace_id", appCtx.GetRequestID(ctx)).
		Msg("User activation changed")
}
