package rest

import (
	"errors"
	"net/http"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/logger"
	appCtx "github.com/eventmanager/booking-service/internal/pkg/context"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
)

func statusOf(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict,
		domain.CodeInvalidState,
		domain.CodeCapacityExceeded,
		domain.CodeEventNotBookable,
		domain.CodeEventFinished,
		domain.CodeHasReservations,
		domain.CodeCapacityBelowDemand:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *domain.AppError
	if errors.As(err, &ae) {
		fail(w, r, statusOf(ae.Code), string(ae.Code), ae.Message, ae.Meta)
		return
	}

	// Do not leak internal details.
	logger.WithCtx(r.Context()).Error().Err(err).Msg("unhandled error")
	fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appCtx.GetRequestID(r.Context())
	if reqID == "" {
		reqID = "no-request-id"
	}
	response.Fail(w, status, code, message, meta, reqID)
}
