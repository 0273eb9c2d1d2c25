package rest

import (
	"net/http"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "userID")
	if _, err := uuid.Parse(id); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid userID", map[string]string{
			"user_id": "must be a valid uuid",
		})
		return "", false
	}
	return id, true
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	list, err := h.users.List(r.Context(), actor)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserDTOs(list))
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	u, err := h.users.SetActive(r.Context(), actor, id, *req.Active)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserDTO(u))
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var req setRoleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	u, err := h.users.SetRole(r.Context(), actor, id, domain.Role(req.Role))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserDTO(u))
}
