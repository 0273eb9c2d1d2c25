package rest

import (
	"net/http"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/service"
	"github.com/eventmanager/booking-service/internal/transport/rest/response"
	"github.com/go-chi/render"
)

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	Phone     string `json:"phone" validate:"max=30"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.Data(w, http.StatusCreated, toUserDTO(u))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	token, u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"user":         toUserDTO(u),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), actor.ID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserDTO(u))
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), actor, domain.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserDTO(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, string(domain.CodeValidation), "invalid body", nil)
		return
	}
	if err := validateRequest(req); err != nil {
		handleErr(w, r, err)
		return
	}

	if err := h.users.ChangePassword(r.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"msg": "password changed"})
}
