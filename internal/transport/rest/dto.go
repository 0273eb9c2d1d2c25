package rest

import (
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
)

type eventDTO struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	City        string    `json:"city,omitempty"`
	Capacity    int       `json:"capacity"`
	UnitPrice   float64   `json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toEventDTO(e *domain.Event) eventDTO {
	return eventDTO{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		Category:    string(e.Category),
		Status:      string(e.Status),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		City:        e.City,
		Capacity:    e.Capacity,
		UnitPrice:   e.UnitPrice,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEventDTOs(events []*domain.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	return out
}

type reservationDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	SeatCount int       `json:"seat_count"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toReservationDTO(res *domain.Reservation) reservationDTO {
	return reservationDTO{
		ID:        res.ID,
		UserID:    res.UserID,
		EventID:   res.EventID,
		SeatCount: res.SeatCount,
		Amount:    res.Amount,
		Status:    string(res.Status),
		Code:      res.Code,
		Comment:   res.Comment,
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}
}

func toReservationDTOs(list []*domain.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationDTO(r))
	}
	return out
}

// userDTO never carries the password hash.
type userDTO struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDTO(u *domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		Active:    u.Active,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

func toUserDTOs(list []*domain.User) []userDTO {
	out := make([]userDTO, 0, len(list))
	for _, u := range list {
		out = append(out, toUserDTO(u))
	}
	return out
}
