package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          string
	OrganizerID string
	Title       string
	Description string
	Category    EventCategory
	Status      EventStatus

	StartTime time.Time
	EndTime   time.Time
	Location  string
	City      string

	Capacity  int
	UnitPrice float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewEventInput struct {
	OrganizerID string
	Title       string
	Description string
	Category    EventCategory
	StartTime   time.Time
	EndTime     time.Time
	Location    string
	City        string
	Capacity    int
	UnitPrice   float64
}

func NewEvent(in NewEventInput, now time.Time) (*Event, error) {
	in.OrganizerID = strings.TrimSpace(in.OrganizerID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.City = strings.TrimSpace(in.City)
	in.Category = NormalizeCategory(in.Category)

	if in.OrganizerID == "" {
		return nil, ErrValidation("organizer_id is required")
	}
	if len(in.Title) < 5 || len(in.Title) > 100 {
		return nil, ErrValidation("title must be between 5 and 100 chars")
	}
	if len(in.Description) > 1000 {
		return nil, ErrValidation("description must be <= 1000 chars")
	}
	if !in.Category.Valid() {
		return nil, ErrValidation("unknown category")
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() {
		return nil, ErrValidation("start_time and end_time are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, ErrValidation("end_time must be after start_time")
	}
	if !in.StartTime.After(now) {
		return nil, ErrValidation("start_time must be in the future")
	}
	if in.Capacity <= 0 {
		return nil, ErrValidation("capacity must be > 0")
	}
	if in.UnitPrice < 0 {
		return nil, ErrValidation("unit_price must be >= 0")
	}

	return &Event{
		ID:          uuid.NewString(),
		OrganizerID: in.OrganizerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      EventDraft,
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		Location:    in.Location,
		City:        in.City,
		Capacity:    in.Capacity,
		UnitPrice:   in.UnitPrice,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func (e *Event) IsUpcoming(now time.Time) bool { return e.StartTime.After(now) }

func (e *Event) InProgress(now time.Time) bool {
	return !now.Before(e.StartTime) && now.Before(e.EndTime)
}

func (e *Event) IsPast(now time.Time) bool { return !now.Before(e.EndTime) }

// Bookable reports whether new reservations may target this event.
func (e *Event) Bookable(now time.Time) error {
	if e.Status != EventPublished {
		return ErrEventNotBookable("event is not published")
	}
	if !e.IsUpcoming(now) {
		return ErrEventNotBookable("event has already started")
	}
	return nil
}

func (e *Event) Publish(now time.Time) error {
	if e.Status != EventDraft {
		return ErrInvalidState("only a draft event can be published")
	}
	if !e.StartTime.After(now) {
		return ErrValidation("cannot publish an event that starts in the past")
	}
	e.Status = EventPublished
	e.UpdatedAt = now.UTC()
	return nil
}

// ChangeStatus applies an unconditional status transition.
func (e *Event) ChangeStatus(status EventStatus, now time.Time) error {
	if !status.Valid() {
		return ErrValidation("unknown event status")
	}
	e.Status = status
	e.UpdatedAt = now.UTC()
	return nil
}

type EventUpdate struct {
	Title       *string
	Description *string
	Category    *EventCategory
	StartTime   *time.Time
	EndTime     *time.Time
	Location    *string
	City        *string
	UnitPrice   *float64
}

// ApplyUpdate patches the event in place; nil fields are left untouched.
func (e *Event) ApplyUpdate(u EventUpdate, now time.Time) error {
	if e.Status == EventFinished || e.IsPast(now) {
		return ErrEventFinished("finished event cannot be updated")
	}
	if e.Status == EventCanceled {
		return ErrInvalidState("canceled event cannot be updated")
	}

	if u.Title != nil {
		v := strings.TrimSpace(*u.Title)
		if len(v) < 5 || len(v) > 100 {
			return ErrValidation("title must be between 5 and 100 chars")
		}
		e.Title = v
	}
	if u.Description != nil {
		v := strings.TrimSpace(*u.Description)
		if len(v) > 1000 {
			return ErrValidation("description must be <= 1000 chars")
		}
		e.Description = v
	}
	if u.Category != nil {
		c := NormalizeCategory(*u.Category)
		if !c.Valid() {
			return ErrValidation("unknown category")
		}
		e.Category = c
	}
	if u.StartTime != nil {
		e.StartTime = u.StartTime.UTC()
	}
	if u.EndTime != nil {
		e.EndTime = u.EndTime.UTC()
	}
	if (u.StartTime != nil || u.EndTime != nil) && !e.EndTime.After(e.StartTime) {
		return ErrValidation("end_time must be after start_time")
	}
	if u.Location != nil {
		e.Location = strings.TrimSpace(*u.Location)
	}
	if u.City != nil {
		e.City = strings.TrimSpace(*u.City)
	}
	if u.UnitPrice != nil {
		if *u.UnitPrice < 0 {
			return ErrValidation("unit_price must be >= 0")
		}
		e.UnitPrice = *u.UnitPrice
	}

	e.UpdatedAt = now.UTC()
	return nil
}

// UpdateCapacity validates the new capacity against seats already held.
func (e *Event) UpdateCapacity(capacity, activeSeats int, now time.Time) error {
	if capacity <= 0 {
		return ErrValidation("capacity must be > 0")
	}
	if capacity < activeSeats {
		return ErrCapacityBelowDemand(activeSeats)
	}
	e.Capacity = capacity
	e.UpdatedAt = now.UTC()
	return nil
}

// EventFilter narrows the public event listing. Zero values mean "no
// constraint"; Keyword searches title and description.
type EventFilter struct {
	Category *EventCategory
	City     string
	Keyword  string
	MinPrice *float64
	MaxPrice *float64
}

// Matches reports whether the event satisfies every set constraint. The SQL
// listing applies the same predicates; both paths must agree.
func (f EventFilter) Matches(e *Event) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.City != "" && !strings.EqualFold(e.City, f.City) {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(e.Title), kw) &&
			!strings.Contains(strings.ToLower(e.Description), kw) {
			return false
		}
	}
	if f.MinPrice != nil && e.UnitPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && e.UnitPrice > *f.MaxPrice {
		return false
	}
	return true
}

// EventStats is the per-event reservation summary for organizers.
type EventStats struct {
	EventID           string  `json:"event_id"`
	TotalReservations int     `json:"total_reservations"`
	Pending           int     `json:"pending"`
	Confirmed         int     `json:"confirmed"`
	Canceled          int     `json:"canceled"`
	SeatsReserved     int     `json:"seats_reserved"`
	Revenue           float64 `json:"revenue"`
	FillRate          float64 `json:"fill_rate"`
}
