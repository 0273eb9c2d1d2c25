package domain

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCanceled  EventStatus = "canceled"
	EventFinished  EventStatus = "finished"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCanceled, EventFinished:
		return true
	}
	return false
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCanceled  ReservationStatus = "canceled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCanceled:
		return true
	}
	return false
}

// Active means the reservation holds seats against event capacity.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

type EventCategory string

const (
	CategoryConcert    EventCategory = "concert"
	CategoryConference EventCategory = "conference"
	CategorySport      EventCategory = "sport"
	CategoryTheatre    EventCategory = "theatre"
	CategoryFestival   EventCategory = "festival"
	CategoryOther      EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryConcert, CategoryConference, CategorySport, CategoryTheatre, CategoryFestival, CategoryOther:
		return true
	}
	return false
}

// NormalizeCategory maps the empty string to the default category.
func NormalizeCategory(c EventCategory) EventCategory {
	if c == "" {
		return CategoryOther
	}
	return c
}
