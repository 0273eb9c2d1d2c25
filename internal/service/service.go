package service

import (
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
)

// Clock lets tests pin the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func NewClock() Clock { return realClock{} }

// Actor is the authenticated principal performing an operation, taken from
// the access token by the transport layer.
type Actor struct {
	ID   string
	Role domain.Role
}

func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

func (a Actor) CanManageEvents() bool { return a.Role.AtLeast(domain.RoleOrganizer) }
