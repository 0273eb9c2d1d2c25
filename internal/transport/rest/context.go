package rest

import (
	"context"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/service"
)

type ctxKeyAuth struct{}

type AuthContext struct {
	UserID string
	Role   domain.Role
}

func withAuth(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, ctxKeyAuth{}, a)
}

func GetAuth(ctx context.Context) (AuthContext, bool) {
	a, ok := ctx.Value(ctxKeyAuth{}).(AuthContext)
	return a, ok
}

func (a AuthContext) Actor() service.Actor {
	return service.Actor{ID: a.UserID, Role: a.Role}
}
