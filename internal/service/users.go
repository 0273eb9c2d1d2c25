package service

import (
	"context"
	"time"

	"github.com/eventmanager/booking-service/internal/audit"
	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/eventmanager/booking-service/internal/security"
)

const minPasswordLength = 8

type UserService struct {
	users  domain.UserRepository
	hasher security.PasswordHasher
	signer security.TokenSigner
	audit  *audit.Logger
	clock  Clock

	tokenTTL time.Duration
}

func NewUserService(
	users domain.UserRepository,
	hasher security.PasswordHasher,
	signer security.TokenSigner,
	aud *audit.Logger,
	clock Clock,
	tokenTTL time.Duration,
) *UserService {
	return &UserService{
		users:    users,
		hasher:   hasher,
		signer:   signer,
		audit:    aud,
		clock:    clock,
		tokenTTL: tokenTTL,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrValidation("password must be at least 8 characters")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := domain.NewUser(in.FirstName, in.LastName, in.Email, hash, in.Phone, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate returns the same error for an unknown email and a wrong
// password so the endpoint cannot be used to enumerate accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (string, *domain.User, error) {
	badCredentials := domain.ErrUnauthorized("invalid email or password")

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return "", nil, badCredentials
		}
		return "", nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return "", nil, badCredentials
	}
	if !u.Active {
		return "", nil, domain.ErrForbidden("account is deactivated")
	}

	token, err := s.signer.SignAccessToken(u.ID, string(u.Role), s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, up domain.UserUpdate) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if err := u.ApplyUpdate(up, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrValidation("password must be at least 8 characters")
	}
	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(u.PasswordHash, oldPassword); err != nil {
		return domain.ErrUnauthorized("current password is incorrect")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.clock.Now().UTC()
	return s.users.Update(ctx, u)
}

func (s *UserService) SetActive(ctx context.Context, actor Actor, userID string, active bool) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden("admin only")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Active = active
	u.UpdatedAt = s.clock.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.audit.UserActiveChanged(ctx, userID, actor.ID, active)
	return u, nil
}

func (s *UserService) SetRole(ctx context.Context, actor Actor, userID string, role domain.Role) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden("admin only")
	}
	if !role.Valid() {
		return nil, domain.ErrValidation("unknown role")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.UpdatedAt = s.clock.Now().UTC()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.audit.UserRoleChanged(ctx, userID, actor.ID, string(role))
	return u, nil
}

func (s *UserService) List(ctx context.Context, actor Actor) ([]*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden("admin only")
	}
	return s.users.List(ctx)
}
