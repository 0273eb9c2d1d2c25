package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Active       bool
	Phone        string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewUser(firstName, lastName, email, passwordHash, phone string, now time.Time) (*User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	if firstName == "" || lastName == "" {
		return nil, ErrValidation("first_name and last_name are required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation("a valid email is required")
	}
	if passwordHash == "" {
		return nil, ErrValidation("password hash is required")
	}

	return &User{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleClient,
		Active:       true,
		Phone:        phone,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type UserUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

func (u *User) ApplyUpdate(up UserUpdate, now time.Time) error {
	if up.FirstName != nil {
		v := strings.TrimSpace(*up.FirstName)
		if v == "" {
			return ErrValidation("first_name must not be empty")
		}
		u.FirstName = v
	}
	if up.LastName != nil {
		v := strings.TrimSpace(*up.LastName)
		if v == "" {
			return ErrValidation("last_name must not be empty")
		}
		u.LastName = v
	}
	if up.Phone != nil {
		u.Phone = strings.TrimSpace(*up.Phone)
	}
	u.UpdatedAt = now.UTC()
	return nil
}
