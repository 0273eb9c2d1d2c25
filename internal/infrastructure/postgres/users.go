package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, active, phone, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Active, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound("user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, active, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.Active, u.Phone,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("email already registered")
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5,
		    role = $6, active = $7, phone = $8, updated_at = $9
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash,
		u.Role, u.Active, u.Phone, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict("email already registered")
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("user not found")
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
