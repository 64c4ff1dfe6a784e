package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for a unique constraint.
const uniqueViolation = "23505"

// PostgresUserRepository stores accounts in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, institution, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Institution, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

// CreateUser inserts u and returns it with its id and creation time set.
// A duplicate email yields ErrEmailTaken.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, institution, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Institution, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

// UserByEmail fetches the account registered under email.
func (r *PostgresUserRepository) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UserByID fetches the account with the given id.
func (r *PostgresUserRepository) UserByID(ctx context.Context, id int64) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateProfile overwrites the editable profile fields of a user.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (models.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `
		UPDATE users SET first_name = $2, last_name = $3, institution = $4
		WHERE id = $1
		RETURNING `+userColumns,
		id, upd.FirstName, upd.LastName, upd.Institution))
}
