package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/lib/pq"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var userRowColumns = []string{"id", "email", "password_hash", "first_name", "last_name", "institution", "role", "created_at"}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	created := time.Date(2024, 7, 30, 9, 0, 0, 0, time.UTC)
	u := models.User{Email: "demo@genome.com", PasswordHash: []byte("hash"), FirstName: "Demo", LastName: "User", Institution: "GRI", Role: "researcher"}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password_hash, first_name, last_name, institution, role)`)).
		WithArgs(u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Institution, u.Role).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), created))

	got, err := repo.CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 1 || !got.CreatedAt.Equal(created) {
		t.Errorf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := repo.CreateUser(context.Background(), models.User{Email: "demo@genome.com"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreateUser_DBError(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(errors.New("db down"))

	_, err := repo.CreateUser(context.Background(), models.User{Email: "x@genome.com"})
	if err == nil || errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected plain db error, got %v", err)
	}
}

func TestUserByEmail(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		err     error
		wantErr error
	}{
		{
			name: "found",
			rows: sqlmock.NewRows(userRowColumns).
				AddRow(int64(3), "admin@genome.com", []byte("h"), "Admin", "User", "GCC", "admin", time.Now()),
		},
		{name: "missing", err: sql.ErrNoRows, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserMock(t)
			defer cleanup()

			q := mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).WithArgs("admin@genome.com")
			if tt.rows != nil {
				q.WillReturnRows(tt.rows)
			} else {
				q.WillReturnError(tt.err)
			}

			u, err := repo.UserByEmail(context.Background(), "admin@genome.com")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && (u.ID != 3 || u.Role != "admin") {
				t.Errorf("unexpected user: %+v", u)
			}
		})
	}
}

func TestUserByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	if _, err := repo.UserByID(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	upd := models.ProfileUpdate{FirstName: "Sarah", LastName: "Johnson", Institution: "HMS"}
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET first_name = $2, last_name = $3, institution = $4`)).
		WithArgs(int64(2), upd.FirstName, upd.LastName, upd.Institution).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(2), "researcher@genome.com", []byte("h"), "Sarah", "Johnson", "HMS", "researcher", time.Now()))

	u, err := repo.UpdateProfile(context.Background(), 2, upd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.FirstName != "Sarah" || u.Institution != "HMS" {
		t.Errorf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
