package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/google/uuid"
)

func setupCollaborationMock(t *testing.T) (*PostgresCollaborationRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresCollaborationRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

var collaborationRowColumns = []string{"id", "uuid", "title", "description", "status", "created_at", "owner_id"}

func TestCreateCollaboration_Success(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	nc := models.NewCollaboration{Title: "Height Genetics Consortium", Description: "height"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO collaborations (uuid, owner_id, title, description, status)`)).
		WithArgs(sqlmock.AnyArg(), int64(3), nc.Title, nc.Description, models.CollaborationStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO collaboration_participants (collaboration_id, user_id)`)).
		WithArgs(int64(10), int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	c, err := repo.CreateCollaboration(context.Background(), 3, nc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := uuid.Parse(c.UUID); err != nil {
		t.Errorf("expected a uuid, got %q", c.UUID)
	}
	if c.ID != 10 || c.OwnerID != 3 || c.Status != models.CollaborationStatusActive {
		t.Errorf("unexpected collaboration: %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateCollaboration_ParticipantFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO collaborations`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO collaboration_participants`)).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	if _, err := repo.CreateCollaboration(context.Background(), 3, models.NewCollaboration{Title: "t"}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCollaborationByUUID(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	id := uuid.NewString()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM collaborations c WHERE c.uuid = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(collaborationRowColumns).
			AddRow(int64(1), id, "Diabetes Genetics Research", "d", "active", time.Now(), int64(2)))

	c, err := repo.CollaborationByUUID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.UUID != id || c.OwnerID != 2 {
		t.Errorf("unexpected collaboration: %+v", c)
	}
}

func TestCollaborationByUUID_Invalid(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	if _, err := repo.CollaborationByUUID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}

func TestIsParticipant(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM collaboration_participants WHERE collaboration_id = $1 AND user_id = $2)`)).
		WithArgs(int64(1), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.IsParticipant(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected non-participant")
	}
}

func TestCollaborationsByUser(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE c.owner_id = $1 OR p.user_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(collaborationRowColumns).
			AddRow(int64(3), uuid.NewString(), "Diabetes Genetics Research", "d", "active", now, int64(2)).
			AddRow(int64(2), uuid.NewString(), "Height Genetics Consortium", "h", "active", now.Add(-time.Hour), int64(3)))

	list, err := repo.CollaborationsByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Diabetes Genetics Research" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestCollaborationsByUser_Empty(t *testing.T) {
	repo, mock, cleanup := setupCollaborationMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM collaborations c`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(collaborationRowColumns))

	list, err := repo.CollaborationsByUser(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list)
	}
}
