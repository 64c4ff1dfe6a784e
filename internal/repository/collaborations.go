package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/google/uuid"
)

// PostgresCollaborationRepository stores collaborations and their
// participants.
type PostgresCollaborationRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresCollaborationRepository creates a repository over db.
func NewPostgresCollaborationRepository(db *sql.DB) *PostgresCollaborationRepository {
	return &PostgresCollaborationRepository{DB: db}
}

const collaborationColumns = `c.id, c.uuid, c.title, c.description, c.status, c.created_at, c.owner_id`

func scanCollaboration(row interface{ Scan(...any) error }) (models.Collaboration, error) {
	var c models.Collaboration
	err := row.Scan(&c.ID, &c.UUID, &c.Title, &c.Description, &c.Status, &c.CreatedAt, &c.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Collaboration{}, ErrNotFound
	}
	return c, err
}

// CreateCollaboration inserts a collaboration owned by ownerID and adds
// the owner as its first participant, in one transaction.
func (r *PostgresCollaborationRepository) CreateCollaboration(ctx context.Context, ownerID int64, nc models.NewCollaboration) (models.Collaboration, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Collaboration{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c := models.Collaboration{
		UUID:        uuid.NewString(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      models.CollaborationStatusActive,
		OwnerID:     ownerID,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO collaborations (uuid, owner_id, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.UUID, c.OwnerID, c.Title, c.Description, c.Status).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return models.Collaboration{}, fmt.Errorf("insert collaboration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collaboration_participants (collaboration_id, user_id) VALUES ($1, $2)
	`, c.ID, ownerID); err != nil {
		return models.Collaboration{}, fmt.Errorf("insert participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Collaboration{}, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

// CollaborationByUUID fetches a collaboration by its public id.
func (r *PostgresCollaborationRepository) CollaborationByUUID(ctx context.Context, id string) (models.Collaboration, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Collaboration{}, ErrNotFound
	}
	return scanCollaboration(r.DB.QueryRowContext(ctx,
		`SELECT `+collaborationColumns+` FROM collaborations c WHERE c.uuid = $1`, id))
}

// IsParticipant reports whether userID takes part in the collaboration.
func (r *PostgresCollaborationRepository) IsParticipant(ctx context.Context, collaborationID, userID int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM collaboration_participants WHERE collaboration_id = $1 AND user_id = $2)
	`, collaborationID, userID).Scan(&ok)
	return ok, err
}

// CollaborationsByUser lists the collaborations userID owns or joined,
// newest first.
func (r *PostgresCollaborationRepository) CollaborationsByUser(ctx context.Context, userID int64) ([]models.Collaboration, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT `+collaborationColumns+`
		FROM collaborations c
		LEFT JOIN collaboration_participants p ON p.collaboration_id = c.id
		WHERE c.owner_id = $1 OR p.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("CollaborationsByUser: %w", err)
	}
	defer rows.Close()

	list := []models.Collaboration{}
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
