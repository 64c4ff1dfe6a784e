package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// ErrForbidden is returned when a user asks for a collaboration they do
// not take part in.
var ErrForbidden = errors.New("access denied")

// RoleAdmin may list the collaborations of any user.
const RoleAdmin = "admin"

// CollaborationRepository defines the persistence the CollaborationService
// needs.
type CollaborationRepository interface {
	CreateCollaboration(ctx context.Context, ownerID int64, nc models.NewCollaboration) (models.Collaboration, error)
	CollaborationByUUID(ctx context.Context, id string) (models.Collaboration, error)
	IsParticipant(ctx context.Context, collaborationID, userID int64) (bool, error)
	CollaborationsByUser(ctx context.Context, userID int64) ([]models.Collaboration, error)
}

// CollaborationService starts and lists research collaborations.
type CollaborationService struct {
	repo CollaborationRepository
}

// NewCollaborationService constructs a CollaborationService over repo.
func NewCollaborationService(repo CollaborationRepository) *CollaborationService {
	return &CollaborationService{repo: repo}
}

// Start creates a collaboration owned by owner, who becomes its first
// participant.
func (s *CollaborationService) Start(ctx context.Context, owner models.User, nc models.NewCollaboration) (models.Collaboration, error) {
	nc.Title = strings.TrimSpace(nc.Title)
	if nc.Title == "" {
		return models.Collaboration{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return s.repo.CreateCollaboration(ctx, owner.ID, nc)
}

// Get returns the collaboration with the given uuid if user takes part in it.
func (s *CollaborationService) Get(ctx context.Context, user models.User, id string) (models.Collaboration, error) {
	c, err := s.repo.CollaborationByUUID(ctx, id)
	if err != nil {
		return models.Collaboration{}, err
	}
	if c.OwnerID == user.ID {
		return c, nil
	}
	ok, err := s.repo.IsParticipant(ctx, c.ID, user.ID)
	if err != nil {
		return models.Collaboration{}, err
	}
	if !ok {
		return models.Collaboration{}, ErrForbidden
	}
	return c, nil
}

// ListForUser returns the collaborations userID owns or joined. Only the
// user themselves or an admin may ask.
func (s *CollaborationService) ListForUser(ctx context.Context, requester models.User, userID int64) ([]models.Collaboration, error) {
	if requester.ID != userID && requester.Role != RoleAdmin {
		return nil, ErrForbidden
	}
	return s.repo.CollaborationsByUser(ctx, userID)
}
