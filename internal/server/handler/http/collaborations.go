package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/GenomePortal/internal/middleware"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/atinyakov/GenomePortal/internal/repository"
	"github.com/atinyakov/GenomePortal/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CollaborationService defines the collaboration operations required by
// the handlers.
type CollaborationService interface {
	Start(ctx context.Context, owner models.User, nc models.NewCollaboration) (models.Collaboration, error)
	Get(ctx context.Context, user models.User, id string) (models.Collaboration, error)
	ListForUser(ctx context.Context, requester models.User, userID int64) ([]models.Collaboration, error)
}

// CollaborationHandler serves the collaboration endpoints.
type CollaborationHandler struct {
	CollaborationService CollaborationService
	Log                  *zap.Logger
}

// Start creates a collaboration owned by the authenticated user.
func (h *CollaborationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.NewCollaboration
	if !decodeJSON(w, r, &req) {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	c, err := h.CollaborationService.Start(r.Context(), user, req)
	if err != nil {
		h.fail(w, "start collaboration", err)
		return
	}
	writeJSON(w, http.StatusOK, models.CollaborationCreated{
		CollaborationID: c.UUID,
		Message:         "Collaboration created successfully",
	})
}

// Get replies with one collaboration the user takes part in.
func (h *CollaborationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	c, err := h.CollaborationService.Get(r.Context(), user, chi.URLParam(r, "uuid"))
	if err != nil {
		h.fail(w, "get collaboration", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListForUser replies with the collaborations a user owns or joined.
func (h *CollaborationHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid user id")
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	list, err := h.CollaborationService.ListForUser(r.Context(), user, userID)
	if err != nil {
		h.fail(w, "list collaborations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CollaborationHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Collaboration not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, sentence(err.Error()))
	default:
		logError(h.Log, op, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
