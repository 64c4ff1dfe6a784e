// Package http provides the HTTP handlers and routing of the portal
// backend API.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/GenomePortal/internal/auth"
	"github.com/atinyakov/GenomePortal/internal/middleware"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/atinyakov/GenomePortal/internal/repository"
	"github.com/atinyakov/GenomePortal/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by the handlers.
type AuthService interface {
	Register(ctx context.Context, reg models.Registration) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Profile(ctx context.Context, userID int64) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (models.Profile, error)
}

// AuthHandler handles registration, login, logout and the profile.
type AuthHandler struct {
	AuthService AuthService
	Log         *zap.Logger
}

const tokenTypeBearer = "bearer"

// Register creates an account and replies with an access token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.AuthService.Register(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: tokenTypeBearer})
	case errors.Is(err, repository.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, sentence(err.Error()))
	default:
		h.internal(w, "register", err)
	}
}

// Login exchanges email and password for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: tokenTypeBearer})
	case errors.Is(err, service.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
	default:
		h.internal(w, "login", err)
	}
}

// Logout revokes the bearer token of the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), middleware.GetClaimsFromContext(r.Context())); err != nil {
		h.internal(w, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// Profile replies with the profile of the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	p, err := h.AuthService.Profile(r.Context(), user.ID)
	if err != nil {
		h.profileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// profilePatch holds the fields of a profile update; absent fields keep
// their current value.
type profilePatch struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Institution *string `json:"institution"`
}

// UpdateProfile applies a partial profile update.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch profilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	upd := models.ProfileUpdate{FirstName: user.FirstName, LastName: user.LastName, Institution: user.Institution}
	if patch.FirstName != nil {
		upd.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		upd.LastName = *patch.LastName
	}
	if patch.Institution != nil {
		upd.Institution = *patch.Institution
	}

	p, err := h.AuthService.UpdateProfile(r.Context(), user.ID, upd)
	if err != nil {
		h.profileError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AuthHandler) profileError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	h.internal(w, "profile", err)
}

func (h *AuthHandler) internal(w http.ResponseWriter, op string, err error) {
	logError(h.Log, op, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func logError(log *zap.Logger, op string, err error) {
	if log != nil {
		log.Error(op+" failed", zap.Error(err))
	}
}
