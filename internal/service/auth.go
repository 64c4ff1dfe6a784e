// Package service provides the business logic of the portal backend:
// accounts and tokens, collaborations and dataset analyses. Persistence is
// delegated to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/GenomePortal/internal/auth"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/atinyakov/GenomePortal/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrTokenRevoked is returned by Authenticate for a logged out token.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrUserNotFound is returned by Authenticate when the token's user no
	// longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidInput reports a request missing a required field.
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository defines the account persistence the AuthService needs.
type UserRepository interface {
	// CreateUser stores a new account; a duplicate email yields
	// repository.ErrEmailTaken.
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	// UserByEmail returns repository.ErrNotFound for an unknown email.
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (models.User, error)
}

// RevocationStore remembers logged out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService registers users, issues and verifies tokens.
type AuthService struct {
	users       UserRepository
	revocations RevocationStore
	secret      []byte
	ttl         time.Duration
	// cost is the bcrypt cost of new password hashes.
	cost int
	// dummyHash is compared against on unknown emails so both failure
	// paths take the same time.
	dummyHash []byte
}

// NewAuthService constructs an AuthService signing tokens with secret,
// each valid for ttl.
func NewAuthService(users UserRepository, revocations RevocationStore, secret []byte, ttl time.Duration) *AuthService {
	return newAuthService(users, revocations, secret, ttl, bcrypt.DefaultCost)
}

func newAuthService(users UserRepository, revocations RevocationStore, secret []byte, ttl time.Duration, cost int) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not a password"), cost)
	return &AuthService{
		users:       users,
		revocations: revocations,
		secret:      secret,
		ttl:         ttl,
		cost:        cost,
		dummyHash:   dummy,
	}
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (string, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" || reg.Password == "" {
		return "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if reg.Role == "" {
		reg.Role = models.DefaultRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.CreateUser(ctx, models.User{
		Email:        reg.Email,
		PasswordHash: hash,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Institution:  reg.Institution,
		Role:         reg.Role,
	})
	if err != nil {
		return "", err
	}
	return s.issue(u)
}

// Login checks the password of email and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u models.User) (string, error) {
	token, _, err := auth.GenerateToken(u.ID, u.Email, s.secret, s.ttl)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies token and resolves the user it was issued to.
// It fails with auth.ErrInvalidToken, ErrTokenRevoked or ErrUserNotFound.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.User, *auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return models.User{}, nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return models.User{}, nil, ErrTokenRevoked
	}
	u, err := s.users.UserByEmail(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, nil, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, nil, err
	}
	return u, claims, nil
}

// Logout revokes the token described by claims until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return auth.ErrInvalidToken
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Profile returns the public record of userID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (models.Profile, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateProfile overwrites the editable fields of userID.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, upd models.ProfileUpdate) (models.Profile, error) {
	u, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return models.Profile{}, err
	}
	return u.Profile(), nil
}
