// Package session owns the authentication lifecycle of the portal client:
// the access token, the profile it resolves to, the token's persistence
// across restarts, and the authenticated / unauthenticated posture of the
// display.
//
// Every network failure is caught here, turned into a transient
// notification and returned as an error; the session is never left half
// updated. The token is cleared only by Logout or by a failed restore.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/GenomePortal/internal/client/api"
	"github.com/atinyakov/GenomePortal/internal/client/display"
	"github.com/atinyakov/GenomePortal/internal/client/router"
	"github.com/atinyakov/GenomePortal/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrMissingField reports a local validation failure.
	ErrMissingField = errors.New("missing required field")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRestoreSuperseded is returned by RestoreSession when a login or
	// logout happened while the stored token was being validated.
	ErrRestoreSuperseded = errors.New("session changed during restore")
)

// API is the part of the portal API the manager calls.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, reg models.Registration) (string, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (models.Profile, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.Profile, error)
}

// TokenStore persists the token across restarts.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string) error
	ClearToken() error
}

// Navigator moves the view to another section.
type Navigator interface {
	Navigate(ctx context.Context, id router.Section) error
}

// revokeTimeout bounds the best-effort server-side logout.
const revokeTimeout = 2 * time.Second

// Manager is the only writer of State.
type Manager struct {
	state   *State
	api     API
	store   TokenStore
	display display.Display
	nav     Navigator
	log     *zap.Logger

	revokes sync.WaitGroup
}

// NewManager wires a Manager around state. nav may be nil until SetNavigator
// is called.
func NewManager(state *State, a API, store TokenStore, d display.Display, nav Navigator, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{state: state, api: a, store: store, display: d, nav: nav, log: log}
}

// SetNavigator attaches the router once it exists.
func (m *Manager) SetNavigator(nav Navigator) {
	m.nav = nav
}

// State exposes the read side of the session.
func (m *Manager) State() *State {
	return m.state
}

// RestoreSession validates a persisted token by fetching the profile. On
// success the session becomes authenticated; on any failure the token is
// dropped and the unauthenticated posture shown. A login or logout that
// completes while the profile is in flight wins: the outcome is discarded
// and ErrRestoreSuperseded returned.
func (m *Manager) RestoreSession(ctx context.Context) error {
	gen := m.state.generation()
	token, ok := m.store.Token()
	if !ok {
		display.ShowUnauthenticated(m.display)
		return nil
	}

	profile, err := m.api.Profile(ctx, token)
	if err != nil {
		m.log.Info("stored session rejected", zap.Error(err))
		if m.state.clearIf(gen) {
			m.clearStoredToken(token)
			display.ShowUnauthenticated(m.display)
			m.display.Notify(display.LevelInfo, "Your session has ended. Please log in again.")
		}
		return fmt.Errorf("restore session: %w", err)
	}

	if !m.state.setIf(gen, token, profile) {
		m.log.Info("stored session discarded, session changed during restore")
		return fmt.Errorf("restore session: %w", ErrRestoreSuperseded)
	}
	display.ShowAuthenticated(m.display)
	display.PopulateProfile(m.display, profile)
	m.log.Info("session restored", zap.String("email", profile.Email))
	return nil
}

// RestoreAsync runs RestoreSession on its own goroutine so input handling
// continues while it resolves. The channel yields the outcome once.
func (m *Manager) RestoreAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.RestoreSession(ctx)
	}()
	return done
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		m.display.Notify(display.LevelWarning, "Please enter email and password")
		return fmt.Errorf("login: %w: email and password", ErrMissingField)
	}

	done := display.BeginWait(m.display, "Signing in")
	defer done()

	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.fail("Login failed", err)
		return fmt.Errorf("login: %w", err)
	}
	if err := m.establish(ctx, token); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	m.display.Notify(display.LevelSuccess, "Login successful! Welcome back!")
	return nil
}

// Register creates an account and signs in with the token it returns.
func (m *Manager) Register(ctx context.Context, reg models.Registration) error {
	switch {
	case reg.Email == "", reg.Password == "":
		m.display.Notify(display.LevelWarning, "Please enter email and password")
		return fmt.Errorf("register: %w: email and password", ErrMissingField)
	case reg.FirstName == "", reg.LastName == "":
		m.display.Notify(display.LevelWarning, "Please enter your first and last name")
		return fmt.Errorf("register: %w: name", ErrMissingField)
	}
	if reg.Role == "" {
		reg.Role = models.DefaultRole
	}

	done := display.BeginWait(m.display, "Creating account")
	defer done()

	token, err := m.api.Register(ctx, reg)
	if err != nil {
		m.fail("Registration failed", err)
		return fmt.Errorf("register: %w", err)
	}
	if err := m.establish(ctx, token); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	m.display.Notify(display.LevelSuccess, "Registration successful! Welcome to Genome Collaboration Portal!")
	return nil
}

// establish validates a fresh token and only then commits it: profile
// fetched, token persisted, authenticated posture, dashboard shown.
func (m *Manager) establish(ctx context.Context, token string) error {
	profile, err := m.api.Profile(ctx, token)
	if err != nil {
		m.fail("Could not load your profile", err)
		return err
	}

	if err := m.store.SetToken(token); err != nil {
		m.log.Error("failed to persist token", zap.Error(err))
		m.display.Notify(display.LevelWarning, "Signed in, but the session will not survive a restart")
	}
	m.state.set(token, profile)

	display.ShowAuthenticated(m.display)
	display.PopulateProfile(m.display, profile)
	m.navigate(ctx, router.Dashboard)
	m.log.Info("signed in", zap.String("email", profile.Email))
	return nil
}

// UpdateProfile saves the editable profile fields and refreshes the
// profile. The token is never touched, whatever the outcome.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	token := m.state.Token()
	if token == "" {
		m.display.Notify(display.LevelWarning, "Please log in first")
		return fmt.Errorf("update profile: %w", ErrNotAuthenticated)
	}

	done := display.BeginWait(m.display, "Saving profile")
	defer done()

	if _, err := m.api.UpdateProfile(ctx, token, upd); err != nil {
		m.fail("Profile update failed", err)
		return fmt.Errorf("update profile: %w", err)
	}

	profile, err := m.api.Profile(ctx, token)
	if err != nil {
		m.fail("Could not reload your profile", err)
		return fmt.Errorf("update profile: %w", err)
	}
	if m.state.setProfile(profile) {
		display.PopulateProfile(m.display, profile)
	}
	m.display.Notify(display.LevelSuccess, "Profile updated successfully!")
	return nil
}

// Logout ends the session unconditionally. It never fails and calling it
// twice has the same effect as once. The server is asked to revoke the
// token in the background; Drain waits for that request.
func (m *Manager) Logout(ctx context.Context) {
	token := m.state.Token()
	m.state.clear()
	if err := m.store.ClearToken(); err != nil {
		m.log.Error("failed to clear stored token", zap.Error(err))
	}

	display.ShowUnauthenticated(m.display)
	m.navigate(ctx, router.Home)
	m.display.Notify(display.LevelInfo, "Logged out successfully")

	if token == "" {
		return
	}
	m.revokes.Add(1)
	go func() {
		defer m.revokes.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
		defer cancel()
		if err := m.api.Logout(rctx, token); err != nil {
			m.log.Debug("server-side logout failed", zap.Error(err))
		}
	}()
}

// Drain blocks until every background revoke started by Logout finished.
// Each one is bounded by revokeTimeout.
func (m *Manager) Drain() {
	m.revokes.Wait()
}

func (m *Manager) clearStoredToken(token string) {
	stored, ok := m.store.Token()
	if ok && stored != token {
		return
	}
	if err := m.store.ClearToken(); err != nil {
		m.log.Error("failed to clear stored token", zap.Error(err))
	}
}

func (m *Manager) navigate(ctx context.Context, id router.Section) {
	if m.nav == nil {
		return
	}
	if err := m.nav.Navigate(ctx, id); err != nil {
		m.log.Warn("navigation failed", zap.String("section", string(id)), zap.Error(err))
	}
}

// fail turns err into a danger notification carrying the server's reason.
func (m *Manager) fail(fallback string, err error) {
	reason := api.Reason(err)
	if reason == "" {
		reason = fallback
	}
	m.log.Warn(fallback, zap.Error(err))
	m.display.Notify(display.LevelDanger, reason)
}
