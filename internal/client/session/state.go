package session

import (
	"sync"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// State is the explicit session object: the access token and the profile
// it was last validated against. Only the Manager writes it; everything
// else reads through Token, Profile and Authenticated.
//
// Invariant: profile is non-nil only while token is non-empty.
//
// gen advances on every sign-in and sign-out, so a restore that started
// earlier can tell that the session changed under it.
type State struct {
	mu      sync.RWMutex
	token   string
	profile *models.Profile
	gen     uint64
}

// Token returns the current access token, or "" without a session.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Profile returns a copy of the current profile.
func (s *State) Profile() (models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return models.Profile{}, false
	}
	return *s.profile, true
}

// Authenticated reports whether a validated session is active.
func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.profile != nil
}

func (s *State) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *State) set(token string, p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.profile = &p
	s.gen++
}

// setIf commits token and p only while no sign-in or sign-out happened
// since gen was read and no session is active.
func (s *State) setIf(gen uint64, token string, p models.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.token != "" {
		return false
	}
	s.token = token
	s.profile = &p
	s.gen++
	return true
}

// setProfile replaces the profile of the current token; it is a no-op when
// the session ended in the meantime.
func (s *State) setProfile(p models.Profile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false
	}
	s.profile = &p
	return true
}

func (s *State) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.profile = nil
	s.gen++
}

// clearIf clears the session only while nothing changed since gen was
// read. It reports whether it did.
func (s *State) clearIf(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.token = ""
	s.profile = nil
	s.gen++
	return true
}
