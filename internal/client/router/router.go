// Package router switches the visible section of the portal client.
//
// The Router is the single writer of section visibility: Navigate hides
// every section, shows the requested one and moves the active navigation
// indicator. Entering some sections has side effects: the collaborations
// list is refreshed (only with a session) and the profile form is
// repopulated from the current profile.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atinyakov/GenomePortal/internal/client/display"
	"github.com/atinyakov/GenomePortal/internal/models"
	"go.uber.org/zap"
)

// Section names a top-level view region.
type Section string

const (
	Home           Section = "home"
	Login          Section = "login"
	Register       Section = "register"
	Dashboard      Section = "dashboard"
	Upload         Section = "upload"
	Collaborations Section = "collaborations"
	Profile        Section = "profile"
)

// ErrUnknownSection is returned by Navigate for ids outside the section set.
var ErrUnknownSection = errors.New("unknown section")

var titles = map[Section]string{
	Home:           "Genome Collaboration Portal",
	Login:          "Login",
	Register:       "Register",
	Dashboard:      "Dashboard",
	Upload:         "Upload Data",
	Collaborations: "Collaborations",
	Profile:        "Profile",
}

// Sections lists every section in navigation order.
func Sections() []Section {
	return []Section{Home, Login, Register, Dashboard, Upload, Collaborations, Profile}
}

// Titles maps section ids to their headings, in the shape display.NewTerminal
// expects.
func Titles() map[string]string {
	out := make(map[string]string, len(titles))
	for s, t := range titles {
		out[string(s)] = t
	}
	return out
}

// SessionReader is the read side of the session the router depends on.
type SessionReader interface {
	Token() string
	Profile() (models.Profile, bool)
}

// CollaborationsAPI lists the collaborations of a user.
type CollaborationsAPI interface {
	Collaborations(ctx context.Context, token string, userID int64) ([]models.Collaboration, error)
}

// Router is a deterministic state machine over Sections.
type Router struct {
	display display.Display
	session SessionReader
	api     CollaborationsAPI
	log     *zap.Logger
	known   map[Section]bool

	mu     sync.Mutex
	active Section
}

// New builds a Router. No section is active until the first Navigate; the
// display's own default stays in effect until then.
func New(d display.Display, s SessionReader, api CollaborationsAPI, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	known := make(map[Section]bool, len(titles))
	for _, sec := range Sections() {
		known[sec] = true
	}
	return &Router{display: d, session: s, api: api, log: log, known: known}
}

// Active returns the active section, if any navigation happened yet.
func (r *Router) Active() (Section, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// Navigate makes id the only visible section. An unknown id is rejected
// and leaves the previous section visible.
func (r *Router) Navigate(ctx context.Context, id Section) error {
	if !r.known[id] {
		r.log.Warn("navigation to unknown section rejected", zap.String("section", string(id)))
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}

	r.mu.Lock()
	for _, sec := range Sections() {
		if sec != id {
			r.display.Hide(string(sec))
		}
	}
	r.display.Show(string(id))
	r.display.SetField(display.FieldActiveNav, string(id))
	r.active = id
	r.mu.Unlock()

	r.log.Debug("section shown", zap.String("section", string(id)))

	switch id {
	case Collaborations:
		r.RefreshCollaborations(ctx)
	case Profile:
		if p, ok := r.session.Profile(); ok {
			display.PopulateProfile(r.display, p)
		}
	}
	return nil
}

// RefreshCollaborations reloads the collaborations list. It does nothing
// without a session or when the display cannot render the list. A failed
// fetch renders an empty list.
func (r *Router) RefreshCollaborations(ctx context.Context) {
	token := r.session.Token()
	if token == "" {
		r.log.Debug("not authenticated, skipping collaborations load")
		return
	}
	renderer, ok := r.display.(display.CollaborationRenderer)
	if !ok {
		r.log.Info("display cannot render collaborations, skipping load")
		return
	}
	profile, ok := r.session.Profile()
	if !ok {
		r.log.Debug("profile not loaded yet, skipping collaborations load")
		return
	}

	list, err := r.api.Collaborations(ctx, token, profile.ID)
	if err != nil {
		r.log.Error("failed to load collaborations", zap.Error(err))
		renderer.RenderCollaborations(nil)
		return
	}
	r.log.Debug("collaborations loaded", zap.Int("count", len(list)))
	renderer.RenderCollaborations(list)
}
