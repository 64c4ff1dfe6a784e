// Package cli is the interactive front end of the portal client: a line
// oriented shell whose commands drive the session manager and the view
// router and render onto a terminal display.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/GenomePortal/internal/client/api"
	"github.com/atinyakov/GenomePortal/internal/client/dataset"
	"github.com/atinyakov/GenomePortal/internal/client/display"
	"github.com/atinyakov/GenomePortal/internal/client/router"
	"github.com/atinyakov/GenomePortal/internal/models"
	"go.uber.org/zap"
)

// Sessions is the write side of the session.
type Sessions interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, reg models.Registration) error
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	Logout(ctx context.Context)
}

// Navigator switches sections.
type Navigator interface {
	Navigate(ctx context.Context, id router.Section) error
}

// PortalAPI covers the calls the shell makes directly.
type PortalAPI interface {
	StartCollaboration(ctx context.Context, token string, nc models.NewCollaboration) (string, error)
	Collaboration(ctx context.Context, token, uuid string) (models.Collaboration, error)
	Analyze(ctx context.Context, token string, kind models.AnalysisKind, up models.Upload) (models.AnalysisResponse, error)
	Health(ctx context.Context) (models.Health, error)
}

// Deps collects what an App is wired from.
type Deps struct {
	Sessions Sessions
	State    router.SessionReader
	Router   Navigator
	API      PortalAPI
	Display  display.Display
	In       io.Reader
	Out      io.Writer
	Log      *zap.Logger
}

// App executes shell commands.
type App struct {
	sessions Sessions
	state    router.SessionReader
	router   Navigator
	api      PortalAPI
	display  display.Display
	reader   *bufio.Reader
	out      io.Writer
	log      *zap.Logger
}

// NewApp builds an App from d.
func NewApp(d Deps) *App {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		sessions: d.Sessions,
		state:    d.State,
		router:   d.Router,
		api:      d.API,
		display:  d.Display,
		reader:   bufio.NewReader(d.In),
		out:      d.Out,
		log:      log,
	}
}

func (a *App) isLoggedIn() bool {
	return a.state.Token() != ""
}

func (a *App) status() string {
	if p, ok := a.state.Profile(); ok {
		return p.Email
	}
	return "guest"
}

// Login prompts for whatever credentials args did not carry.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	return a.sessions.Login(ctx, email, password)
}

func (a *App) Register(ctx context.Context) error {
	var reg models.Registration
	var err error
	if reg.Email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if reg.Password, err = GetPassword(a.reader, a.out); err != nil {
		return err
	}
	if reg.FirstName, err = GetSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if reg.LastName, err = GetSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if reg.Institution, err = GetSimpleText(a.reader, "Institution", a.out); err != nil {
		return err
	}
	if reg.Role, err = GetTextDefault(a.reader, "Role", models.DefaultRole, a.out); err != nil {
		return err
	}
	return a.sessions.Register(ctx, reg)
}

func (a *App) Logout(ctx context.Context) error {
	a.sessions.Logout(ctx)
	return nil
}

// Goto navigates to the named section.
func (a *App) Goto(ctx context.Context, name string) error {
	err := a.router.Navigate(ctx, router.Section(name))
	if errors.Is(err, router.ErrUnknownSection) {
		fmt.Fprintf(a.out, "Unknown section %q. Sections: %s\n", name, sectionList())
	}
	return err
}

// EditProfile prompts for the editable fields, offering the current values.
func (a *App) EditProfile(ctx context.Context) error {
	current, ok := a.state.Profile()
	if !ok {
		a.display.Notify(display.LevelWarning, "Please log in first")
		return ErrLoginRequired
	}
	var upd models.ProfileUpdate
	var err error
	if upd.FirstName, err = GetTextDefault(a.reader, "First name", current.FirstName, a.out); err != nil {
		return err
	}
	if upd.LastName, err = GetTextDefault(a.reader, "Last name", current.LastName, a.out); err != nil {
		return err
	}
	if upd.Institution, err = GetTextDefault(a.reader, "Institution", current.Institution, a.out); err != nil {
		return err
	}
	return a.sessions.UpdateProfile(ctx, upd)
}

// NewCollaboration starts a collaboration and reloads the list.
func (a *App) NewCollaboration(ctx context.Context) error {
	token, err := a.requireLogin()
	if err != nil {
		return err
	}
	var nc models.NewCollaboration
	if nc.Title, err = GetSimpleText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if nc.Description, err = GetSimpleText(a.reader, "Description", a.out); err != nil {
		return err
	}
	if nc.Title == "" {
		a.display.Notify(display.LevelWarning, "Please enter a title")
		return ErrInvalidInput
	}

	done := display.BeginWait(a.display, "Creating collaboration")
	id, err := a.api.StartCollaboration(ctx, token, nc)
	done()
	if err != nil {
		return a.fail("create collaboration", err)
	}
	a.log.Info("collaboration created", zap.String("uuid", id))
	a.display.Notify(display.LevelSuccess, "Collaboration created successfully!")
	return a.router.Navigate(ctx, router.Collaborations)
}

// ShowCollaboration prints the details of one collaboration.
func (a *App) ShowCollaboration(ctx context.Context, uuid string) error {
	token, err := a.requireLogin()
	if err != nil {
		return err
	}
	c, err := a.api.Collaboration(ctx, token, uuid)
	if err != nil {
		return a.fail("show collaboration", err)
	}
	fmt.Fprintf(a.out, "%s\n  uuid:        %s\n  status:      %s\n  created:     %s\n  description: %s\n",
		c.Title, c.UUID, c.Status, c.CreatedAt.Format("2006-01-02 15:04"), c.Description)
	return nil
}

// Upload sends a dataset file to one of the analysis endpoints.
func (a *App) Upload(ctx context.Context, kind, path string) error {
	token, err := a.requireLogin()
	if err != nil {
		return err
	}
	k := models.AnalysisKind(strings.ToLower(kind))
	switch k {
	case models.AnalysisQC, models.AnalysisStats, models.AnalysisGWAS:
	default:
		a.display.Notify(display.LevelWarning, fmt.Sprintf("Unknown analysis type %q (use qc, stats or gwas)", kind))
		return ErrInvalidInput
	}

	data, filename, err := dataset.ReadAsCSV(path)
	if err != nil {
		a.display.Notify(display.LevelWarning, err.Error())
		return err
	}

	done := display.BeginWait(a.display, "Running analysis")
	res, err := a.api.Analyze(ctx, token, k, models.Upload{Data: data, Filename: filename})
	done()
	if err != nil {
		return a.fail("upload", err)
	}

	if r, ok := a.display.(display.AnalysisRenderer); ok {
		r.RenderAnalysis(k, res)
	}
	msg := res.Message
	if msg == "" {
		msg = "Analysis completed successfully"
	}
	a.display.Notify(display.LevelSuccess, msg)
	return nil
}

// Status prints API health and the session state.
func (a *App) Status(ctx context.Context) error {
	h, err := a.api.Health(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "API: unreachable (%s)\n", api.Reason(err))
	} else {
		fmt.Fprintf(a.out, "API: %s (%s %s)\n", h.Status, h.Service, h.Version)
	}
	fmt.Fprintf(a.out, "Session: %s\n", a.status())
	return err
}

var (
	// ErrLoginRequired is returned by commands that need a session.
	ErrLoginRequired = errors.New("login required")
	// ErrInvalidInput reports a rejected command argument.
	ErrInvalidInput = errors.New("invalid input")
)

func (a *App) requireLogin() (string, error) {
	token := a.state.Token()
	if token == "" {
		a.display.Notify(display.LevelWarning, "Please log in first")
		return "", ErrLoginRequired
	}
	return token, nil
}

func (a *App) fail(op string, err error) error {
	a.log.Warn(op+" failed", zap.Error(err))
	a.display.Notify(display.LevelDanger, api.Reason(err))
	return fmt.Errorf("%s: %w", op, err)
}

func sectionList() string {
	names := make([]string, 0, len(router.Sections()))
	for _, s := range router.Sections() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
