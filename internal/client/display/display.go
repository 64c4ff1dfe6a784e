// Package display abstracts the rendering surface of the portal client.
//
// The session manager and the view router never touch a concrete UI: they
// show and hide named regions, set form fields and raise transient
// notifications through Display. Richer rendering (collaboration lists,
// analysis results, a waiting indicator) is an optional capability that
// callers discover with a type assertion.
package display

import "github.com/atinyakov/GenomePortal/internal/models"

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Regions toggled when the authentication posture changes.
const (
	RegionAuthRequired        = "auth-required"
	RegionUnauthenticatedOnly = "unauthenticated-only"
	RegionNavLogin            = "nav-login-section"
	RegionNavRegister         = "nav-register-section"
	RegionLogout              = "logout-section"
)

// Form and indicator fields.
const (
	FieldActiveNav          = "nav-active"
	FieldProfileFirstName   = "profile-first-name"
	FieldProfileLastName    = "profile-last-name"
	FieldProfileEmail       = "profile-email"
	FieldProfileInstitution = "profile-institution"
)

// Display is the minimal capability set of a rendering surface.
type Display interface {
	Show(region string)
	Hide(region string)
	SetField(name, value string)
	Notify(level Level, message string)
}

// CollaborationRenderer can draw the collaborations list.
type CollaborationRenderer interface {
	RenderCollaborations(list []models.Collaboration)
}

// AnalysisRenderer can draw the result of an analysis upload.
type AnalysisRenderer interface {
	RenderAnalysis(kind models.AnalysisKind, res models.AnalysisResponse)
}

// Waiter can show a waiting indicator. The returned func hides it; it is
// safe to call more than once.
type Waiter interface {
	Wait(label string) (done func())
}

// ShowAuthenticated switches d to the authenticated posture.
func ShowAuthenticated(d Display) {
	d.Show(RegionAuthRequired)
	d.Hide(RegionUnauthenticatedOnly)
	d.Hide(RegionNavLogin)
	d.Hide(RegionNavRegister)
	d.Show(RegionLogout)
}

// ShowUnauthenticated switches d to the unauthenticated posture.
func ShowUnauthenticated(d Display) {
	d.Hide(RegionAuthRequired)
	d.Show(RegionUnauthenticatedOnly)
	d.Show(RegionNavLogin)
	d.Show(RegionNavRegister)
	d.Hide(RegionLogout)
}

// PopulateProfile writes p into the profile form fields.
func PopulateProfile(d Display, p models.Profile) {
	d.SetField(FieldProfileFirstName, p.FirstName)
	d.SetField(FieldProfileLastName, p.LastName)
	d.SetField(FieldProfileEmail, p.Email)
	d.SetField(FieldProfileInstitution, p.Institution)
}

// BeginWait shows the waiting indicator when d supports one.
func BeginWait(d Display, label string) func() {
	if w, ok := d.(Waiter); ok {
		return w.Wait(label)
	}
	return func() {}
}
