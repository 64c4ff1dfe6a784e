package display

import (
	"sync"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// Recorder is a headless Display that remembers every call. It implements
// every optional capability; wrap it in Plain to hide them.
type Recorder struct {
	mu        sync.Mutex
	visible   map[string]bool
	fields    map[string]string
	notes     []Notification
	collabs   [][]models.Collaboration
	analyses  []models.AnalysisResponse
	waits     int
	doneWaits int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{visible: map[string]bool{}, fields: map[string]string{}}
}

func (r *Recorder) Show(region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible[region] = true
}

func (r *Recorder) Hide(region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.visible, region)
}

func (r *Recorder) SetField(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[name] = value
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Notification{ID: len(r.notes) + 1, Level: level, Message: message})
}

func (r *Recorder) RenderCollaborations(list []models.Collaboration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collabs = append(r.collabs, list)
}

func (r *Recorder) RenderAnalysis(_ models.AnalysisKind, res models.AnalysisResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyses = append(r.analyses, res)
}

func (r *Recorder) Wait(string) func() {
	r.mu.Lock()
	r.waits++
	r.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.doneWaits++
			r.mu.Unlock()
		})
	}
}

// Visible reports whether region is shown.
func (r *Recorder) Visible(region string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible[region]
}

// Field returns the last value set for name.
func (r *Recorder) Field(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fields[name]
}

// Notifications returns every notification raised so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

// LastNotification returns the most recent notification.
func (r *Recorder) LastNotification() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return Notification{}, false
	}
	return r.notes[len(r.notes)-1], true
}

// RenderedCollaborations returns every list passed to RenderCollaborations.
func (r *Recorder) RenderedCollaborations() [][]models.Collaboration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]models.Collaboration(nil), r.collabs...)
}

// RenderedAnalyses returns every result passed to RenderAnalysis.
func (r *Recorder) RenderedAnalyses() []models.AnalysisResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AnalysisResponse(nil), r.analyses...)
}

// Waits returns how many waiting indicators were started and stopped.
func (r *Recorder) Waits() (started, done int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waits, r.doneWaits
}

// Plain wraps a Display so that only the four base methods are visible,
// hiding every optional capability.
type Plain struct {
	Display
}
