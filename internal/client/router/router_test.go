package router

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/GenomePortal/internal/client/display"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	token   string
	profile *models.Profile
}

func (s *fakeSession) Token() string { return s.token }
func (s *fakeSession) Profile() (models.Profile, bool) {
	if s.profile == nil {
		return models.Profile{}, false
	}
	return *s.profile, true
}

type mockCollabAPI struct {
	calls              int
	CollaborationsFunc func(ctx context.Context, token string, userID int64) ([]models.Collaboration, error)
}

func (m *mockCollabAPI) Collaborations(ctx context.Context, token string, userID int64) ([]models.Collaboration, error) {
	m.calls++
	return m.CollaborationsFunc(ctx, token, userID)
}

var demoProfile = models.Profile{ID: 7, Email: "demo@genome.com", FirstName: "Demo", LastName: "User", Institution: "Genome Research Institute"}

func listOf(titles ...string) func(context.Context, string, int64) ([]models.Collaboration, error) {
	return func(context.Context, string, int64) ([]models.Collaboration, error) {
		out := make([]models.Collaboration, 0, len(titles))
		for _, t := range titles {
			out = append(out, models.Collaboration{Title: t})
		}
		return out, nil
	}
}

func TestNavigate_ShowsExactlyOneSection(t *testing.T) {
	rec := display.NewRecorder()
	r := New(rec, &fakeSession{}, &mockCollabAPI{CollaborationsFunc: listOf()}, nil)

	for _, target := range Sections() {
		require.NoError(t, r.Navigate(context.Background(), target))
		for _, sec := range Sections() {
			assert.Equal(t, sec == target, rec.Visible(string(sec)), "section %s after navigating to %s", sec, target)
		}
		assert.Equal(t, string(target), rec.Field(display.FieldActiveNav))
		active, ok := r.Active()
		assert.True(t, ok)
		assert.Equal(t, target, active)
	}
}

func TestNavigate_UnknownSection(t *testing.T) {
	rec := display.NewRecorder()
	r := New(rec, &fakeSession{}, &mockCollabAPI{}, nil)
	require.NoError(t, r.Navigate(context.Background(), Home))

	err := r.Navigate(context.Background(), Section("admin"))
	assert.True(t, errors.Is(err, ErrUnknownSection))
	assert.True(t, rec.Visible(string(Home)))
	active, _ := r.Active()
	assert.Equal(t, Home, active)
}

func TestNavigate_CollaborationsRequiresToken(t *testing.T) {
	tests := []struct {
		name      string
		session   *fakeSession
		wantCalls int
	}{
		{name: "no token", session: &fakeSession{}, wantCalls: 0},
		{name: "with token", session: &fakeSession{token: "T1", profile: &demoProfile}, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := display.NewRecorder()
			apiMock := &mockCollabAPI{
				CollaborationsFunc: func(_ context.Context, token string, userID int64) ([]models.Collaboration, error) {
					assert.Equal(t, "T1", token)
					assert.Equal(t, int64(7), userID)
					return listOf("Height Genetics Consortium")(context.Background(), token, userID)
				},
			}
			r := New(rec, tt.session, apiMock, nil)

			require.NoError(t, r.Navigate(context.Background(), Collaborations))
			assert.Equal(t, tt.wantCalls, apiMock.calls)
			assert.True(t, rec.Visible(string(Collaborations)))
			assert.Len(t, rec.RenderedCollaborations(), tt.wantCalls)
		})
	}
}

func TestNavigate_CollaborationsFailureRendersEmpty(t *testing.T) {
	rec := display.NewRecorder()
	apiMock := &mockCollabAPI{
		CollaborationsFunc: func(context.Context, string, int64) ([]models.Collaboration, error) {
			return nil, errors.New("boom")
		},
	}
	r := New(rec, &fakeSession{token: "T1", profile: &demoProfile}, apiMock, nil)

	require.NoError(t, r.Navigate(context.Background(), Collaborations))
	rendered := rec.RenderedCollaborations()
	require.Len(t, rendered, 1)
	assert.Empty(t, rendered[0])
}

func TestNavigate_CollaborationsWithoutRenderer(t *testing.T) {
	rec := display.NewRecorder()
	apiMock := &mockCollabAPI{CollaborationsFunc: listOf("x")}
	r := New(display.Plain{Display: rec}, &fakeSession{token: "T1", profile: &demoProfile}, apiMock, nil)

	require.NoError(t, r.Navigate(context.Background(), Collaborations))
	assert.Zero(t, apiMock.calls)
	assert.True(t, rec.Visible(string(Collaborations)))
}

func TestNavigate_ProfilePopulatesForm(t *testing.T) {
	rec := display.NewRecorder()
	r := New(rec, &fakeSession{token: "T1", profile: &demoProfile}, &mockCollabAPI{}, nil)

	require.NoError(t, r.Navigate(context.Background(), Profile))
	assert.Equal(t, "Demo", rec.Field(display.FieldProfileFirstName))
	assert.Equal(t, "User", rec.Field(display.FieldProfileLastName))
	assert.Equal(t, "demo@genome.com", rec.Field(display.FieldProfileEmail))
	assert.Equal(t, "Genome Research Institute", rec.Field(display.FieldProfileInstitution))
}

func TestTitles(t *testing.T) {
	titles := Titles()
	for _, sec := range Sections() {
		assert.NotEmpty(t, titles[string(sec)], sec)
	}
}
