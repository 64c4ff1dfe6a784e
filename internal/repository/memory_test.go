package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDemoStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(DemoSeed(), bcrypt.MinCost)
	require.NoError(t, err)
	return s
}

func TestDemoSeed_Accounts(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()

	for email, password := range map[string]string{
		"demo@genome.com":       "demo123",
		"researcher@genome.com": "research123",
		"admin@genome.com":      "admin123",
	} {
		u, err := s.UserByEmail(ctx, email)
		require.NoError(t, err, email)
		assert.NoError(t, bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)), email)
	}
	admin, _ := s.UserByEmail(ctx, "admin@genome.com")
	assert.Equal(t, "admin", admin.Role)
}

func TestDemoSeed_Collaborations(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()

	tests := []struct {
		email string
		want  []string
	}{
		{"demo@genome.com", []string{"Diabetes Genetics Research", "Height Genetics Consortium", "Multi-Center Eye Color Study"}},
		{"researcher@genome.com", []string{"Diabetes Genetics Research", "Multi-Center Eye Color Study"}},
		{"admin@genome.com", []string{"Diabetes Genetics Research", "Height Genetics Consortium"}},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			u, err := s.UserByEmail(ctx, tt.email)
			require.NoError(t, err)
			list, err := s.CollaborationsByUser(ctx, u.ID)
			require.NoError(t, err)
			titles := make([]string, 0, len(list))
			for _, c := range list {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestMemoryStore_Users(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, models.User{Email: "DEMO@genome.com"})
	assert.True(t, errors.Is(err, ErrEmailTaken))

	u, err := s.CreateUser(ctx, models.User{Email: "new@genome.com", FirstName: "New"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), u.ID)

	upd, err := s.UpdateProfile(ctx, u.ID, models.ProfileUpdate{FirstName: "Renamed", Institution: "X"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", upd.FirstName)
	assert.Equal(t, "new@genome.com", upd.Email)

	_, err = s.UserByID(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.UpdateProfile(ctx, 99, models.ProfileUpdate{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_CreateCollaboration(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()

	c, err := s.CreateCollaboration(ctx, 1, models.NewCollaboration{Title: "Skin Pigmentation"})
	require.NoError(t, err)
	assert.Equal(t, models.CollaborationStatusActive, c.Status)

	got, err := s.CollaborationByUUID(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)

	ok, err := s.IsParticipant(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = s.IsParticipant(ctx, c.ID, 2)
	assert.False(t, ok)

	_, err = s.CreateCollaboration(ctx, 99, models.NewCollaboration{Title: "orphan"})
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.CollaborationByUUID(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_Revocations(t *testing.T) {
	s := newDemoStore(t)
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "live", now.Add(time.Minute)))
	require.NoError(t, s.Revoke(ctx, "dead", now.Add(-time.Minute)))

	revoked, _ := s.IsRevoked(ctx, "live")
	assert.True(t, revoked)
	revoked, _ = s.IsRevoked(ctx, "dead")
	assert.False(t, revoked)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	revoked, _ = s.IsRevoked(ctx, "live")
	assert.False(t, revoked)
	require.NoError(t, s.Revoke(ctx, "other", now.Add(time.Hour)))
	assert.NotContains(t, s.revoked, "live")
}

func TestMemoryStore_RecordAnalysis(t *testing.T) {
	s := newDemoStore(t)
	run := models.AnalysisRun{UserID: 1, Kind: models.AnalysisStats, Filename: "g.csv", Results: []byte("{}")}
	require.NoError(t, s.RecordAnalysis(context.Background(), run))
	assert.Equal(t, []models.AnalysisRun{run}, s.Analyses())
}

func TestNewMemoryStore_BadSeed(t *testing.T) {
	_, err := NewMemoryStore(Seed{Collaborations: []SeedCollaboration{{Title: "x", Owner: "nobody@genome.com"}}}, bcrypt.MinCost)
	assert.Error(t, err)
}
