package display

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the timer goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

var testTitles = map[string]string{"profile": "Profile", "home": "Genome Collaboration Portal"}

func TestTerminal_ShowAndFields(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, testTitles, time.Minute)

	term.SetField(FieldProfileFirstName, "Hidden")
	assert.NotContains(t, out.String(), "Hidden")

	term.Show("profile")
	term.SetField(FieldProfileFirstName, "Sarah")
	assert.True(t, term.Visible("profile"))
	assert.Contains(t, out.String(), "== Profile ==")
	assert.Contains(t, out.String(), "first name:")
	assert.Contains(t, out.String(), "Sarah")
	assert.Equal(t, "Sarah", term.Field(FieldProfileFirstName))

	term.Hide("profile")
	assert.False(t, term.Visible("profile"))

	term.Show(RegionAuthRequired)
	assert.True(t, term.Visible(RegionAuthRequired))
}

func TestTerminal_NotificationsExpire(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, testTitles, 50*time.Millisecond)

	term.Notify(LevelDanger, "Incorrect email or password")
	assert.Contains(t, out.String(), "[danger] Incorrect email or password")
	require.Len(t, term.Notifications(), 1)

	assert.Eventually(t, func() bool { return len(term.Notifications()) == 0 }, time.Second, 10*time.Millisecond)
}

func TestTerminal_Wait(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, testTitles, 50*time.Millisecond)

	done := term.Wait("Signing in")
	assert.True(t, term.Waiting())
	done()
	done()
	assert.False(t, term.Waiting())

	term.Wait("Running analysis")
	assert.True(t, term.Waiting())
	assert.Eventually(t, func() bool { return !term.Waiting() }, time.Second, 10*time.Millisecond)
}

func TestTerminal_RenderCollaborations(t *testing.T) {
	var out syncBuffer
	term := NewTerminal(&out, testTitles, time.Minute)

	term.RenderCollaborations(nil)
	assert.Contains(t, out.String(), "No collaborations found")

	term.RenderCollaborations([]models.Collaboration{
		{UUID: "u-1", Title: "Height Genetics Consortium", Status: "active", CreatedAt: time.Date(2024, 7, 30, 0, 0, 0, 0, time.UTC)},
	})
	assert.Contains(t, out.String(), "Height Genetics Consortium")
	assert.Contains(t, out.String(), "2024-07-30")
}

func TestTerminal_RenderAnalysis(t *testing.T) {
	tests := []struct {
		name string
		kind models.AnalysisKind
		res  models.AnalysisResponse
		want []string
	}{
		{
			name: "qc",
			kind: models.AnalysisQC,
			res:  models.AnalysisResponse{QCResults: &models.QCResults{TotalSamples: 3, TotalSNPs: 2, MissingDataRate: 0.125}},
			want: []string{"Quality Control Results:", "Total Samples: 3", "Missing Data Rate: 12.50%"},
		},
		{
			name: "stats",
			kind: models.AnalysisStats,
			res:  models.AnalysisResponse{StatsResults: &models.StatsResults{TotalSNPs: 2, MeanValues: []float64{1, 2}, StdValues: []float64{0, 1}}},
			want: []string{"Statistical Analysis Results:", "Mean Values: 2 SNPs analyzed"},
		},
		{
			name: "gwas",
			kind: models.AnalysisGWAS,
			res: models.AnalysisResponse{GWASResults: map[string]models.ChiSquareResult{
				"rs2": {ChiSquare: 0, PValue: 1},
				"rs1": {ChiSquare: 12.5, PValue: 0.0004},
			}},
			want: []string{"Chi-square analysis completed for 2 SNPs", "rs1"},
		},
		{
			name: "missing result",
			kind: models.AnalysisQC,
			res:  models.AnalysisResponse{Message: "QC analysis completed"},
			want: []string{"QC analysis completed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out syncBuffer
			NewTerminal(&out, testTitles, time.Minute).RenderAnalysis(tt.kind, tt.res)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestTerminal_GWASSortedByPValue(t *testing.T) {
	var out syncBuffer
	NewTerminal(&out, testTitles, time.Minute).RenderAnalysis(models.AnalysisGWAS, models.AnalysisResponse{
		GWASResults: map[string]models.ChiSquareResult{
			"rs9": {PValue: 0.9},
			"rs1": {PValue: 0.001},
		},
	})
	s := out.String()
	assert.Less(t, strings.Index(s, "rs1"), strings.Index(s, "rs9"))
}

func TestHelpers(t *testing.T) {
	rec := NewRecorder()
	ShowAuthenticated(rec)
	assert.True(t, rec.Visible(RegionAuthRequired))
	assert.False(t, rec.Visible(RegionUnauthenticatedOnly))

	ShowUnauthenticated(rec)
	assert.False(t, rec.Visible(RegionAuthRequired))
	assert.True(t, rec.Visible(RegionUnauthenticatedOnly))

	PopulateProfile(rec, models.Profile{FirstName: "Demo", Email: "demo@genome.com"})
	assert.Equal(t, "demo@genome.com", rec.Field(FieldProfileEmail))

	done := BeginWait(rec, "x")
	done()
	started, finished := rec.Waits()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)

	// no Waiter capability: a no-op
	BeginWait(Plain{Display: rec}, "y")()
}
