package display

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// DefaultTTL bounds how long notifications and the waiting indicator stay up.
const DefaultTTL = 5 * time.Second

// Notification is a transient message shown to the user.
type Notification struct {
	ID      int
	Level   Level
	Message string
}

// Terminal renders the portal onto a text stream. Regions listed in titles
// are sections and print a heading when shown; any other region is only
// tracked. Fields print when the region they belong to (the part of the
// name before the first '-') is visible.
type Terminal struct {
	out    io.Writer
	titles map[string]string
	ttl    time.Duration

	mu      sync.Mutex
	visible map[string]bool
	fields  map[string]string
	notes   []Notification
	nextID  int
	waiting int
}

// NewTerminal returns a Terminal writing to out. ttl <= 0 uses DefaultTTL.
func NewTerminal(out io.Writer, titles map[string]string, ttl time.Duration) *Terminal {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Terminal{
		out:     out,
		titles:  titles,
		ttl:     ttl,
		visible: map[string]bool{},
		fields:  map[string]string{},
	}
}

func (t *Terminal) Show(region string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible[region] = true
	if title, ok := t.titles[region]; ok {
		fmt.Fprintf(t.out, "\n== %s ==\n", title)
	}
}

func (t *Terminal) Hide(region string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.visible, region)
}

// Visible reports whether region is currently shown.
func (t *Terminal) Visible(region string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible[region]
}

func (t *Terminal) SetField(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields[name] = value
	owner, label, found := strings.Cut(name, "-")
	if found && t.visible[owner] {
		fmt.Fprintf(t.out, "  %-12s %s\n", strings.ReplaceAll(label, "-", " ")+":", value)
	}
}

// Field returns the last value set for name.
func (t *Terminal) Field(name string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fields[name]
}

// Notify prints the message and keeps it active until the TTL expires.
func (t *Terminal) Notify(level Level, message string) {
	t.mu.Lock()
	t.nextID++
	n := Notification{ID: t.nextID, Level: level, Message: message}
	t.notes = append(t.notes, n)
	fmt.Fprintf(t.out, "[%s] %s\n", level, message)
	t.mu.Unlock()

	time.AfterFunc(t.ttl, func() { t.dismiss(n.ID) })
}

func (t *Terminal) dismiss(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, n := range t.notes {
		if n.ID == id {
			t.notes = append(t.notes[:i], t.notes[i+1:]...)
			return
		}
	}
}

// Notifications returns the notifications that have not been dismissed yet.
func (t *Terminal) Notifications() []Notification {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Notification(nil), t.notes...)
}

// Wait prints a waiting line; the indicator goes away when done is called
// or after the TTL, whichever comes first.
func (t *Terminal) Wait(label string) func() {
	t.mu.Lock()
	t.waiting++
	fmt.Fprintf(t.out, "... %s\n", label)
	t.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			t.mu.Lock()
			t.waiting--
			t.mu.Unlock()
		})
	}
	timer := time.AfterFunc(t.ttl, stop)
	return func() {
		timer.Stop()
		stop()
	}
}

// Waiting reports whether a waiting indicator is up.
func (t *Terminal) Waiting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.waiting > 0
}

func (t *Terminal) RenderCollaborations(list []models.Collaboration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(list) == 0 {
		fmt.Fprintln(t.out, "No collaborations found. Create your first collaboration to get started!")
		return
	}
	tw := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tTITLE\tSTATUS\tCREATED")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.UUID, c.Title, c.Status, c.CreatedAt.Format("2006-01-02"))
	}
	_ = tw.Flush()
}

func (t *Terminal) RenderAnalysis(kind models.AnalysisKind, res models.AnalysisResponse) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, "Analysis Results")
	switch {
	case kind == models.AnalysisQC && res.QCResults != nil:
		r := res.QCResults
		fmt.Fprintln(t.out, "Quality Control Results:")
		fmt.Fprintf(t.out, "  Total Samples: %d\n", r.TotalSamples)
		fmt.Fprintf(t.out, "  Total SNPs: %d\n", r.TotalSNPs)
		fmt.Fprintf(t.out, "  Missing Data Rate: %.2f%%\n", r.MissingDataRate*100)
	case kind == models.AnalysisStats && res.StatsResults != nil:
		r := res.StatsResults
		fmt.Fprintln(t.out, "Statistical Analysis Results:")
		fmt.Fprintf(t.out, "  Total Samples: %d\n", r.TotalSamples)
		fmt.Fprintf(t.out, "  Total SNPs: %d\n", r.TotalSNPs)
		fmt.Fprintf(t.out, "  Mean Values: %d SNPs analyzed\n", len(r.MeanValues))
		fmt.Fprintf(t.out, "  Standard Deviations: %d SNPs analyzed\n", len(r.StdValues))
	case kind == models.AnalysisGWAS:
		fmt.Fprintln(t.out, "GWAS Analysis Results:")
		fmt.Fprintf(t.out, "  Chi-square analysis completed for %d SNPs\n", len(res.GWASResults))
		snps := make([]string, 0, len(res.GWASResults))
		for snp := range res.GWASResults {
			snps = append(snps, snp)
		}
		sort.Slice(snps, func(i, j int) bool {
			return res.GWASResults[snps[i]].PValue < res.GWASResults[snps[j]].PValue
		})
		tw := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  SNP\tCHI2\tP-VALUE")
		for _, snp := range snps {
			r := res.GWASResults[snp]
			fmt.Fprintf(tw, "  %s\t%.3f\t%.3g\n", snp, r.ChiSquare, r.PValue)
		}
		_ = tw.Flush()
	default:
		fmt.Fprintln(t.out, res.Message)
	}
}
