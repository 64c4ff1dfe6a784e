package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrDataset wraps every failure to read or compute over uploaded CSV.
	ErrDataset = errors.New("error processing CSV")
	// ErrChiSquare wraps every failure of the association test.
	ErrChiSquare = errors.New("error in chi-square calculation")
)

// Messages returned with each analysis result.
const (
	MessageQC        = "QC analysis completed"
	MessageStats     = "Statistical analysis completed"
	MessageChiSquare = "Chi-square analysis completed"
)

// missingMarkers are the cell values counted as missing genotypes.
var missingMarkers = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "-nan": true, "<na>": true,
}

// AnalysisRecorder stores the outcome of each analysis.
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, run models.AnalysisRun) error
}

// AnalysisService runs quality control, summary statistics and allelic
// association tests over uploaded genotype tables.
type AnalysisService struct {
	recorder AnalysisRecorder
	log      *zap.Logger
}

// NewAnalysisService constructs an AnalysisService. recorder may be nil.
func NewAnalysisService(recorder AnalysisRecorder, log *zap.Logger) *AnalysisService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AnalysisService{recorder: recorder, log: log}
}

// table is a parsed CSV upload: a header and rows of equal width.
type table struct {
	header []string
	rows   [][]string
}

func parseTable(data string) (*table, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, err
	}
	t := &table{header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func isMissing(cell string) bool {
	return missingMarkers[strings.ToLower(strings.TrimSpace(cell))]
}

// QC summarises a genotype table whose first column holds sample ids.
func (s *AnalysisService) QC(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error) {
	t, err := parseTable(up.Data)
	if err != nil {
		return models.AnalysisResponse{}, fmt.Errorf("%w: %v", ErrDataset, err)
	}

	res := &models.QCResults{
		TotalSamples: len(t.rows),
		TotalSNPs:    len(t.header) - 1,
		SampleIDs:    make([]string, 0, len(t.rows)),
	}
	missing := 0
	for _, row := range t.rows {
		res.SampleIDs = append(res.SampleIDs, row[0])
		for _, cell := range row {
			if isMissing(cell) {
				missing++
			}
		}
	}
	if cells := len(t.rows) * len(t.header); cells > 0 {
		res.MissingDataRate = float64(missing) / float64(cells)
	}

	resp := models.AnalysisResponse{QCResults: res, Message: MessageQC}
	s.record(ctx, user, models.AnalysisQC, up.Filename, resp)
	return resp, nil
}

// Stats computes the mean and sample standard deviation of every SNP
// column, skipping missing cells.
func (s *AnalysisService) Stats(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error) {
	t, err := parseTable(up.Data)
	if err != nil {
		return models.AnalysisResponse{}, fmt.Errorf("%w: %v", ErrDataset, err)
	}

	res := &models.StatsResults{
		TotalSamples: len(t.rows),
		TotalSNPs:    len(t.header) - 1,
		MeanValues:   []float64{},
		StdValues:    []float64{},
	}
	for col := 1; col < len(t.header); col++ {
		values := make(stats.Float64Data, 0, len(t.rows))
		for i, row := range t.rows {
			if isMissing(row[col]) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return models.AnalysisResponse{}, fmt.Errorf("%w: column %q row %d: %q is not numeric", ErrDataset, t.header[col], i+1, row[col])
			}
			values = append(values, v)
		}
		mean, std := summarise(values)
		res.MeanValues = append(res.MeanValues, mean)
		res.StdValues = append(res.StdValues, std)
	}

	resp := models.AnalysisResponse{StatsResults: res, Message: MessageStats}
	s.record(ctx, user, models.AnalysisStats, up.Filename, resp)
	return resp, nil
}

// summarise returns zero for statistics undefined on too few values.
func summarise(values stats.Float64Data) (mean, std float64) {
	if m, err := stats.Mean(values); err == nil {
		mean = m
	}
	if len(values) > 1 {
		if sd, err := stats.StandardDeviationSample(values); err == nil {
			std = sd
		}
	}
	return mean, std
}

// ChiSquare runs a 2x2 allelic association test per SNP. Counts come from
// up.SNPStats when present, otherwise from CSV data with the columns
// snp, case_alt, case_ref, control_alt, control_ref.
func (s *AnalysisService) ChiSquare(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error) {
	counts := up.SNPStats
	if len(counts) == 0 {
		var err error
		if counts, err = parseAlleleCounts(up.Data); err != nil {
			return models.AnalysisResponse{}, fmt.Errorf("%w: %v", ErrChiSquare, err)
		}
	}

	results := make(map[string]models.ChiSquareResult, len(counts))
	for _, snp := range sortedKeys(counts) {
		r, err := chiSquare(counts[snp])
		if err != nil {
			return models.AnalysisResponse{}, fmt.Errorf("%w: snp %s: %v", ErrChiSquare, snp, err)
		}
		results[snp] = r
	}

	resp := models.AnalysisResponse{GWASResults: results, Message: MessageChiSquare}
	s.record(ctx, user, models.AnalysisGWAS, up.Filename, resp)
	return resp, nil
}

var alleleColumns = []string{"snp", "case_alt", "case_ref", "control_alt", "control_ref"}

func parseAlleleCounts(data string) (map[string]models.AlleleCounts, error) {
	t, err := parseTable(data)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(t.header))
	for i, h := range t.header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range alleleColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	out := make(map[string]models.AlleleCounts, len(t.rows))
	for i, row := range t.rows {
		var v [4]float64
		for j, c := range alleleColumns[1:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(row[idx[c]]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %q is not numeric", i+1, c, row[idx[c]])
			}
			v[j] = f
		}
		out[row[idx["snp"]]] = models.AlleleCounts{CaseAlt: v[0], CaseRef: v[1], ControlAlt: v[2], ControlRef: v[3]}
	}
	if len(out) == 0 {
		return nil, errors.New("no SNP rows")
	}
	return out, nil
}

// chiSquare computes Pearson's statistic of a 2x2 table without continuity
// correction, with its p-value on one degree of freedom.
func chiSquare(c models.AlleleCounts) (models.ChiSquareResult, error) {
	a, b, cc, d := c.CaseAlt, c.CaseRef, c.ControlAlt, c.ControlRef
	if a < 0 || b < 0 || cc < 0 || d < 0 {
		return models.ChiSquareResult{}, errors.New("negative allele count")
	}
	n := a + b + cc + d
	denom := (a + b) * (cc + d) * (a + cc) * (b + d)
	if denom == 0 {
		return models.ChiSquareResult{}, errors.New("a row or column of the table sums to zero")
	}
	chi := n * math.Pow(a*d-b*cc, 2) / denom
	p := distuv.ChiSquared{K: 1}.Survival(chi)
	return models.ChiSquareResult{ChiSquare: chi, PValue: p}, nil
}

func sortedKeys(m map[string]models.AlleleCounts) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// record stores the run. A storage failure is logged and does not fail
// the analysis.
func (s *AnalysisService) record(ctx context.Context, user models.User, kind models.AnalysisKind, filename string, resp models.AnalysisResponse) {
	if s.recorder == nil {
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("encode analysis result", zap.Error(err))
		return
	}
	run := models.AnalysisRun{UserID: user.ID, Kind: kind, Filename: filename, Results: body}
	if err := s.recorder.RecordAnalysis(ctx, run); err != nil {
		s.log.Error("failed to record analysis", zap.String("kind", string(kind)), zap.Error(err))
	}
}
