package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, run models.AnalysisRun) error

func (f recorderFunc) RecordAnalysis(ctx context.Context, run models.AnalysisRun) error {
	return f(ctx, run)
}

const genotypes = `sample_id,rs1,rs2,rs3
S1,0,1,2
S2,1,,2
S3,2,1,NA
`

var researcher = models.User{ID: 2, Email: "researcher@genome.com"}

func TestQC(t *testing.T) {
	var runs []models.AnalysisRun
	svc := NewAnalysisService(recorderFunc(func(_ context.Context, run models.AnalysisRun) error {
		runs = append(runs, run)
		return nil
	}), nil)

	resp, err := svc.QC(context.Background(), researcher, models.Upload{Data: genotypes, Filename: "geno.csv"})
	require.NoError(t, err)
	require.NotNil(t, resp.QCResults)
	assert.Equal(t, MessageQC, resp.Message)
	assert.Equal(t, 3, resp.QCResults.TotalSamples)
	assert.Equal(t, 3, resp.QCResults.TotalSNPs)
	assert.InDelta(t, 2.0/12.0, resp.QCResults.MissingDataRate, 1e-9)
	assert.Equal(t, []string{"S1", "S2", "S3"}, resp.QCResults.SampleIDs)

	require.Len(t, runs, 1)
	assert.Equal(t, models.AnalysisQC, runs[0].Kind)
	assert.Equal(t, "geno.csv", runs[0].Filename)
	assert.Equal(t, int64(2), runs[0].UserID)
	var stored models.AnalysisResponse
	require.NoError(t, json.Unmarshal(runs[0].Results, &stored))
	assert.Equal(t, 3, stored.QCResults.TotalSamples)
}

func TestQC_BadInput(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "ragged", data: "a,b\n1,2,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.QC(context.Background(), researcher, models.Upload{Data: tt.data})
			assert.True(t, errors.Is(err, ErrDataset), "got %v", err)
		})
	}
}

func TestQC_HeaderOnly(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	resp, err := svc.QC(context.Background(), researcher, models.Upload{Data: "sample_id,rs1\n"})
	require.NoError(t, err)
	assert.Zero(t, resp.QCResults.TotalSamples)
	assert.Zero(t, resp.QCResults.MissingDataRate)
	assert.Empty(t, resp.QCResults.SampleIDs)
}

func TestStats(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	resp, err := svc.Stats(context.Background(), researcher, models.Upload{Data: genotypes})
	require.NoError(t, err)
	r := resp.StatsResults
	require.NotNil(t, r)
	assert.Equal(t, MessageStats, resp.Message)
	assert.Equal(t, 3, r.TotalSamples)
	assert.Equal(t, 3, r.TotalSNPs)
	require.Len(t, r.MeanValues, 3)
	assert.InDelta(t, 1.0, r.MeanValues[0], 1e-9)
	assert.InDelta(t, 1.0, r.MeanValues[1], 1e-9)
	assert.InDelta(t, 2.0, r.MeanValues[2], 1e-9)
	assert.InDelta(t, 1.0, r.StdValues[0], 1e-9)
	assert.InDelta(t, 0.0, r.StdValues[1], 1e-9)
	assert.InDelta(t, 0.0, r.StdValues[2], 1e-9)
}

func TestStats_NonNumeric(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	_, err := svc.Stats(context.Background(), researcher, models.Upload{Data: "id,rs1\nS1,AA\n"})
	assert.True(t, errors.Is(err, ErrDataset))
	assert.Contains(t, err.Error(), "rs1")
}

func TestStats_RecorderFailureIgnored(t *testing.T) {
	svc := NewAnalysisService(recorderFunc(func(context.Context, models.AnalysisRun) error {
		return errors.New("db down")
	}), nil)
	_, err := svc.Stats(context.Background(), researcher, models.Upload{Data: genotypes})
	assert.NoError(t, err)
}

func TestChiSquare_FromCSV(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	data := "snp,case_alt,case_ref,control_alt,control_ref\nrs1,30,70,10,90\nrs2,50,50,50,50\n"

	resp, err := svc.ChiSquare(context.Background(), researcher, models.Upload{Data: data})
	require.NoError(t, err)
	assert.Equal(t, MessageChiSquare, resp.Message)
	require.Len(t, resp.GWASResults, 2)

	// 200 * (30*90 - 70*10)^2 / (100*100*40*160)
	rs1 := resp.GWASResults["rs1"]
	assert.InDelta(t, 12.5, rs1.ChiSquare, 1e-9)
	assert.InDelta(t, math.Erfc(math.Sqrt(12.5/2)), rs1.PValue, 1e-9)

	rs2 := resp.GWASResults["rs2"]
	assert.InDelta(t, 0, rs2.ChiSquare, 1e-12)
	assert.InDelta(t, 1, rs2.PValue, 1e-9)
}

func TestChiSquare_FromSNPStats(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	resp, err := svc.ChiSquare(context.Background(), researcher, models.Upload{
		SNPStats: map[string]models.AlleleCounts{"rs7": {CaseAlt: 30, CaseRef: 70, ControlAlt: 10, ControlRef: 90}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, resp.GWASResults["rs7"].ChiSquare, 1e-9)
}

func TestChiSquare_Errors(t *testing.T) {
	svc := NewAnalysisService(nil, nil)
	tests := []struct {
		name string
		up   models.Upload
	}{
		{name: "no data", up: models.Upload{}},
		{name: "missing column", up: models.Upload{Data: "snp,case_alt\nrs1,3\n"}},
		{name: "not numeric", up: models.Upload{Data: "snp,case_alt,case_ref,control_alt,control_ref\nrs1,a,1,1,1\n"}},
		{name: "degenerate", up: models.Upload{SNPStats: map[string]models.AlleleCounts{"rs1": {CaseAlt: 0, CaseRef: 0, ControlAlt: 5, ControlRef: 5}}}},
		{name: "negative", up: models.Upload{SNPStats: map[string]models.AlleleCounts{"rs1": {CaseAlt: -1, CaseRef: 2, ControlAlt: 5, ControlRef: 5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ChiSquare(context.Background(), researcher, tt.up)
			assert.True(t, errors.Is(err, ErrChiSquare), "got %v", err)
		})
	}
}
