package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/GenomePortal/internal/middleware"
	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/atinyakov/GenomePortal/internal/service"
	"go.uber.org/zap"
)

// AnalysisService defines the dataset analyses required by the handlers.
type AnalysisService interface {
	QC(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error)
	Stats(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error)
	ChiSquare(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error)
}

// AnalysisHandler serves the upload and analysis endpoints.
type AnalysisHandler struct {
	AnalysisService AnalysisService
	Log             *zap.Logger
}

type analysisFunc func(ctx context.Context, user models.User, up models.Upload) (models.AnalysisResponse, error)

func (h *AnalysisHandler) serve(w http.ResponseWriter, r *http.Request, run analysisFunc) {
	var up models.Upload
	if !decodeJSON(w, r, &up) {
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	resp, err := run(r.Context(), user, up)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrDataset), errors.Is(err, service.ErrChiSquare):
		writeError(w, http.StatusBadRequest, sentence(err.Error()))
	default:
		logError(h.Log, "analysis", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// QC runs quality control over an uploaded genotype table.
func (h *AnalysisHandler) QC(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.AnalysisService.QC)
}

// Stats computes per-SNP summary statistics.
func (h *AnalysisHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.AnalysisService.Stats)
}

// ChiSquare runs the allelic association test.
func (h *AnalysisHandler) ChiSquare(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.AnalysisService.ChiSquare)
}
