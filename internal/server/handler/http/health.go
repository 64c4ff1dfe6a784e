package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
)

// Service identity reported by the health endpoint.
const (
	ServiceName    = "genome-collab-portal"
	ServiceVersion = "1.0.0"
)

// Health reports that the API is up.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: time.Now().UTC(),
		Version:   ServiceVersion,
	})
}
