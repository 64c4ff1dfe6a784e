package http

import (
	"net/http"

	"github.com/atinyakov/GenomePortal/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth           *AuthHandler
	Collaborations *CollaborationHandler
	Analysis       *AnalysisHandler
	// Authenticator resolves bearer tokens for the protected group.
	Authenticator middleware.Authenticator
}

// NewRouter constructs the portal API handler. Every route lives under
// /api; all but register, login and health require a bearer token.
//
// Middleware chain (applied in order):
//  1. RequestID and Recoverer
//  2. WithRequestLogging(logger)
//  3. AllowContentType("application/json") for request bodies
//  4. BearerAuth on the protected group
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", Health)
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(h.Authenticator, logger))

			r.Post("/logout", h.Auth.Logout)
			r.Get("/profile", h.Auth.Profile)
			r.Put("/profile", h.Auth.UpdateProfile)

			r.Get("/user/{userID}/collaborations", h.Collaborations.ListForUser)
			r.Post("/start_collaboration", h.Collaborations.Start)
			r.Get("/collaboration/{uuid}", h.Collaborations.Get)

			r.Post("/upload_csv_qc", h.Analysis.QC)
			r.Post("/upload_csv_stats", h.Analysis.Stats)
			r.Post("/calculate_chi_square", h.Analysis.ChiSquare)
		})
	})

	return r
}
