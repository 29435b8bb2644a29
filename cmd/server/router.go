package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/curriculum-api/internal/api"
	apiMiddleware "github.com/phrazzld/curriculum-api/internal/api/middleware"
	"github.com/phrazzld/curriculum-api/internal/service"
	"github.com/phrazzld/curriculum-api/internal/service/auth"
)

func (app *application) setupRouter() http.Handler {
	return newRouter(app.logger, app.verifier, app.unitService, app.alignmentService)
}

// newRouter builds the HTTP handler: standard middleware, the authenticated
// API under /api and a public health check.
func newRouter(
	logger *slog.Logger,
	verifier auth.TokenVerifier,
	units service.UnitService,
	alignment service.AlignmentService,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(verifier)
	unitHandler := api.NewUnitHandler(units, logger)
	alignmentHandler := api.NewAlignmentHandler(alignment, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		api.RegisterRoutes(r, unitHandler, alignmentHandler)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
