package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vectorscope/vectorscope"
	apimiddleware "github.com/vectorscope/vectorscope/infrastructure/api/middleware"
	v1 "github.com/vectorscope/vectorscope/infrastructure/api/v1"
)

// APIServer provides an HTTP API backed by a vectorscope Client.
type APIServer struct {
	client      *vectorscope.Client
	corsOrigins []string
	server      *Server
	router      chi.Router
	logger      *slog.Logger
}

// NewAPIServer creates a new APIServer wired to the given vectorscope
// Client. corsOrigins configures cross-origin access for browser frontends;
// an empty list allows none.
func NewAPIServer(client *vectorscope.Client, corsOrigins []string) *APIServer {
	return &APIServer{
		client:      client,
		corsOrigins: corsOrigins,
		logger:      client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
// Call this first, add custom middleware with router.Use(), then call MountRoutes().
// If not called, ListenAndServe creates a default router with all standard routes.
func (a *APIServer) Router() chi.Router {
	if a.router != nil {
		return a.router
	}

	a.router = chi.NewRouter()
	return a.router
}

// MountRoutes wires up all v1 API routes on the router.
// Call this after adding any custom middleware via Router().Use().
func (a *APIServer) MountRoutes() {
	if a.router == nil {
		a.Router()
	}
	a.mountRoutes(a.router)
}

func (a *APIServer) mountRoutes(router chi.Router) {
	filesRouter := v1.NewFilesRouter(a.client)
	jobsRouter := v1.NewJobsRouter(a.client)
	visualizationsRouter := v1.NewVisualizationsRouter(a.client)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		if len(a.corsOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   a.corsOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
				AllowCredentials: false,
				MaxAge:           300,
			}))
		}
		r.Use(apimiddleware.Identity())

		r.Route("/projects/{project_id}", func(r chi.Router) {
			r.Mount("/files", filesRouter.ProjectRoutes())
			r.Get("/jobs", jobsRouter.ListForProject)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/{file_id}", filesRouter.Get)
			r.Get("/{file_id}/rows", filesRouter.Rows)
			r.Post("/{file_id}/embeddings", jobsRouter.Submit)
			r.Mount("/{file_id}/visualizations", visualizationsRouter.Routes())
		})

		r.Mount("/jobs", jobsRouter.Routes())
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ListenAndServe starts the HTTP server on the given address. It blocks
// until the server stops.
func (a *APIServer) ListenAndServe(addr string) error {
	if a.router == nil {
		a.Router()
		a.router.Use(chimiddleware.RequestID)
		a.router.Use(chimiddleware.RealIP)
		a.router.Use(chimiddleware.Recoverer)
		a.router.Use(apimiddleware.Logging(a.logger))
		a.MountRoutes()
	}

	server := NewServer(addr, a.logger)
	server.Router().Mount("/", a.router)
	a.server = &server
	return a.server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
