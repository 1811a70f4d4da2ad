package v1

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vectorscope/vectorscope"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/visualization"
	"github.com/vectorscope/vectorscope/infrastructure/api/middleware"
)

// VisualizationsRouter handles reduced-coordinate endpoints.
type VisualizationsRouter struct {
	client *vectorscope.Client
	logger *slog.Logger
}

// NewVisualizationsRouter creates a new VisualizationsRouter.
func NewVisualizationsRouter(client *vectorscope.Client) *VisualizationsRouter {
	return &VisualizationsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the router for file-scoped visualization endpoints.
func (r *VisualizationsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Get("/export", r.Export)

	return router
}

// List handles GET /api/v1/files/{file_id}/visualizations.
// Optional query parameters: method (umap|pca), dimensions (2|3).
func (r *VisualizationsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fileID, err := pathInt64(req, "file_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	// Ownership gate before touching the point set.
	if _, err := r.client.Files.Get(ctx, fileID, middleware.UserID(ctx)); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	method := visualization.Method(req.URL.Query().Get("method"))
	dimensions := queryInt(req, "dimensions", 0)

	points, err := r.client.Visualizations.Find(ctx, fileID, method, dimensions)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, pointsToDTO(points))
}

// Export handles GET /api/v1/files/{file_id}/visualizations/export.
// Query parameters: format (csv|json, default json), plus the List filters.
func (r *VisualizationsRouter) Export(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fileID, err := pathInt64(req, "file_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	if _, err := r.client.Files.Get(ctx, fileID, middleware.UserID(ctx)); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	format := service.ExportFormat(req.URL.Query().Get("format"))
	if format == "" {
		format = service.ExportJSON
	}
	method := visualization.Method(req.URL.Query().Get("method"))
	dimensions := queryInt(req, "dimensions", 0)

	// Validate everything before the first write: once streaming starts the
	// status line is committed.
	if format != service.ExportCSV && format != service.ExportJSON {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be csv or json"})
		return
	}
	if _, err := r.client.Visualizations.Find(ctx, fileID, method, dimensions); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	if format == service.ExportCSV {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=visualizations_%d.csv", fileID))
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	if err := r.client.Visualizations.Export(ctx, w, fileID, method, dimensions, format); err != nil {
		r.logger.Error("export stream failed",
			slog.Int64("file_id", fileID),
			slog.String("error", err.Error()),
		)
	}
}
