// Package v1 provides the v1 API routes.
package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vectorscope/vectorscope"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/infrastructure/api/middleware"
)

// FilesRouter handles file API endpoints.
type FilesRouter struct {
	client *vectorscope.Client
	logger *slog.Logger
}

// NewFilesRouter creates a new FilesRouter.
func NewFilesRouter(client *vectorscope.Client) *FilesRouter {
	return &FilesRouter{
		client: client,
		logger: client.Logger(),
	}
}

// ProjectRoutes returns the router for project-scoped file endpoints.
func (r *FilesRouter) ProjectRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Upload)
	router.Get("/", r.List)

	return router
}

// Upload handles POST /api/v1/projects/{project_id}/files.
// The upload is a multipart form with a single "file" part.
func (r *FilesRouter) Upload(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	projectID, err := pathInt64(req, "project_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}

	part, header, err := req.FormFile("file")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer part.Close()

	file, err := r.client.Files.Upload(ctx, service.UploadRequest{
		UserID:    middleware.UserID(ctx),
		ProjectID: projectID,
		Name:      header.Filename,
		Content:   part,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, fileToDTO(file))
}

// List handles GET /api/v1/projects/{project_id}/files.
func (r *FilesRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	projectID, err := pathInt64(req, "project_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}

	files, err := r.client.Files.List(ctx, projectID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": filesToDTO(files)})
}

// Get handles GET /api/v1/files/{file_id}.
func (r *FilesRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fileID, err := pathInt64(req, "file_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	file, err := r.client.Files.Get(ctx, fileID, middleware.UserID(ctx))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, fileToDTO(file))
}

// Rows handles GET /api/v1/files/{file_id}/rows.
func (r *FilesRouter) Rows(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fileID, err := pathInt64(req, "file_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	limit := queryInt(req, "limit", 100)
	offset := queryInt(req, "offset", 0)

	page, err := r.client.Files.Rows(ctx, fileID, middleware.UserID(ctx), limit, offset)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rowsToDTO(page.Rows, page.Total))
}

func pathInt64(req *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(req, name), 10, 64)
}

func queryInt(req *http.Request, name string, fallback int) int {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
