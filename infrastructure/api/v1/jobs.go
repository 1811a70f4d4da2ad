package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vectorscope/vectorscope"
	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/infrastructure/api/middleware"
)

// JobsRouter handles embedding job endpoints.
type JobsRouter struct {
	client *vectorscope.Client
	logger *slog.Logger
}

// NewJobsRouter creates a new JobsRouter.
func NewJobsRouter(client *vectorscope.Client) *JobsRouter {
	return &JobsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the router for job status endpoints.
func (r *JobsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{job_id}", r.Get)

	return router
}

// SubmitRequest is the POST body for a job submission.
type SubmitRequest struct {
	Column    string `json:"column"`
	ModelName string `json:"model_name"`
}

// Submit handles POST /api/v1/files/{file_id}/embeddings.
// It accepts the job and returns 202 with the initial queued status; the
// work itself runs asynchronously.
func (r *JobsRouter) Submit(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fileID, err := pathInt64(req, "file_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid file id"})
		return
	}

	var body SubmitRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := r.client.Jobs.Submit(ctx, service.SubmitRequest{
		UserID:    middleware.UserID(ctx),
		FileID:    fileID,
		Column:    body.Column,
		ModelName: body.ModelName,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, view)
}

// Get handles GET /api/v1/jobs/{job_id}.
func (r *JobsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	jobID := chi.URLParam(req, "job_id")
	if jobID == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return
	}

	view, err := r.client.Jobs.Progress(ctx, job.ID(jobID))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, view)
}

// ListForProject handles GET /api/v1/projects/{project_id}/jobs.
func (r *JobsRouter) ListForProject(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	projectID, err := pathInt64(req, "project_id")
	if err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
		return
	}

	views, err := r.client.Jobs.ListProgress(ctx, projectID)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{"data": views})
}
