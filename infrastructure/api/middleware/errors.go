package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vectorscope/vectorscope/application/service"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
)

// errorResponse is the JSON envelope every error returns.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a service error to an HTTP status and writes the JSON
// envelope. Internal errors are logged with their cause but never leak it
// to the response body.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
		return
	}

	var nfe *service.NotFoundError
	if errors.As(err, &nfe) {
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: nfe.Error()})
		return
	}
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, job.ErrProgressNotFound) {
		WriteJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	if logger != nil {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
