package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vectorscope/vectorscope/domain/dataset"
	"github.com/vectorscope/vectorscope/domain/job"
	"github.com/vectorscope/vectorscope/internal/database"
)

// Files handles tabular file uploads and row access. An upload is parsed,
// stored row-addressable, and followed by an asynchronous column-metadata
// ingestion pass dispatched through the queue.
type Files struct {
	files      dataset.FileStore
	rows       dataset.RowStore
	queue      job.Queue
	storageDir string
	maxBytes   int64
	timeout    time.Duration
	logger     *slog.Logger
}

// NewFiles creates the files service. storageDir receives the raw uploads.
func NewFiles(
	files dataset.FileStore,
	rows dataset.RowStore,
	queue job.Queue,
	storageDir string,
	maxBytes int64,
	timeout time.Duration,
	logger *slog.Logger,
) *Files {
	if timeout <= 0 {
		timeout = job.DefaultTimeout
	}
	return &Files{
		files:      files,
		rows:       rows,
		queue:      queue,
		storageDir: storageDir,
		maxBytes:   maxBytes,
		timeout:    timeout,
		logger:     logger,
	}
}

// UploadRequest carries one file upload.
type UploadRequest struct {
	UserID    int64
	ProjectID int64
	Name      string
	Content   io.Reader
}

// Upload parses a CSV upload, persists the file record and its rows, and
// dispatches column-metadata ingestion. The returned File has no column
// metadata yet; it arrives asynchronously.
func (s *Files) Upload(ctx context.Context, req UploadRequest) (dataset.File, error) {
	if req.Name == "" {
		return dataset.File{}, NewValidationError("name", "must not be empty")
	}
	if !strings.HasSuffix(strings.ToLower(req.Name), ".csv") {
		return dataset.File{}, NewValidationError("name", "only csv uploads are supported")
	}

	reader := req.Content
	if s.maxBytes > 0 {
		reader = io.LimitReader(req.Content, s.maxBytes+1)
	}

	storagePath, written, err := s.persistRaw(req.Name, reader)
	if err != nil {
		return dataset.File{}, err
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		_ = os.Remove(storagePath)
		return dataset.File{}, NewValidationError("content", fmt.Sprintf("upload exceeds %d bytes", s.maxBytes))
	}

	header, records, err := parseCSV(storagePath)
	if err != nil {
		_ = os.Remove(storagePath)
		return dataset.File{}, NewValidationError("content", err.Error())
	}

	file := dataset.NewFile(req.ProjectID, req.UserID, req.Name, storagePath, dataset.FileTypeCSV, len(records))
	file, err = s.files.Save(ctx, file)
	if err != nil {
		_ = os.Remove(storagePath)
		return dataset.File{}, err
	}

	rows := make([]dataset.Row, len(records))
	for i, record := range records {
		values := make(map[string]dataset.Value, len(header))
		for j, column := range header {
			if j < len(record) {
				values[column] = parseCell(record[j])
			} else {
				values[column] = dataset.NullValue()
			}
		}
		rows[i] = dataset.NewRow(file.ID(), i, header, values)
	}

	if _, err := s.rows.SaveAll(ctx, rows); err != nil {
		// Roll the upload back entirely so a retry starts clean.
		_ = s.files.Delete(ctx, file.ID())
		_ = os.Remove(storagePath)
		return dataset.File{}, err
	}

	jobID := job.NewID()
	payload := map[string]any{"file_id": file.ID()}
	if err := s.queue.Enqueue(ctx, job.OperationIngestColumns, payload, jobID, s.timeout); err != nil {
		// The upload itself succeeded; metadata stays absent until a later
		// ingestion pass. Callers tolerate missing metadata by contract.
		s.logger.Error("column ingestion dispatch failed",
			slog.Int64("file_id", file.ID()),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("file uploaded",
		slog.Int64("file_id", file.ID()),
		slog.Int64("project_id", req.ProjectID),
		slog.Int("rows", len(rows)),
	)
	return file, nil
}

// Get returns a file visible to the user.
func (s *Files) Get(ctx context.Context, fileID, userID int64) (dataset.File, error) {
	file, err := s.files.GetOwned(ctx, fileID, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return dataset.File{}, NewNotFoundError("file", strconv.FormatInt(fileID, 10))
		}
		return dataset.File{}, err
	}
	return file, nil
}

// List returns the project's files, newest first.
func (s *Files) List(ctx context.Context, projectID int64) ([]dataset.File, error) {
	return s.files.FindByProject(ctx, projectID)
}

// RowPage is one page of rows plus the total count.
type RowPage struct {
	Rows  []dataset.Row
	Total int64
}

// Rows returns a row_index-ordered page of a file's rows.
func (s *Files) Rows(ctx context.Context, fileID, userID int64, limit, offset int) (RowPage, error) {
	if _, err := s.Get(ctx, fileID, userID); err != nil {
		return RowPage{}, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.rows.FindPage(ctx, fileID, limit, offset)
	if err != nil {
		return RowPage{}, err
	}
	total, err := s.rows.CountByFile(ctx, fileID)
	if err != nil {
		return RowPage{}, err
	}
	return RowPage{Rows: rows, Total: total}, nil
}

// persistRaw streams the upload to the storage directory under a unique name.
func (s *Files) persistRaw(name string, content io.Reader) (string, int64, error) {
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create storage dir: %w", err)
	}

	path := filepath.Join(s.storageDir, uuid.NewString()+"_"+filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, content)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	return path, written, nil
}

// parseCSV reads the stored upload and returns the header and data records.
func parseCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, nil, fmt.Errorf("header has no columns")
	}
	for i, column := range header {
		header[i] = strings.TrimSpace(column)
		if header[i] == "" {
			return nil, nil, fmt.Errorf("column %d has an empty name", i)
		}
	}

	var records [][]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file has a header but no rows")
	}
	return header, records, nil
}

// parseCell infers the scalar type of one CSV cell. Empty cells are null;
// unambiguous numbers and booleans keep their type; everything else stays a
// string.
func parseCell(raw string) dataset.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return dataset.NullValue()
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return dataset.NumberValue(n)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return dataset.BoolValue(true)
	case "false":
		return dataset.BoolValue(false)
	}
	return dataset.StringValue(raw)
}
