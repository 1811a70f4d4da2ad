// Package smoke provides smoke tests against a running vectorscope server.
// Expects the server at baseURL with an embedding provider configured.
package smoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"
)

const (
	baseHost  = "127.0.0.1"
	basePort  = 8000
	userID    = "1"
	projectID = 1
)

var baseURL = fmt.Sprintf("http://%s:%d/api/v1", baseHost, basePort)
var rootURL = fmt.Sprintf("http://%s:%d", baseHost, basePort)

const sampleCSV = `title,summary
First document,A short piece of text about the first thing
Second document,Another short piece of text about something else
Third document,Yet more text describing a third topic entirely
`

func TestSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	t.Run("health", func(t *testing.T) {
		resp, err := http.Get(rootURL + "/healthz")
		if err != nil {
			t.Fatalf("health request failed: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("file_not_found", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, baseURL+"/files/99999", "", nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	fileID := uploadSample(t)
	t.Logf("uploaded file: id=%d", fileID)

	t.Run("file_detail", func(t *testing.T) {
		var file struct {
			ID       int64 `json:"id"`
			RowCount int   `json:"row_count"`
		}
		getJSON(t, fmt.Sprintf("%s/files/%d", baseURL, fileID), &file)
		if file.ID != fileID {
			t.Fatalf("expected file id %d, got %d", fileID, file.ID)
		}
		if file.RowCount != 3 {
			t.Fatalf("expected 3 rows, got %d", file.RowCount)
		}
	})

	t.Run("rows", func(t *testing.T) {
		var page struct {
			Total int64 `json:"total"`
			Data  []struct {
				RowIndex int `json:"row_index"`
			} `json:"data"`
		}
		getJSON(t, fmt.Sprintf("%s/files/%d/rows", baseURL, fileID), &page)
		if page.Total != 3 {
			t.Fatalf("expected total 3, got %d", page.Total)
		}
	})

	jobID := submitJob(t, fileID)
	t.Logf("submitted job: id=%s", jobID)

	waitForCompletion(t, jobID)

	t.Run("visualizations", func(t *testing.T) {
		var points struct {
			Data []struct {
				Method     string    `json:"method"`
				Dimensions int       `json:"dimensions"`
				Coordinate []float64 `json:"coordinate"`
			} `json:"data"`
		}
		getJSON(t, fmt.Sprintf("%s/files/%d/visualizations", baseURL, fileID), &points)
		if len(points.Data) == 0 {
			t.Fatal("expected visualization points after job completion")
		}
		for _, p := range points.Data {
			if len(p.Coordinate) != p.Dimensions {
				t.Fatalf("coordinate width %d does not match dimensions %d", len(p.Coordinate), p.Dimensions)
			}
		}
	})

	t.Run("export_csv", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet,
			fmt.Sprintf("%s/files/%d/visualizations/export?format=csv", baseURL, fileID), "", nil)
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read export: %v", err)
		}
		if !strings.HasPrefix(string(body), "row_id,") {
			t.Fatalf("expected CSV header, got %q", string(body)[:min(len(body), 40)])
		}
	})
}

func uploadSample(t *testing.T) int64 {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "sample.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(sampleCSV)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	resp := doRequest(t, http.MethodPost,
		fmt.Sprintf("%s/projects/%d/files", baseURL, projectID),
		writer.FormDataContentType(), &buf)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
	}

	var file struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("expected file ID")
	}
	return file.ID
}

func submitJob(t *testing.T, fileID int64) string {
	t.Helper()

	body := strings.NewReader(`{"column":"summary","model_name":"smoke-test"}`)
	resp := doRequest(t, http.MethodPost,
		fmt.Sprintf("%s/files/%d/embeddings", baseURL, fileID),
		"application/json", body)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, string(raw))
	}

	var view struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if view.JobID == "" {
		t.Fatal("expected job ID")
	}
	return view.JobID
}

func waitForCompletion(t *testing.T, jobID string) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Minute)
	for time.Now().Before(deadline) {
		var view struct {
			Status   string `json:"status"`
			Progress int    `json:"progress"`
			Error    *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		getJSON(t, baseURL+"/jobs/"+jobID, &view)

		switch view.Status {
		case "complete":
			if view.Progress != 100 {
				t.Fatalf("complete job at %d%%, expected 100", view.Progress)
			}
			return
		case "failed":
			msg := ""
			if view.Error != nil {
				msg = view.Error.Message
			}
			t.Fatalf("job failed: %s", msg)
		}

		time.Sleep(2 * time.Second)
	}
	t.Fatal("job did not complete before deadline")
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()

	resp := doRequest(t, http.MethodGet, url, "", nil)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: expected 200, got %d: %s", url, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func doRequest(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("X-User-ID", userID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}
