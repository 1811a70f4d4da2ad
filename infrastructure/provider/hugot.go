package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/vectorscope/vectorscope/domain/embedding"
)

// ortSingleton holds the process-wide ONNX Runtime session and pipeline.
// ORT only allows one active session per process, so all HugotGenerator
// instances must share it. The mutex serializes both initialization and
// inference (ORT is not thread-safe).
var ortSingleton struct {
	session   *hugot.Session
	pipeline  *pipelines.FeatureExtractionPipeline
	modelPath string
	mu        sync.Mutex
	ready     bool
}

// HugotGenerator implements embedding.Generator with a local ONNX model via
// hugot. The model directory must contain tokenizer.json and the ONNX
// weights; sub-batching and retry policy live in the Batcher wrapping it.
type HugotGenerator struct {
	modelPath string
}

var _ embedding.Generator = (*HugotGenerator)(nil)

// NewHugotGenerator creates a generator for the model at modelPath.
func NewHugotGenerator(modelPath string) *HugotGenerator {
	return &HugotGenerator{modelPath: modelPath}
}

// Available reports whether a usable model exists at the configured path.
func (h *HugotGenerator) Available() bool {
	_, err := os.Stat(filepath.Join(h.modelPath, "tokenizer.json"))
	return err == nil
}

func (h *HugotGenerator) initialize() error {
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	if ortSingleton.ready {
		if ortSingleton.modelPath != h.modelPath {
			return fmt.Errorf("local model already loaded from %s; one model per process", ortSingleton.modelPath)
		}
		return nil
	}

	if !h.Available() {
		return fmt.Errorf("no model with tokenizer.json found at %s", h.modelPath)
	}

	session, err := newHugotSession()
	if err != nil {
		return fmt.Errorf("create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: h.modelPath,
		Name:      "local-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return fmt.Errorf("create feature extraction pipeline: %w", err)
	}

	ortSingleton.session = session
	ortSingleton.pipeline = pipeline
	ortSingleton.modelPath = h.modelPath
	ortSingleton.ready = true
	return nil
}

// Generate embeds the given texts using the local model.
func (h *HugotGenerator) Generate(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := h.initialize(); err != nil {
		return nil, fmt.Errorf("initialize hugot: %w", err)
	}

	// Hold the singleton mutex for inference; ORT is not thread-safe.
	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	result, err := ortSingleton.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("run embedding pipeline: %w", err)
	}

	vectors := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		vectors[i] = vec64
	}
	return vectors, nil
}

// Close is a no-op. The ONNX Runtime session is process-global and shared
// across all HugotGenerator instances; it is cleaned up when the process
// exits.
func (h *HugotGenerator) Close() error {
	return nil
}
