package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/vectorscope/vectorscope/domain/embedding"
)

// OpenAIGenerator implements embedding.Generator against an OpenAI-compatible
// API. It performs a single request per Generate call; sub-batching and retry
// policy live in the Batcher wrapping it.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ embedding.Generator = (*OpenAIGenerator)(nil)

// OpenAIConfig holds configuration for the OpenAI generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAIGenerator creates a generator from configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Generate requests embeddings for the given texts in one API call.
func (g *OpenAIGenerator) Generate(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(g.model),
		Input: texts,
	})
	if err != nil {
		return nil, g.wrapError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vectors[i][j] = float64(v)
		}
	}
	return vectors, nil
}

func (g *OpenAIGenerator) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError("embedding", apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError("embedding", reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError("embedding", 0, err.Error(), err)
}

// IsRetryable determines whether an embedding request error is worth
// retrying: rate limits, upstream 5xx, network timeouts, and partial
// responses qualify; everything else is permanent.
func IsRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Request-level failures are network errors.
		return true
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.Err != nil {
		return IsRetryable(provErr.Err)
	}

	return false
}
