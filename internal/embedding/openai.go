package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/nysgpt/billembed/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimensions = 256
)

// APIError is a non-success response from the embedding API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedding API returned %d: %s", e.StatusCode, e.Body)
}

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty uses the OpenAI default
	Model      string
	Dimensions int
	CacheSize  int // 0 disables the cache
	HTTPClient *http.Client
}

// OpenAIEmbedder embeds text through an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	cache      *EmbeddingCache
	logger     *zap.Logger
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*OpenAIEmbedder)

// WithLogger sets a logger for request debug output.
func WithLogger(l *zap.Logger) OpenAIOption {
	return func(e *OpenAIEmbedder) { e.logger = l }
}

// NewOpenAIEmbedder creates an embedder. An empty API key is a configuration error.
func NewOpenAIEmbedder(cfg OpenAIConfig, opts ...OpenAIOption) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding API key not set", models.ErrConfig)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	e := &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     zap.NewNop(),
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if e.dimensions <= 0 {
		e.dimensions = DefaultDimensions
	}
	if cfg.CacheSize > 0 {
		e.cache = NewEmbeddingCache(e.model, cfg.CacheSize)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed returns the embedding of a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all texts not already cached in one request. Response items are placed
// by their declared index, since the API does not promise to keep request order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))
	for i, text := range texts {
		if e.cache != nil {
			if v, ok := e.cache.Get(text); ok {
				out[i] = v
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	e.logger.Debug("embedding request",
		zap.Int("inputs", len(missTexts)),
		zap.Int("cached", len(texts)-len(missTexts)),
		zap.String("model", e.model),
	)
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      missTexts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	if len(data) != len(missTexts) {
		return nil, fmt.Errorf("%w: requested %d embeddings, got %d", models.ErrEmbedding, len(missTexts), len(data))
	}
	for j, d := range data {
		if d.Index != j {
			return nil, fmt.Errorf("%w: response missing index %d", models.ErrEmbedding, j)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d", models.ErrEmbedding, j, len(d.Embedding), e.dimensions)
		}
		out[missIdx[j]] = d.Embedding
		if e.cache != nil {
			e.cache.Set(missTexts[j], d.Embedding)
		}
	}
	return out, nil
}

// classifyError tags client errors with ErrEmbedding, preserving the HTTP status and body.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", models.ErrEmbedding, &APIError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %w", models.ErrEmbedding, &APIError{StatusCode: reqErr.HTTPStatusCode, Body: fmt.Sprint(reqErr.Err)})
	}
	return fmt.Errorf("%w: %w", models.ErrEmbedding, err)
}

// Dimensions returns the requested output dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close logs cache usage. The HTTP client holds nothing to release.
func (e *OpenAIEmbedder) Close() error {
	if e.cache != nil {
		st := e.cache.Stats()
		e.logger.Debug("embedding cache", zap.Int64("hits", st.Hits), zap.Int64("misses", st.Misses), zap.Int("entries", st.Entries))
	}
	return nil
}
