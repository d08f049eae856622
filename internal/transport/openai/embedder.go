package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/metrics"
)

// Embedder turns text into a vector through an embedding deployment.
type Embedder struct {
	client     *openai.Client
	deployment string
	dimensions int
	logger     *zap.Logger
}

// EmbedderConfig holds the embedding deployment settings.
type EmbedderConfig struct {
	Config
	Dimensions int
	Logger     *zap.Logger
}

// NewEmbedder creates an embedder. Missing endpoint, key or deployment is a configuration error.
func NewEmbedder(cfg *EmbedderConfig) (*Embedder, error) {
	if err := cfg.validate("embedding"); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     newClient(&cfg.Config),
		deployment: cfg.Deployment,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// Embed implements domain.Embedder. It returns the first vector of a successful response.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.deployment),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.deployment, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.deployment, "api_error").Inc()
		e.logger.Warn("Embedding request failed",
			zap.String("deployment", e.deployment),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, parseAPIError(err, domain.ErrEmbeddingProviderError)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.deployment, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.deployment, "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.deployment, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.deployment).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.deployment, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.deployment, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("embedding probe: %w", err)
	}
	return nil
}
