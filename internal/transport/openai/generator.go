package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/metrics"
)

// Generator produces chat completions from a hosted model deployment.
type Generator struct {
	client      *openai.Client
	deployment  string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// GeneratorConfig holds the chat deployment settings.
type GeneratorConfig struct {
	Config
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// NewGenerator creates a chat completion client. Missing endpoint, key or deployment is a configuration error.
func NewGenerator(cfg *GeneratorConfig) (*Generator, error) {
	if err := cfg.validate("chat"); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:      newClient(&cfg.Config),
		deployment:  cfg.Deployment,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Generate returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.deployment,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(g.deployment, "error").Inc()
		return "", parseAPIError(err, domain.ErrGeneration)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.CompletionRequestsTotal.WithLabelValues(g.deployment, "error").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrGeneration)
	}

	metrics.CompletionRequestsTotal.WithLabelValues(g.deployment, "success").Inc()
	metrics.CompletionTokensTotal.WithLabelValues(g.deployment, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues(g.deployment, "completion").Add(float64(resp.Usage.CompletionTokens))

	g.logger.Debug("Completion generated",
		zap.String("deployment", g.deployment),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
