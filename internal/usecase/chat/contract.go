package chat

import (
	"context"

	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/search/rendered"
)

// ContextSource renders retrieved documents as prompt text.
type ContextSource interface {
	RenderContext(ctx context.Context, query string, tokenBudget int) (rendered.Context, error)
}

// Generator produces a model completion.
type Generator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
