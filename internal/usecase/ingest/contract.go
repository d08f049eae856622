package ingest

import (
	"context"

	"github.com/kailas-cloud/searchbot/internal/domain"
)

// Embedder vectorizes document content.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
