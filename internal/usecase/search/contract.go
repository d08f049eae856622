package search

import (
	"context"

	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/domain"
)

// Searcher runs a single query against the search service.
type Searcher interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
}

// Embedder vectorizes the query text for vector clauses.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Tokenizer counts language model tokens.
type Tokenizer interface {
	Count(text string) int
}
