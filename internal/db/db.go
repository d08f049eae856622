package db

import (
	"context"
	"time"
)

// SearchService is the managed search service facade combining all sub-interfaces.
type SearchService interface {
	IndexManager
	DocumentWriter
	Searcher
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	GetIndex(ctx context.Context, name string) (*IndexDefinition, error)
	CreateOrUpdateIndex(ctx context.Context, def *IndexDefinition) error
	DeleteIndex(ctx context.Context, name string) error
}

// DocumentWriter writes document batches. Each document is a field-name to value map.
type DocumentWriter interface {
	IndexDocuments(
		ctx context.Context, index string, action DocumentAction, docs []map[string]any,
	) ([]IndexingResult, error)
}

// Searcher runs ranked queries against an index.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
}

// KVStore provides simple key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}
