package index

import (
	"context"

	"github.com/kailas-cloud/searchbot/internal/db"
)

// Manager provides index lifecycle operations.
type Manager interface {
	GetIndex(ctx context.Context, name string) (*db.IndexDefinition, error)
	CreateOrUpdateIndex(ctx context.Context, def *db.IndexDefinition) error
	DeleteIndex(ctx context.Context, name string) error
}

// Writer writes document batches.
type Writer interface {
	IndexDocuments(
		ctx context.Context, index string, action db.DocumentAction, docs []map[string]any,
	) ([]db.IndexingResult, error)
}
