// Package app assembles components from configuration for the entry points.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/config"
	"github.com/kailas-cloud/searchbot/internal/db/azsearch"
	dbRedis "github.com/kailas-cloud/searchbot/internal/db/redis"
	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/search/mode"
	"github.com/kailas-cloud/searchbot/internal/metrics"
	"github.com/kailas-cloud/searchbot/internal/repository/embcache"
	"github.com/kailas-cloud/searchbot/internal/tokenizer"
	openaiTransport "github.com/kailas-cloud/searchbot/internal/transport/openai"
	chatuc "github.com/kailas-cloud/searchbot/internal/usecase/chat"
	searchuc "github.com/kailas-cloud/searchbot/internal/usecase/search"
)

// Embedding is the embedder chain and the optional cache store behind it.
type Embedding struct {
	Embedder domain.Embedder
	// Cache is nil when caching is disabled.
	Cache *dbRedis.Store
}

// Close releases the cache connection.
func (e *Embedding) Close() {
	if e != nil && e.Cache != nil {
		e.Cache.Close()
	}
}

// NewSearchClient creates the search service client. Missing endpoint, key or index name
// is a configuration error.
func NewSearchClient(cfg *config.Config, logger *zap.Logger) (*azsearch.Client, error) {
	if err := cfg.RequireSearch(); err != nil {
		return nil, err
	}
	client, err := azsearch.NewClient(azsearch.Config{
		Endpoint:   cfg.Search.Endpoint,
		APIKey:     cfg.Search.APIKey,
		APIVersion: cfg.Search.APIVersion,
		Timeout:    time.Duration(cfg.Search.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrConfiguration, err)
	}
	return client, nil
}

// NewEmbedding builds the embedder chain: go-openai, then the Redis cache when addresses are configured.
// Returns nil when neither the search mode nor the index schema uses vectors.
func NewEmbedding(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Embedding, error) {
	if !cfg.NeedsEmbedding() {
		return nil, nil
	}
	if err := cfg.RequireEmbedding(); err != nil {
		return nil, err
	}

	base, err := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		Config: openaiTransport.Config{
			APIType:    cfg.Embedding.APIType,
			Endpoint:   cfg.Embedding.Endpoint,
			APIKey:     cfg.Embedding.APIKey,
			Deployment: cfg.Embedding.Deployment,
			APIVersion: cfg.Embedding.APIVersion,
		},
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already a configuration error
	}

	if len(cfg.Cache.Addrs) == 0 {
		return &Embedding{Embedder: base}, nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Password: cfg.Cache.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	if err := store.WaitForReady(ctx, 10*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("embedding cache not ready: %w", err)
	}
	logger.Info("Embedding cache connected", zap.Strings("addrs", cfg.Cache.Addrs))

	cached := embcache.New(base, store, embcache.Config{
		Deployment: cfg.Embedding.Deployment,
		Dimensions: cfg.Embedding.Dimensions,
		TTL:        time.Duration(cfg.Cache.TTLHours) * time.Hour,
		CacheTotal: metrics.EmbeddingCacheTotal,
		Logger:     logger,
	})
	return &Embedding{Embedder: cached, Cache: store}, nil
}

// NewSearchService creates the retrieval data source. embedding can be nil.
func NewSearchService(
	cfg *config.Config,
	client searchuc.Searcher,
	embedding *Embedding,
	logger *zap.Logger,
) (*searchuc.Service, error) {
	tok, err := tokenizer.New(cfg.Tokenizer.Encoding)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}

	var embedder searchuc.Embedder
	if embedding != nil {
		embedder = embedding.Embedder
	}

	m, err := mode.Parse(cfg.Search.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	svc, err := searchuc.New(client, embedder, tok, searchuc.Config{
		IndexName:      cfg.Search.IndexName,
		Mode:           m,
		SemanticConfig: cfg.Search.SemanticConfiguration,
		SelectFields:   cfg.Search.SelectFields,
		SearchFields:   cfg.Search.SearchFields,
		VectorField:    cfg.Search.VectorField,
		VectorK:        cfg.Search.VectorK,
		Top:            cfg.Search.Top,
		TokenBudget:    cfg.Search.TokenBudget,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}
	return svc, nil
}

// NewGenerator creates the language model client. Returns a nil interface when no chat
// deployment is configured; any other missing chat setting is a configuration error.
func NewGenerator(cfg *config.Config, logger *zap.Logger) (chatuc.Generator, error) {
	if cfg.Chat.Deployment == "" {
		return nil, nil
	}
	if err := cfg.RequireChat(); err != nil {
		return nil, err
	}

	gen, err := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		Config: openaiTransport.Config{
			APIType:    cfg.Chat.APIType,
			Endpoint:   cfg.Chat.Endpoint,
			APIKey:     cfg.Chat.APIKey,
			Deployment: cfg.Chat.Deployment,
			APIVersion: cfg.Chat.APIVersion,
		},
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already a configuration error
	}
	return gen, nil
}
