package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
)

// Readiness polling backoff.
const (
	DefaultPollInitial = 250 * time.Millisecond
	DefaultPollMax     = 5 * time.Second
)

// Service manages the index lifecycle and document upserts for the offline indexer.
type Service struct {
	indexes     Manager
	docs        Writer
	logger      *zap.Logger
	pollInitial time.Duration
	pollMax     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithPollInterval overrides the readiness backoff bounds.
func WithPollInterval(initial, maxInterval time.Duration) Option {
	return func(s *Service) {
		s.pollInitial = initial
		s.pollMax = maxInterval
	}
}

// New creates an index service.
func New(indexes Manager, docs Writer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		indexes:     indexes,
		docs:        docs,
		logger:      logger,
		pollInitial: DefaultPollInitial,
		pollMax:     DefaultPollMax,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnsureIndex creates the index from def unless it already exists.
// Only a not-found lookup triggers creation; any other lookup failure is returned.
// Reports whether the index was created.
func (s *Service) EnsureIndex(ctx context.Context, def *db.IndexDefinition) (bool, error) {
	_, err := s.indexes.GetIndex(ctx, def.Name)
	if err == nil {
		s.logger.Info("Index already exists, skipping creation", zap.String("index", def.Name))
		return false, nil
	}
	if !errors.Is(err, db.ErrIndexNotFound) {
		return false, fmt.Errorf("get index %s: %w", def.Name, err)
	}

	s.logger.Info("Index does not exist, creating it", zap.String("index", def.Name))
	if err := s.indexes.CreateOrUpdateIndex(ctx, def); err != nil {
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}

// WaitForReady polls the index until it can be read, with exponential backoff,
// giving up with domain.ErrIndexNotReady after timeout.
func (s *Service) WaitForReady(ctx context.Context, name string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := s.pollInitial
	var lastErr error
	for {
		_, err := s.indexes.GetIndex(ctx, name)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, db.ErrUnauthorized) {
			return fmt.Errorf("get index %s: %w", name, err)
		}

		s.logger.Debug("Index not ready yet",
			zap.String("index", name),
			zap.Duration("retry_in", interval),
			zap.Error(err),
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %s after %s: %w", domain.ErrIndexNotReady, name, timeout, lastErr)
		case <-timer.C:
		}

		interval *= 2
		if interval > s.pollMax {
			interval = s.pollMax
		}
	}
}

// UpsertDocuments merges documents into the index by key, inserting missing ones.
// A batch the service rejects in part is returned as an error naming the failed keys.
func (s *Service) UpsertDocuments(ctx context.Context, name string, docs []document.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := make([]map[string]any, 0, len(docs))
	for i := range docs {
		batch = append(batch, documentFields(&docs[i]))
	}

	results, err := s.docs.IndexDocuments(ctx, name, db.ActionMergeOrUpload, batch)
	if err != nil {
		return fmt.Errorf("upsert %d documents into %s: %w", len(docs), name, err)
	}

	s.logger.Info("Documents upserted",
		zap.String("index", name),
		zap.Int("count", len(results)),
	)
	return nil
}

// DeleteDocuments removes documents by key. Keys the index does not hold are ignored by the service.
func (s *Service) DeleteDocuments(ctx context.Context, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	batch := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, map[string]any{document.FieldID: id})
	}
	if _, err := s.docs.IndexDocuments(ctx, name, db.ActionDelete, batch); err != nil {
		return fmt.Errorf("delete %d documents from %s: %w", len(ids), name, err)
	}

	s.logger.Info("Documents deleted", zap.String("index", name), zap.Strings("ids", ids))
	return nil
}

// DeleteIndex removes the index unconditionally. A missing index is reported as domain.ErrNotFound.
func (s *Service) DeleteIndex(ctx context.Context, name string) error {
	if err := s.indexes.DeleteIndex(ctx, name); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("delete index %s: %w: %w", name, domain.ErrNotFound, err)
		}
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	s.logger.Info("Index deleted", zap.String("index", name))
	return nil
}
