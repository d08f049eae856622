package ingest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
)

// Defaults for the ingestion source.
const (
	DefaultURIPrefix   = "https://example.com/"
	DefaultConcurrency = 4
)

// Config describes where documents are read from.
type Config struct {
	DataDir string
	// URIPrefix is joined with the file name to form a placeholder source URI.
	URIPrefix   string
	Concurrency int
	// EmbedRPS > 0 caps embedding requests per second; EmbedBurst defaults to Concurrency.
	EmbedRPS   float64
	EmbedBurst int
}

// Service turns a directory of text files into documents.
type Service struct {
	cfg     Config
	embed   Embedder
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates an ingestion service. embed can be nil (no vectors are computed).
func New(cfg Config, embed Embedder, logger *zap.Logger) (*Service, error) {
	if err := domain.RequireSettings("ingest", "data_dir", cfg.DataDir); err != nil {
		return nil, err
	}
	if cfg.URIPrefix == "" {
		cfg.URIPrefix = DefaultURIPrefix
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.EmbedRPS > 0 {
		burst := cfg.EmbedBurst
		if burst <= 0 {
			burst = cfg.Concurrency
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRPS), burst)
	}
	return &Service{cfg: cfg, embed: embed, limiter: limiter, logger: logger}, nil
}

// Load reads every regular file in the data directory, in name order.
// Each file becomes one document: the ID is its 1-based position, the title
// and display title are the file name, and the content is the file verbatim.
// Empty files are skipped.
func (s *Service) Load(ctx context.Context) ([]document.Document, error) {
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	docs := make([]document.Document, 0, len(entries))
	pos := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		pos++

		name := e.Name()
		content, err := os.ReadFile(filepath.Join(s.cfg.DataDir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if len(content) == 0 {
			s.logger.Warn("Skipping empty file", zap.String("file", name))
			continue
		}

		doc, err := document.New(strconv.Itoa(pos), name, s.sourceURI(name), string(content), name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidDocument, name, err)
		}
		docs = append(docs, doc)
	}

	if s.embed != nil {
		return s.attachVectors(ctx, docs)
	}
	return docs, nil
}

func (s *Service) sourceURI(name string) string {
	return strings.TrimSuffix(s.cfg.URIPrefix, "/") + "/" + url.PathEscape(name)
}

// attachVectors embeds document contents concurrently, bounded by the configured limit.
func (s *Service) attachVectors(ctx context.Context, docs []document.Document) ([]document.Document, error) {
	out := make([]document.Document, len(docs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for i := range docs {
		g.Go(func() error {
			if err := s.limiter.Wait(gCtx); err != nil {
				return fmt.Errorf("embed document %s: %w", docs[i].ID(), err)
			}
			res, err := s.embed.Embed(gCtx, docs[i].Content())
			if err != nil {
				return fmt.Errorf("embed document %s: %w", docs[i].ID(), err)
			}
			out[i] = docs[i].WithVector(res.Embedding)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per document
	}

	s.logger.Info("Documents embedded", zap.Int("count", len(out)))
	return out, nil
}
