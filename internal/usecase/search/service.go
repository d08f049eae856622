package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchbot/internal/db"
	"github.com/kailas-cloud/searchbot/internal/domain"
	"github.com/kailas-cloud/searchbot/internal/domain/document"
	"github.com/kailas-cloud/searchbot/internal/domain/search/mode"
	"github.com/kailas-cloud/searchbot/internal/domain/search/rendered"
	"github.com/kailas-cloud/searchbot/internal/domain/search/request"
	"github.com/kailas-cloud/searchbot/internal/domain/search/result"
	"github.com/kailas-cloud/searchbot/internal/metrics"
)

// Rendering outcomes reported to metrics.
const (
	outcomeOK        = "ok"
	outcomeTruncated = "truncated"
	outcomeEmpty     = "empty"
	outcomeNoInput   = "no_input"
)

// Config holds the query strategy for one index.
type Config struct {
	IndexName      string
	Mode           mode.Mode
	SemanticConfig string
	// SelectFields defaults to the document fields needed for rendering.
	SelectFields []string
	// SearchFields restricts the full-text clause in hybrid mode.
	SearchFields []string
	VectorField  string
	VectorK      int
	Top          int
	// TokenBudget is used when RenderContext is called without a budget.
	TokenBudget int
}

// Service is the retrieval data source: it queries the index and renders
// ranked documents into bounded prompt text. It holds no per-call state.
type Service struct {
	searcher Searcher
	embed    Embedder
	tok      Tokenizer
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service. embed can be nil unless the mode is vector.
// Missing settings fail with domain.ErrConfiguration before any network call.
func New(searcher Searcher, embed Embedder, tok Tokenizer, cfg Config, logger *zap.Logger) (*Service, error) {
	if err := domain.RequireSettings("search", "index_name", cfg.IndexName); err != nil {
		return nil, err
	}
	if searcher == nil || tok == nil {
		return nil, fmt.Errorf("%w: search requires a search client and a tokenizer", domain.ErrConfiguration)
	}
	if cfg.Mode == "" {
		cfg.Mode = mode.Semantic
	}
	if !cfg.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrConfiguration, cfg.Mode)
	}

	switch cfg.Mode {
	case mode.Semantic:
		if err := domain.RequireSettings("semantic search", "semantic_configuration", cfg.SemanticConfig); err != nil {
			return nil, err
		}
	case mode.Vector:
		if embed == nil {
			return nil, fmt.Errorf("%w: vector search requires an embedding deployment", domain.ErrConfiguration)
		}
		if cfg.VectorField == "" {
			cfg.VectorField = document.FieldVector
		}
	case mode.Hybrid:
		if embed != nil && cfg.VectorField == "" {
			cfg.VectorField = document.FieldVector
		}
	}

	if len(cfg.SelectFields) == 0 {
		cfg.SelectFields = []string{
			document.FieldID, document.FieldTitle, document.FieldSourceURI,
			document.FieldContent, document.FieldDisplayTitle,
		}
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = request.DefaultTokenBudget
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{searcher: searcher, embed: embed, tok: tok, cfg: cfg, logger: logger}, nil
}

// Mode returns the configured query strategy.
func (s *Service) Mode() mode.Mode { return s.cfg.Mode }

// RenderContext retrieves documents for query and renders them within tokenBudget
// (the configured budget when tokenBudget <= 0).
//
// An empty query returns an explanatory context without calling the service.
// Documents are appended in ranked order until the next one would overflow the
// budget; the rest are dropped and the context is marked truncated.
func (s *Service) RenderContext(ctx context.Context, query string, tokenBudget int) (rendered.Context, error) {
	modeLabel := string(s.cfg.Mode)

	if strings.TrimSpace(query) == "" {
		metrics.RenderedContextTotal.WithLabelValues(modeLabel, outcomeNoInput).Inc()
		return rendered.Empty(rendered.NoInputMessage), nil
	}
	if tokenBudget <= 0 {
		tokenBudget = s.cfg.TokenBudget
	}

	req, err := request.New(
		query, s.cfg.Mode, s.cfg.SelectFields, s.cfg.SearchFields,
		s.cfg.Top, s.cfg.VectorK, tokenBudget, s.cfg.SemanticConfig,
	)
	if err != nil {
		return rendered.Context{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	results, err := s.Search(ctx, &req)
	if err != nil {
		return rendered.Context{}, err
	}

	if len(results) == 0 {
		metrics.RenderedContextTotal.WithLabelValues(modeLabel, outcomeEmpty).Inc()
		return rendered.Empty(rendered.NoDocumentsMessage), nil
	}

	rc := s.render(results, req.TokenBudget())

	outcome := outcomeOK
	if rc.Truncated() {
		outcome = outcomeTruncated
	}
	metrics.RenderedContextTotal.WithLabelValues(modeLabel, outcome).Inc()
	metrics.RenderedContextTokens.WithLabelValues(modeLabel).Observe(float64(rc.TokenCount()))

	return rc, nil
}

// Search issues one query in the request's mode and returns hits in service order.
// Service and embedding failures are wrapped in domain.ErrRetrieval.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	q := &db.SearchQuery{
		IndexName: s.cfg.IndexName,
		Select:    req.SelectFields(),
		Top:       req.Top(),
	}

	switch req.Mode() {
	case mode.Keyword:
		q.Text = req.Query()
		q.QueryType = db.QuerySimple
	case mode.Semantic:
		q.Text = req.Query()
		q.QueryType = db.QuerySemantic
		q.SemanticConfig = req.SemanticConfig()
	case mode.Vector:
		vq, err := s.vectorClause(ctx, req)
		if err != nil {
			return nil, err
		}
		q.Vector = vq
	case mode.Hybrid:
		q.Text = req.Query()
		q.QueryType = db.QuerySimple
		q.SearchFields = req.SearchFields()
		if s.embed != nil {
			vq, err := s.vectorClause(ctx, req)
			if err != nil {
				return nil, err
			}
			q.Vector = vq
		}
	default:
		return nil, fmt.Errorf("unsupported search mode: %s", req.Mode())
	}

	res, err := s.searcher.Search(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: index %q: %w", domain.ErrRetrieval, s.cfg.IndexName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: search index %q: %w", domain.ErrRetrieval, s.cfg.IndexName, err)
	}

	results := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		results = append(results, result.New(documentFromFields(e.Fields), e.Score, e.RerankerScore))
	}
	return results, nil
}

func (s *Service) vectorClause(ctx context.Context, req *request.Request) (*db.VectorQuery, error) {
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize query: %w", domain.ErrRetrieval, err)
	}
	return &db.VectorQuery{
		Vector: emb.Embedding,
		K:      req.K(),
		Fields: []string{s.cfg.VectorField},
	}, nil
}

// render appends formatted documents greedily and stops at the first overflow.
// A first document larger than the whole budget is dropped, leaving an empty
// truncated context.
func (s *Service) render(results []result.Result, budget int) rendered.Context {
	var b strings.Builder
	used := 0
	truncated := false
	included := make([]string, 0, len(results))

	for i := range results {
		doc := results[i].Document()
		block := FormatDocument(&doc)
		tokens := s.tok.Count(block)

		if used+tokens > budget {
			truncated = true
			s.logger.Debug("Token budget reached",
				zap.Int("budget", budget),
				zap.Int("used", used),
				zap.Int("dropped", len(results)-i),
			)
			break
		}

		b.WriteString(block)
		used += tokens
		included = append(included, doc.ID())

		s.logger.Debug("Rendered document",
			zap.String("id", doc.ID()),
			zap.String("uri", doc.SourceURI()),
			zap.Int("tokens", tokens),
		)
	}

	return rendered.New(b.String(), used, truncated, included)
}
